package config

const EnvPrefix = "FITROOM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "FITROOM_APP_ENV"
	EnvPort      = "FITROOM_APP_PORT"
	EnvLogLevel  = "FITROOM_LOG_LEVEL"
	EnvLogFormat = "FITROOM_LOG_FORMAT"

	EnvDBDSN  = "FITROOM_DB_DSN"
	EnvDBHost = "FITROOM_DB_HOST"
	EnvDBUser = "FITROOM_DB_USER"
	EnvDBName = "FITROOM_DB_NAME"

	EnvRedisURL = "FITROOM_REDIS_URL"

	EnvJWTSecret  = "FITROOM_JWT_SECRET"
	EnvJWTIssuer  = "FITROOM_JWT_ISSUER"
	EnvJWTExpMins = "FITROOM_JWT_EXPIRATION_MINUTES"

	EnvCartStore = "FITROOM_CART_STORE"

	EnvTaxRateBps            = "FITROOM_PRICING_TAX_RATE_BPS"
	EnvFreeShippingThreshold = "FITROOM_PRICING_FREE_SHIPPING_THRESHOLD_CENTS"
	EnvStandardShipping      = "FITROOM_PRICING_STANDARD_SHIPPING_CENTS"

	EnvPaymentTimeout = "FITROOM_CHECKOUT_PAYMENT_TIMEOUT"

	EnvGCPProjectID       = "FITROOM_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "FITROOM_PUBSUB_ORDERS_TOPIC"
	EnvStripeAPIKey       = "FITROOM_STRIPE_API_KEY"
	EnvStripeEnv          = "FITROOM_STRIPE_ENV"
	EnvOutboxBatchSize    = "FITROOM_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxPollInterval = "FITROOM_OUTBOX_PUBLISH_POLL_MS"
)

const (
	CartStorePostgres = "postgres"
	CartStoreRedis    = "redis"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
