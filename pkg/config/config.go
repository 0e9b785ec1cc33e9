package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FITROOM_APP_ENV" required:"true"`
	Port         string `envconfig:"FITROOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FITROOM_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FITROOM_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FITROOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FITROOM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FITROOM_DB_DSN"`
	Driver string `envconfig:"FITROOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FITROOM_DB_HOST"`
	LegacyPort     int    `envconfig:"FITROOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FITROOM_DB_USER"`
	LegacyPassword string `envconfig:"FITROOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"FITROOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"FITROOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FITROOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FITROOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FITROOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FITROOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"FITROOM_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
	TxRetries          int           `envconfig:"FITROOM_DB_TX_RETRIES" default:"3"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FITROOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FITROOM_REDIS_ADDR"`
	Password     string        `envconfig:"FITROOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"FITROOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FITROOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FITROOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FITROOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FITROOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FITROOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FITROOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FITROOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FITROOM_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RateLimitConfig throttles mutating shopper endpoints per fixed window.
type RateLimitConfig struct {
	Window       time.Duration `envconfig:"FITROOM_RATE_LIMIT_WINDOW" default:"1m"`
	ShopperLimit int           `envconfig:"FITROOM_RATE_LIMIT_SHOPPER_LIMIT" default:"120"`
	IPLimit      int           `envconfig:"FITROOM_RATE_LIMIT_IP_LIMIT" default:"300"`
	SubmitLimit  int           `envconfig:"FITROOM_RATE_LIMIT_SUBMIT_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FITROOM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FITROOM_AUTO_MIGRATE" default:"false"`
}

// CartConfig selects where shopper carts are persisted.
type CartConfig struct {
	Store    string        `envconfig:"FITROOM_CART_STORE" default:"postgres"`
	RedisTTL time.Duration `envconfig:"FITROOM_CART_REDIS_TTL" default:"720h"`
	IdleTTL  time.Duration `envconfig:"FITROOM_CART_IDLE_TTL" default:"30m"`
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Store)) {
	case CartStorePostgres, CartStoreRedis:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvCartStore, CartStorePostgres, CartStoreRedis)
	}
}

type PricingConfig struct {
	TaxRateBps                 int64 `envconfig:"FITROOM_PRICING_TAX_RATE_BPS" default:"800"`
	FreeShippingThresholdCents int64 `envconfig:"FITROOM_PRICING_FREE_SHIPPING_THRESHOLD_CENTS" default:"10000"`
	StandardShippingCents      int64 `envconfig:"FITROOM_PRICING_STANDARD_SHIPPING_CENTS" default:"999"`
}

func (p PricingConfig) validate() error {
	if p.TaxRateBps < 0 || p.TaxRateBps > 10000 {
		return fmt.Errorf("%s must be between 0 and 10000", EnvTaxRateBps)
	}
	if p.FreeShippingThresholdCents < 0 {
		return fmt.Errorf("%s must not be negative", EnvFreeShippingThreshold)
	}
	if p.StandardShippingCents < 0 {
		return fmt.Errorf("%s must not be negative", EnvStandardShipping)
	}
	return nil
}

type CheckoutConfig struct {
	SessionTTL        time.Duration `envconfig:"FITROOM_CHECKOUT_SESSION_TTL" default:"1h"`
	PaymentTimeout    time.Duration `envconfig:"FITROOM_CHECKOUT_PAYMENT_TIMEOUT" default:"30s"`
	SubmitGuardTTL    time.Duration `envconfig:"FITROOM_CHECKOUT_SUBMIT_GUARD_TTL" default:"10m"`
	ClearRetries      uint64        `envconfig:"FITROOM_CHECKOUT_CLEAR_RETRIES" default:"3"`
	ClearRetryBackoff time.Duration `envconfig:"FITROOM_CHECKOUT_CLEAR_RETRY_BACKOFF" default:"100ms"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FITROOM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FITROOM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FITROOM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"FITROOM_PUBSUB_ORDERS_TOPIC" default:"fitroom-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FITROOM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FITROOM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FITROOM_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"FITROOM_STRIPE_API_KEY"`
	Env      string `envconfig:"FITROOM_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"FITROOM_STRIPE_CURRENCY" default:"usd"`
	// MaxNetworkRetries lets stripe-go retry connection failures. Retries
	// reuse the request's Idempotency-Key, so a charge is never doubled.
	MaxNetworkRetries int64 `envconfig:"FITROOM_STRIPE_MAX_NETWORK_RETRIES" default:"2"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
