package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fitroom-backend/api/controllers"
	"github.com/angelmondragon/fitroom-backend/api/routes"
	"github.com/angelmondragon/fitroom-backend/internal/cart"
	"github.com/angelmondragon/fitroom-backend/internal/catalog"
	"github.com/angelmondragon/fitroom-backend/internal/checkout"
	"github.com/angelmondragon/fitroom-backend/internal/orders"
	"github.com/angelmondragon/fitroom-backend/internal/payments"
	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/angelmondragon/fitroom-backend/pkg/config"
	"github.com/angelmondragon/fitroom-backend/pkg/db"
	"github.com/angelmondragon/fitroom-backend/pkg/idempotency"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/angelmondragon/fitroom-backend/pkg/metrics"
	"github.com/angelmondragon/fitroom-backend/pkg/migrate"
	"github.com/angelmondragon/fitroom-backend/pkg/outbox"
	"github.com/angelmondragon/fitroom-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/fitroom-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	stripeClient, err := pkgstripe.NewClient(bootCtx, cfg.Stripe, logg)
	if err != nil {
		return err
	}
	gateway, err := payments.NewStripeGateway(payments.NewStripeAPI(stripeClient), stripeClient.Currency(), logg)
	if err != nil {
		return err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var persist cart.Persistence
	switch cfg.Cart.Store {
	case config.CartStoreRedis:
		persist = cart.NewRedisRepository(redisClient, cfg.Cart.RedisTTL)
	default:
		persist = cart.NewGormRepository(dbClient.DB())
	}
	rules := pricing.RulesFromConfig(cfg.Pricing)
	registry, err := cart.NewRegistry(persist, cart.StoreOptions{
		Rules:   rules,
		Logger:  logg,
		Metrics: metrics.NewCartMetrics(promRegistry),
		IdleTTL: cfg.Cart.IdleTTL,
	})
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(registry, catalog.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Outbox:     outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Numbers:    redisClient,
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	claims, err := idempotency.NewManager(redisClient, cfg.Checkout.SubmitGuardTTL)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:             cartService,
		Orders:            ordersService,
		Payments:          gateway,
		Guard:             checkout.NewSubmissionGuard(claims),
		Metrics:           metrics.NewCheckoutMetrics(promRegistry),
		Logger:            logg,
		Rules:             rules,
		SessionTTL:        cfg.Checkout.SessionTTL,
		PaymentTimeout:    cfg.Checkout.PaymentTimeout,
		ClearRetries:      cfg.Checkout.ClearRetries,
		ClearRetryBackoff: cfg.Checkout.ClearRetryBackoff,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"cart_store": cfg.Cart.Store,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			map[string]controllers.Pinger{"database": dbClient, "redis": redisClient},
			redisClient,
			promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
			cartService,
			checkoutService,
			ordersService,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
