package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/fitroom-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/fitroom-backend/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/fitroom-backend/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/fitroom-backend/api/controllers/orders"
	"github.com/angelmondragon/fitroom-backend/api/middleware"
	"github.com/angelmondragon/fitroom-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/fitroom-backend/internal/checkout"
	"github.com/angelmondragon/fitroom-backend/internal/orders"
	"github.com/angelmondragon/fitroom-backend/pkg/config"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/angelmondragon/fitroom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	apiPolicy := middleware.NewRateLimitPolicy(
		"api",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.ShopperLimit,
	)
	submitPolicy := middleware.NewRateLimitPolicy(
		"submit",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.SubmitLimit,
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	var idempotencyStore middleware.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}
	limit := func(policy middleware.RateLimitPolicy) func(http.Handler) http.Handler {
		if redisClient == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimit(policy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(limit(apiPolicy))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/", cartcontrollers.CartClear(cartService, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
			r.Patch("/items/{lineID}", cartcontrollers.CartUpdateQuantity(cartService, logg))
			r.Delete("/items/{lineID}", cartcontrollers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/shipping-methods", checkoutcontrollers.ShippingMethods(checkoutService, logg))
			r.Post("/", checkoutcontrollers.Begin(checkoutService, logg))
			r.Get("/", checkoutcontrollers.Get(checkoutService, logg))
			r.Delete("/", checkoutcontrollers.Cancel(checkoutService, logg))
			r.Put("/shipping", checkoutcontrollers.SetShipping(checkoutService, logg))
			r.Put("/payment", checkoutcontrollers.SetPayment(checkoutService, logg))
			r.Post("/advance", checkoutcontrollers.Advance(checkoutService, logg))
			r.Post("/back", checkoutcontrollers.Back(checkoutService, logg))
			r.With(limit(submitPolicy)).Post("/submit", checkoutcontrollers.Submit(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.OrderList(ordersService, logg))
			r.Get("/{orderID}", ordercontrollers.OrderDetail(ordersService, logg))
			r.Post("/{orderID}/cancel", ordercontrollers.OrderCancel(ordersService, logg))
		})
	})

	return r
}
