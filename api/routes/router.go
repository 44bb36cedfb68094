package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantlabs/leafroom-backend/api/controllers"
	"github.com/verdantlabs/leafroom-backend/api/middleware"
	"github.com/verdantlabs/leafroom-backend/internal/accounts"
	cartsvc "github.com/verdantlabs/leafroom-backend/internal/cart"
	"github.com/verdantlabs/leafroom-backend/internal/catalog"
	"github.com/verdantlabs/leafroom-backend/internal/orders"
	"github.com/verdantlabs/leafroom-backend/internal/pricing"
	"github.com/verdantlabs/leafroom-backend/pkg/config"
	"github.com/verdantlabs/leafroom-backend/pkg/db"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/metrics"
	pkgredis "github.com/verdantlabs/leafroom-backend/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	RedisPinger pkgredis.Pinger
	Idempotency pkgredis.IdempotencyStore
	CartManager *cartsvc.Manager
	Calculator  *pricing.Calculator
	Catalog     catalog.Service
	Accounts    accounts.Service
	Orders      orders.Service
	Checkout    *metrics.CheckoutMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.OptionalAuth(cfg.JWT, logg),
			middleware.CartContext(logg),
			middleware.Idempotency(deps.Idempotency, logg),
		)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(deps.Accounts, logg))
			r.Post("/login", controllers.AuthLogin(deps.Accounts, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Catalog, logg))
			r.Get("/{productKey}", controllers.ProductGet(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartManager, logg))
			r.Delete("/", controllers.CartClear(deps.CartManager, logg))
			r.Get("/quote", controllers.CartQuote(deps.CartManager, deps.Calculator, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartManager, deps.Catalog, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.CartManager, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.CartManager, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.CartManager, deps.Calculator, deps.Orders, deps.Checkout, logg))

		r.Get("/orders/{orderId}", controllers.OrderGet(deps.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWT, logg))
			r.Get("/orders", controllers.OrdersList(deps.Orders, logg))
			r.Get("/me", controllers.Me(deps.Accounts, logg))
			r.Get("/me/loyalty", controllers.LoyaltyBalance(deps.Accounts, logg))
		})
	})

	return r
}
