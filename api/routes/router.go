package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Guard authenticates bearer headers and enforces roles.
type Guard interface {
	Authenticate(ctx context.Context, header string) (pkgAuth.Principal, error)
	RequireRole(principal pkgAuth.Principal, role enums.Role) error
}

// Deps carries everything the router wires. Redis-backed fields stay nil
// when redis is not configured, which turns rate limiting and idempotency off.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	DB    controllers.Pinger
	Redis controllers.Pinger

	RateLimiter pkgredis.RateLimiter
	Idempotency pkgredis.IdempotencyStore

	Guard    Guard
	Auth     auth.Service
	Products product.Service
	Cart     cart.Service
	Wishlist wishlist.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	idempotent := middleware.Idempotency(deps.Idempotency, middleware.DefaultIdempotencyTTL, logg)
	authenticated := middleware.Auth(deps.Guard, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{
			Timeout: 5 * time.Second,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(middleware.RegisterPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg),
		).Post("/account", controllers.AccountRegister(deps.Auth, logg))
		r.With(
			middleware.AuthRateLimit(middleware.LoginPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg),
		).Post("/token", controllers.TokenIssue(deps.Auth, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{id}", controllers.ProductGet(deps.Products, logg))
			r.Get("/category/{category}", controllers.ProductListByCategory(deps.Products, logg))
			r.Get("/status/{status}", controllers.ProductListByStatus(deps.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.With(idempotent).Post("/", controllers.ProductCreate(deps.Products, deps.Guard, logg))
				r.Put("/{id}", controllers.ProductUpdate(deps.Products, deps.Guard, logg))
				r.Delete("/{id}", controllers.ProductDelete(deps.Products, deps.Guard, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.CartList(deps.Cart, logg))
			r.With(idempotent).Post("/", controllers.CartAdd(deps.Cart, logg))
			r.Put("/", controllers.CartUpdate(deps.Cart, logg))
			r.Delete("/", controllers.CartRemove(deps.Cart, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(deps.Wishlist, logg))
			r.Delete("/", controllers.WishlistRemove(deps.Wishlist, logg))
		})
	})

	return r
}
