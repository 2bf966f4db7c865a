package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modaversa/storefront/internal/auth"
	"github.com/modaversa/storefront/internal/ratelimit"
	"github.com/modaversa/storefront/pkg/health"
	"github.com/modaversa/storefront/pkg/middleware"
)

// RateLimitConfig is the per-namespace fixed-window budget.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// RouterDeps bundles everything the HTTP router needs.
type RouterDeps struct {
	ServiceName string
	Logger      *slog.Logger
	CORS        middleware.CORSConfig
	JWT         *auth.JWTManager
	Limiter     *ratelimit.Limiter
	RateLimit   RateLimitConfig
	Health      *health.Handler

	Wishlist *WishlistHandler
	Cart     *CartHandler
	Catalog  *CatalogHandler
	Webhook  *WebhookHandler
}

// NewRouter builds the full HTTP routing tree with the standard middleware
// chain: recovery, tracing, metrics, request logging, CORS, then per-group
// identity and rate limiting.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Tracing(deps.ServiceName))
	r.Use(middleware.PrometheusMetrics(deps.ServiceName))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(deps.CORS))

	r.Get("/healthz", deps.Health.LivenessHandler())
	r.Get("/readyz", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	rl := deps.RateLimit

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Identity(deps.JWT))
		r.Use(ratelimit.Middleware(deps.Limiter, "api", rl.Max, rl.Window, false, deps.Logger))

		r.Get("/products", deps.Catalog.List)
		r.Get("/products/{productID}", deps.Catalog.Get)

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", deps.Wishlist.Get)
			r.Post("/items", deps.Wishlist.AddItem)
			r.Delete("/items/{itemID}", deps.Wishlist.RemoveItem)
			r.Post("/share", deps.Wishlist.Share)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", deps.Cart.Get)
			r.Delete("/", deps.Cart.Clear)
			r.Post("/items", deps.Cart.AddItem)
			r.Put("/items", deps.Cart.UpdateItem)
			r.Delete("/items/{productID}", deps.Cart.RemoveItem)
			r.Post("/merge", deps.Cart.Merge)
		})
	})

	// Public share links get their own budget, independent of the API one.
	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(deps.Limiter, "shared", rl.Max, rl.Window, false, deps.Logger))
		r.Get("/shared/wishlists/{shareToken}", deps.Wishlist.GetShared)
	})

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(deps.Limiter, "webhook", rl.Max, rl.Window, true, deps.Logger))
		r.Post("/webhooks/{provider}", deps.Webhook.Receive)
	})

	return r
}
