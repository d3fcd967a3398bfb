package router

import (
	"context"
	"net/http"
	"time"

	"order-cart/internal/handler"
	"order-cart/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds the router dependencies.
type Config struct {
	Carts          *handler.CartHandler
	Orders         *handler.OrderHandler
	Items          *handler.ItemHandler
	AllowedOrigins []string
	RequestTimeout time.Duration
	HealthChecks   map[string]HealthCheck
}

// New creates a new HTTP router with all routes and middleware configured.
func New(cfg Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> Timeout
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", health(cfg.HealthChecks, logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", cfg.Items.GetAll)
		r.Get("/items/{itemID}", cfg.Items.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.UserIdentity(logger))

			r.Get("/cart", cfg.Carts.Get)
			r.Post("/cart/items/{itemID}", cfg.Carts.AddItem)
			r.Put("/cart/items/{itemID}", cfg.Carts.SetQty)

			r.Get("/orders/{orderID}", cfg.Orders.GetByID)
		})
	})

	return r
}

// health runs every check and reports 503 when any of them fails.
func health(checks map[string]HealthCheck, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				logger.Error().Err(err).Str("dependency", name).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy","dependency":"` + name + `"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}
}
