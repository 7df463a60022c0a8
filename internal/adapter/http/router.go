// Package http wires the chi router: public account signup and probes, and
// the API-key protected ledger and webhook routes.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quillpay/ledger/internal/adapter/http/handler"
	"github.com/quillpay/ledger/internal/adapter/http/middleware"
	"github.com/quillpay/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	TransferHandler *handler.TransferHandler
	WebhookHandler  *handler.WebhookHandler
	HealthHandler   *handler.HealthHandler

	Authenticator    middleware.Authenticator
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates the HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Signup is the only unauthenticated business route; the response carries
	// the account's API key.
	r.Post("/accounts", cfg.AccountHandler.Create)

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		r.Use(middleware.APIKeyAuth(cfg.Authenticator))

		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore).Wrap)
		}

		r.Get("/accounts", cfg.AccountHandler.List)
		r.Get("/accounts/{id}", cfg.AccountHandler.Get)

		r.Post("/transfer", cfg.TransferHandler.Create)
		r.Get("/transfer/list", cfg.TransferHandler.List)
		r.Get("/transfer/info/{parent_key}", cfg.TransferHandler.GetGroup)
		r.Get("/transfer/{id}", cfg.TransferHandler.Get)

		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/", cfg.WebhookHandler.List)
			r.Post("/set", cfg.WebhookHandler.Set)
			r.Post("/unset", cfg.WebhookHandler.Unset)
			r.Get("/{id}/deliveries", cfg.WebhookHandler.ListDeliveries)
		})
	})

	return r
}
