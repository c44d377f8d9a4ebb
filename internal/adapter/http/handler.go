package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carrier-rewards/internal/adapter/usecase"
	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/port"
)

// Handler is the inbound HTTP adapter: the payment webhook, the programmatic
// collect trigger and the health probe. Routes are registered on a
// chi.Router for convenient method handling.
type Handler struct {
	collector *usecase.Collector
	store     port.SessionStore
	logger    *slog.Logger
	router    chi.Router

	webhookSecret string
}

// NewHandler creates a handler with all routes configured.
func NewHandler(collector *usecase.Collector, store port.SessionStore, cfg configs.HTTP, logger *slog.Logger) *Handler {
	h := &Handler{
		collector:     collector,
		store:         store,
		logger:        logger,
		webhookSecret: cfg.WebhookSecret,
	}
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealth)
	r.Post("/webhook/payment", h.handlePaymentWebhook)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/collect/{userID}", h.handleCollect)
		r.Delete("/collect/{userID}", h.handleCancelCollect)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
