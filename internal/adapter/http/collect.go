package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carrier-rewards/internal/adapter/usecase"
	"carrier-rewards/internal/core/port"
)

// handleCollect triggers a collect run for the user. The run executes in the
// background; the response only acknowledges admission. Admission failures
// map to conflict or payment-required responses so callers can distinguish
// them.
func (h *Handler) handleCollect(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	autoPurchase := r.URL.Query().Get("auto_purchase") == "true"

	if _, err := h.store.LoadSession(r.Context(), userID); err != nil {
		if errors.Is(err, port.ErrSessionNotFound) {
			http.Error(w, "unknown user", http.StatusNotFound)
			return
		}
		h.logger.Error("session lookup failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	go func() {
		// Detached from the request context: the run outlives the response.
		_, err := h.collector.Collect(context.Background(), userID,
			usecase.CollectOptions{AutoPurchase: autoPurchase})
		switch {
		case errors.Is(err, port.ErrNoCampaigns),
			errors.Is(err, port.ErrThrottled),
			errors.Is(err, port.ErrAlreadyRunning):
			h.logger.Info("collect run not started",
				slog.String("user_id", userID), slog.Any("reason", err))
		case err != nil:
			h.logger.Warn("collect run failed",
				slog.String("user_id", userID), slog.Any("error", err))
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// handleCancelCollect cancels the user's active run.
func (h *Handler) handleCancelCollect(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !h.collector.Cancel(userID) {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}
