package httpadapter

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// paymentEvent is the payload pushed by the payment gateway.
type paymentEvent struct {
	PaymentID string `json:"payment_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Days      int    `json:"days"`
}

// handlePaymentWebhook consumes a payment confirmation. The shared secret on
// the x-webhook-secret header gates the endpoint; replays of an already
// processed payment id answer 200 without extending the subscription again.
func (h *Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		secret := r.Header.Get("x-webhook-secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	var event paymentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if event.PaymentID == "" || event.UserID == "" {
		http.Error(w, "missing payment_id or user_id", http.StatusBadRequest)
		return
	}
	if event.Status != "confirmed" {
		// Pending and failed events are acknowledged and ignored.
		w.WriteHeader(http.StatusOK)
		return
	}

	first, err := h.store.MarkPaymentConfirmed(r.Context(), event.PaymentID, event.UserID, event.Amount)
	if err != nil {
		h.logger.Error("payment confirmation failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !first {
		h.logger.Info("payment replayed", slog.String("payment_id", event.PaymentID))
		w.WriteHeader(http.StatusOK)
		return
	}

	days := event.Days
	if days <= 0 {
		days = 30
	}
	if err = h.store.ExtendSubscription(r.Context(), event.UserID, days); err != nil {
		h.logger.Error("subscription extension failed",
			slog.String("user_id", event.UserID), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("subscription extended",
		slog.String("user_id", event.UserID),
		slog.String("payment_id", event.PaymentID),
		slog.Int("days", days))
	w.WriteHeader(http.StatusOK)
}
