package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireflow/backend/apperrors"
)

// WebhookEndpoints receives vendor callbacks. The surface is machine-facing:
// errors are JSON with stable status codes so the vendor's retry logic can
// distinguish permanent failures from transient ones.
type WebhookEndpoints struct {
	reconciler *WebhookReconciler
}

func NewWebhookEndpoints(reconciler *WebhookReconciler) *WebhookEndpoints {
	return &WebhookEndpoints{reconciler: reconciler}
}

func (e *WebhookEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/video", e.VideoHandler)
}

func (e *WebhookEndpoints) VideoHandler(w http.ResponseWriter, r *http.Request) {
	if err := e.reconciler.VerifySecret(r.Header.Get("X-Webhook-Secret")); err != nil {
		slog.Warn("Webhook rejected", "error", err, "remote_addr", r.RemoteAddr)
		writeError(w, err)
		return
	}

	var event VideoWebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, apperrors.Validation("invalid webhook payload"))
		return
	}

	if err := e.reconciler.Process(r.Context(), event); err != nil {
		slog.Error("Webhook processing failed", "error", err, "event_type", event.EventType, "session_id", event.SessionID)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
