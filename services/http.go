package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hireflow/backend/apperrors"
)

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps a service error onto an HTTP status and a machine-readable
// body. Internal detail stays in the log; the client sees the safe message.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "status", status)
	}
	writeJSON(w, status, map[string]string{"error": apperrors.UserMessage(err)})
}
