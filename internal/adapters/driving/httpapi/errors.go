package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// errorResponse is the JSON envelope for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes. Forbidden maps to
// 404 so a foreign document is indistinguishable from a missing one.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnsupportedKind):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrDimensionMismatch):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError replies with the mapped status and a JSON error body.
// Internal errors are not echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON replies with a JSON body. Encoding failures are silent; the
// status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
