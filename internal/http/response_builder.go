package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
)

// APIError is the body of every error response.
type APIError struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, APIError{
		Status:  status,
		Error:   http.StatusText(status),
		Message: message,
		Path:    r.URL.Path,
	})
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders a service error. Validation errors list every
// field; unexpected errors are logged and hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()
	switch status {
	case http.StatusBadRequest:
		message = core.Describe(err)
	case http.StatusForbidden:
		message = "access denied"
	case http.StatusInternalServerError:
		attrs := log.Attrs{}.Str(log.FieldPath, r.URL.Path).Owner(ownerID(r)).Err(err)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", attrs...)
		message = "internal server error"
	}
	writeError(w, r, status, message)
}
