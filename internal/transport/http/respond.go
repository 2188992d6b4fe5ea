package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"calldex/pkg/platform/sentinel"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain sentinels into HTTP statuses with a consistent
// JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sentinel.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, sentinel.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, sentinel.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internals never leak to callers.
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
