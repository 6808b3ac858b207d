package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"procodus.dev/fleet-inventory/internal/inventory"
)

type errBody struct {
	Error   string  `json:"error"`
	Details []Issue `json:"details,omitempty"`
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps an error onto the response contract: validation failures
// carry their aggregated issues, domain errors map to 404/409/400, and
// everything else is a 500 whose detail stays in the log.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, errBody{
			Error:   "Validation failed",
			Details: vErr.Issues,
		})
		return
	}

	switch {
	case inventory.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errBody{Error: err.Error()})
	case inventory.IsConflict(err):
		writeJSON(w, http.StatusConflict, errBody{Error: err.Error()})
	case inventory.IsBusinessRule(err):
		writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
	default:
		a.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		msg := "Internal Server Error"
		if a.debug {
			msg = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, errBody{Error: msg})
	}
}
