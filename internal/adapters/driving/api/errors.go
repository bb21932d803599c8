package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPrecondition), errors.Is(err, domain.ErrProtocol):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error": ...}. A JSON body returned by a token
// endpoint is written unchanged instead.
func writeError(w http.ResponseWriter, err error) {
	var exchangeErr *domain.TokenExchangeError
	if errors.As(err, &exchangeErr) && exchangeErr.Body != nil {
		writeJSON(w, statusFor(err), exchangeErr.Body)
		return
	}
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
