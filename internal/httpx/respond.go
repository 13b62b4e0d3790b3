package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(kind string) int {
	switch kind {
	case "insufficient_balance":
		return http.StatusPaymentRequired
	case "invalid_amount", "invalid_input":
		return http.StatusBadRequest
	case "profile_missing", "recharge_missing", "user_missing", "order_missing", "not_found":
		return http.StatusNotFound
	case "unauthorized":
		return http.StatusForbidden
	case "invalid_transition", "already_exists":
		return http.StatusConflict
	case "store_unavailable":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders a ledger error. Infrastructure details stay in the log.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := ledger.Code(err)
	code := statusFor(kind)
	msg := err.Error()

	var ve ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		msg = ve.Field + ": " + ve.Message
	case code >= http.StatusInternalServerError:
		logger.Error("request failed", "kind", kind, "error", err)
		msg = http.StatusText(code)
	}
	writeJSON(w, code, errorBody{Error: msg, Kind: kind})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "invalid_input"})
}
