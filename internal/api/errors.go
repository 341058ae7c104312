package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/engine"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Kind      string           `json:"kind"`
	Message   string           `json:"message"`
	ID        string           `json:"id,omitempty"`
	AccountID string           `json:"account_id,omitempty"`
	Expected  *decimal.Decimal `json:"expected,omitempty"`
	Actual    *decimal.Decimal `json:"actual,omitempty"`
	Delta     *decimal.Decimal `json:"delta,omitempty"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindSessionAlreadyOpen, apperr.KindSessionCompleted:
		return http.StatusConflict
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case "":
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Kind: kind, Message: message})
}

// writeError renders err with the status for its kind.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrNotInitialized) {
		writeJSONError(w, http.StatusServiceUnavailable, string(apperr.KindStorageUnavailable), err.Error())
		return
	}
	ae, ok := apperr.As(err)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "Internal", "internal error")
		return
	}

	resp := ErrorResponse{
		Kind:      string(ae.Kind),
		Message:   ae.Message,
		ID:        ae.ID,
		AccountID: ae.AccountID,
	}
	if ae.Kind == apperr.KindStorageUnavailable {
		resp.Message = "storage unavailable"
	}
	if !ae.Delta.IsZero() || !ae.Expected.IsZero() || !ae.Actual.IsZero() {
		resp.Expected, resp.Actual, resp.Delta = &ae.Expected, &ae.Actual, &ae.Delta
	}
	writeJSON(w, statusFor(ae.Kind), resp)
}
