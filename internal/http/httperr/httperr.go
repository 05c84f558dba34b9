// Package httperr maps domain failures onto HTTP status codes so every
// handler surfaces the same taxonomy: validation 400, missing resources
// 404, conflicts 409, balance overruns 422.
package httperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rmacedo/loanbook/internal/client"
	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/loan"
)

type errorResponse struct {
	Error string `json:"error"`
}

func Write(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidStatus):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, ledger.ErrLoanNotFound),
		errors.Is(err, ledger.ErrPaymentNotFound),
		errors.Is(err, loan.ErrNotFound),
		errors.Is(err, client.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, loan.ErrInvalidTransition),
		errors.Is(err, ledger.ErrConflict):
		status = http.StatusConflict
		msg = err.Error()
	case errors.Is(err, ledger.ErrExceedsBalance):
		status = http.StatusUnprocessableEntity
		msg = err.Error()
	default:
		slog.Error("request failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorResponse{Error: msg}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
