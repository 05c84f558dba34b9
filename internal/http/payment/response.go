package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/loan"
	"github.com/rmacedo/loanbook/internal/payment"
)

// Response is the payment representation the API serves. It is exported
// because the loan handler embeds payment listings under
// /loans/{id}/payments.
type Response struct {
	ID          uuid.UUID      `json:"id"`
	LoanID      uuid.UUID      `json:"loan_id"`
	ClientID    uuid.UUID      `json:"client_id"`
	Amount      string         `json:"amount"`
	PaymentDate string         `json:"payment_date"`
	Method      payment.Method `json:"method"`
	Status      ledger.Status  `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	ProcessedBy *uuid.UUID     `json:"processed_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// mutationResponse is a payment mutation's result: the payment plus the
// loan balance and status it produced, so the console never has to
// re-fetch the loan to show the effect.
type mutationResponse struct {
	Response

	NewRemainingBalance string      `json:"new_remaining_balance"`
	NewStatus           loan.Status `json:"new_status"`
}

func toResponse(p *payment.Payment) Response {
	return Response{
		ID:          p.ID,
		LoanID:      p.LoanID,
		ClientID:    p.ClientID,
		Amount:      p.Amount.StringFixed(2),
		PaymentDate: p.PaymentDate.Format(time.DateOnly),
		Method:      p.Method,
		Status:      p.Status,
		Notes:       p.Notes,
		ProcessedBy: p.ProcessedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toMutationResponse(res *payment.Result) mutationResponse {
	return mutationResponse{
		Response:            toResponse(res.Payment),
		NewRemainingBalance: res.Loan.RemainingBalance.StringFixed(2),
		NewStatus:           res.Loan.Status,
	}
}

func ToResponseList(payments []*payment.Payment) []Response {
	resp := make([]Response, len(payments))
	for i, p := range payments {
		resp[i] = toResponse(p)
	}

	return resp
}
