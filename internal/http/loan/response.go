package loan

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmacedo/loanbook/internal/loan"
)

// Balances serialize as decimal strings with exactly two fractional
// digits on every API surface.
type loanResponse struct {
	ID               uuid.UUID   `json:"id"`
	ClientID         uuid.UUID   `json:"client_id"`
	LoanAmount       string      `json:"loan_amount"`
	ApprovedAmount   *string     `json:"approved_amount,omitempty"`
	InterestRate     string      `json:"interest_rate"`
	TermMonths       int         `json:"term_months"`
	StartDate        *string     `json:"start_date,omitempty"`
	EndDate          *string     `json:"end_date,omitempty"`
	Status           loan.Status `json:"status"`
	RemainingBalance string      `json:"remaining_balance"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        *time.Time  `json:"updated_at,omitempty"`
}

func toResponse(l *loan.Loan) loanResponse {
	resp := loanResponse{
		ID:               l.ID,
		ClientID:         l.ClientID,
		LoanAmount:       l.LoanAmount.StringFixed(2),
		InterestRate:     l.InterestRate.StringFixed(2),
		TermMonths:       l.TermMonths,
		Status:           l.Status,
		RemainingBalance: l.RemainingBalance.StringFixed(2),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}

	if l.ApprovedAmount != nil {
		s := l.ApprovedAmount.StringFixed(2)
		resp.ApprovedAmount = &s
	}

	if l.StartDate != nil {
		s := l.StartDate.Format(time.DateOnly)
		resp.StartDate = &s
	}

	if l.EndDate != nil {
		s := l.EndDate.Format(time.DateOnly)
		resp.EndDate = &s
	}

	return resp
}

func toResponseList(loans []*loan.Loan) []loanResponse {
	resp := make([]loanResponse, len(loans))
	for i, l := range loans {
		resp[i] = toResponse(l)
	}

	return resp
}

type reconciliationResponse struct {
	LoanID           uuid.UUID   `json:"loan_id"`
	PriorBalance     string      `json:"prior_balance"`
	RemainingBalance string      `json:"remaining_balance"`
	Drift            string      `json:"drift"`
	Status           loan.Status `json:"status"`
}

func toReconciliationResponse(rec *loan.Reconciliation) reconciliationResponse {
	return reconciliationResponse{
		LoanID:           rec.LoanID,
		PriorBalance:     rec.PriorBalance.StringFixed(2),
		RemainingBalance: rec.Balance.StringFixed(2),
		Drift:            rec.Drift.StringFixed(2),
		Status:           rec.Status,
	}
}
