package loan

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/ledger"
)

var (
	ErrNotFound = errors.New("loan not found")

	// ErrInvalidTransition means the loan is not in a state the requested
	// lifecycle change can start from (e.g. approving a rejected loan).
	ErrInvalidTransition = errors.New("invalid loan status transition")
)

// Status is a loan's lifecycle state. Overdue is set by an external
// schedule watcher, never by this service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// Loan is a client's loan. RemainingBalance is derived from the payment
// history but persisted; it is seeded at approval and from then on only
// moves through ledger deltas or a reconcile.
type Loan struct {
	ID               uuid.UUID
	ClientID         uuid.UUID
	LoanAmount       decimal.Decimal
	ApprovedAmount   *decimal.Decimal
	InterestRate     decimal.Decimal
	TermMonths       int
	StartDate        *time.Time
	EndDate          *time.Time
	Status           Status
	RemainingBalance decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// Principal is the basis the remaining balance is computed from: the
// approved amount once set, otherwise the requested amount.
func (l *Loan) Principal() decimal.Decimal {
	if l.ApprovedAmount != nil {
		return *l.ApprovedAmount
	}

	return l.LoanAmount
}

// Reconciliation is the result of recomputing a loan's balance from
// scratch. Drift is the difference between the previously persisted
// balance and the recomputed one; anything nonzero means some write
// bypassed the ledger.
type Reconciliation struct {
	LoanID       uuid.UUID
	PriorBalance decimal.Decimal
	Balance      decimal.Decimal
	Drift        decimal.Decimal
	Status       Status
}

// Err reports the invariant violation as a typed failure when the
// reconciliation found drift; nil when the books were consistent. The
// repair itself has already been persisted either way.
func (r *Reconciliation) Err() error {
	if r.Drift.IsZero() {
		return nil
	}

	return ledger.ErrBalanceDrift
}
