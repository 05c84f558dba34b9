package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/metrics"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=loan
type Repository interface {
	CreateLoan(ctx context.Context, l *Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error)
	ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error)
	DeleteLoan(ctx context.Context, id uuid.UUID) error

	// ApproveLoan sets the approved amount and seeds the remaining balance
	// in the same transaction; it fails with ErrInvalidTransition unless
	// the loan is pending.
	ApproveLoan(ctx context.Context, id uuid.UUID, approved decimal.Decimal) (*Loan, error)
	RejectLoan(ctx context.Context, id uuid.UUID) error
	ActivateLoan(ctx context.Context, id uuid.UUID, start time.Time) (*Loan, error)

	// RecomputeBalance atomically rewrites remaining_balance as
	// principal minus the sum of completed payments, reporting the prior
	// value so drift is visible.
	RecomputeBalance(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
}

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
	}
}

type CreateParams struct {
	ClientID     uuid.UUID `validate:"required"`
	LoanAmount   decimal.Decimal
	InterestRate decimal.Decimal
	TermMonths   int `validate:"required,gt=0,lte=600"`
}

type ListFilter struct {
	ClientID *uuid.UUID
	Status   *Status
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Loan, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("validating loan: %w", err)
	}

	if err := ledger.ValidateAmount(params.LoanAmount); err != nil {
		return nil, err
	}

	if params.InterestRate.IsNegative() {
		return nil, fmt.Errorf("validating loan: interest rate must not be negative")
	}

	l := &Loan{
		ClientID:         params.ClientID,
		LoanAmount:       params.LoanAmount,
		InterestRate:     params.InterestRate,
		TermMonths:       params.TermMonths,
		Status:           StatusPending,
		RemainingBalance: decimal.Zero,
	}
	if err := s.repo.CreateLoan(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Loan, error) {
	return s.repo.ListLoans(ctx, filter)
}

// Approve moves a pending loan to approved with the given amount, which
// may differ from what was requested, and seeds the remaining balance
// exactly once before any payments exist.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approvedAmount decimal.Decimal) (*Loan, error) {
	if err := ledger.ValidateAmount(approvedAmount); err != nil {
		return nil, err
	}

	l, err := s.repo.ApproveLoan(ctx, id, approvedAmount)
	if err != nil {
		return nil, err
	}

	metrics.LedgerOps.WithLabelValues("seed", "ok").Inc()

	return l, nil
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	return s.repo.RejectLoan(ctx, id)
}

// Activate starts an approved loan; the end date follows from the term.
func (s *Service) Activate(ctx context.Context, id uuid.UUID, start time.Time) (*Loan, error) {
	return s.repo.ActivateLoan(ctx, id, start)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteLoan(ctx, id)
}

// Reconcile recomputes the loan's balance from its payment history and
// persists the result. It is idempotent. Nonzero drift is repaired but
// never silently: it is logged and returned, since it means some write
// path bypassed the ledger.
func (s *Service) Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	rec, err := s.repo.RecomputeBalance(ctx, id)
	if err != nil {
		metrics.LedgerOps.WithLabelValues("reconcile", "error").Inc()
		return nil, err
	}

	if rec.Err() != nil {
		metrics.BalanceDrift.Inc()
		slog.Warn("balance drift repaired",
			"error", rec.Err(),
			"loan_id", rec.LoanID,
			"prior_balance", rec.PriorBalance.StringFixed(2),
			"balance", rec.Balance.StringFixed(2),
			"drift", rec.Drift.StringFixed(2),
		)
	}

	metrics.LedgerOps.WithLabelValues("reconcile", "ok").Inc()

	return rec, nil
}
