package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/loan"
	"github.com/rmacedo/loanbook/internal/metrics"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// Begin opens the transaction every payment mutation runs in, so the
	// row change and its balance delta commit together or not at all.
	Begin(ctx context.Context) (MutationTx, error)
}

// MutationTx couples a payment row mutation with its loan balance delta.
type MutationTx interface {
	// AdjustBalance applies delta atomically to the loan's remaining
	// balance with a single balance = balance + delta update, settling
	// the loan status when the balance crosses zero. A zero delta still
	// verifies the loan exists and returns its current state.
	AdjustBalance(ctx context.Context, loanID uuid.UUID, delta decimal.Decimal) (*LoanState, error)

	InsertPayment(ctx context.Context, p *Payment) error
	LockPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id uuid.UUID) error

	Commit() error
	Rollback() error
}

// LoanState is the owning loan as the mutation left it, surfaced in API
// responses so a caller never has to re-read to learn the new balance.
type LoanState struct {
	LoanID           uuid.UUID
	RemainingBalance decimal.Decimal
	Status           loan.Status
}

// Result is a settled payment mutation: the payment plus the loan state
// it produced.
type Result struct {
	Payment *Payment
	Loan    *LoanState
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
	LoanID      uuid.UUID `validate:"required"`
	ClientID    uuid.UUID `validate:"required"`
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      Method `validate:"required,oneof=cash bank_transfer check mobile_money"`
	Status      ledger.Status
	Notes       string
	ProcessedBy *uuid.UUID
}

type UpdateParams struct {
	Amount      *decimal.Decimal
	PaymentDate *time.Time
	Method      *Method
	Status      *ledger.Status
	Notes       *string
}

type ListFilter struct {
	LoanID   *uuid.UUID
	ClientID *uuid.UUID
	Status   *ledger.Status
}

// Create records a payment and applies its balance effect to the owning
// loan in one transaction. Payments default to completed: they normally
// represent money already received.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Result, error) {
	if params.Status == "" {
		params.Status = ledger.StatusCompleted
	}

	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("validating payment: %w", err)
	}

	if err := ledger.ValidateAmount(params.Amount); err != nil {
		return nil, err
	}

	if !params.Status.Valid() {
		return nil, ledger.ErrInvalidStatus
	}

	if params.PaymentDate.IsZero() {
		params.PaymentDate = time.Now().UTC()
	}

	p := &Payment{
		LoanID:      params.LoanID,
		ClientID:    params.ClientID,
		Amount:      params.Amount,
		PaymentDate: params.PaymentDate,
		Method:      params.Method,
		Status:      params.Status,
		Notes:       params.Notes,
		ProcessedBy: params.ProcessedBy,
	}

	state, err := s.mutate(ctx, "create", p.LoanID, ledger.CreationDelta(p.Amount, p.Status),
		func(ctx context.Context, tx MutationTx) error {
			return tx.InsertPayment(ctx, p)
		})
	if err != nil {
		return nil, err
	}

	return &Result{Payment: p, Loan: state}, nil
}

// Update changes a payment's amount and/or status (and incidental
// fields) and applies the net balance adjustment: reverse the old effect
// if it counted, apply the new one if it counts. The previously
// persisted amount and status are pinned with a row lock for the
// duration of the transaction.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Result, error) {
	if params.Amount != nil {
		if err := ledger.ValidateAmount(*params.Amount); err != nil {
			return nil, err
		}
	}

	if params.Status != nil && !params.Status.Valid() {
		return nil, ledger.ErrInvalidStatus
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning payment tx: %w", err)
	}
	defer tx.Rollback()

	p, err := tx.LockPayment(ctx, id)
	if err != nil {
		metrics.LedgerOps.WithLabelValues("update", "error").Inc()
		return nil, err
	}

	oldAmount, oldStatus := p.Amount, p.Status

	if params.Amount != nil {
		p.Amount = *params.Amount
	}

	if params.Status != nil {
		p.Status = *params.Status
	}

	if params.PaymentDate != nil {
		p.PaymentDate = *params.PaymentDate
	}

	if params.Method != nil {
		p.Method = *params.Method
	}

	if params.Notes != nil {
		p.Notes = *params.Notes
	}

	delta := ledger.UpdateDelta(oldAmount, p.Amount, oldStatus, p.Status)

	state, err := tx.AdjustBalance(ctx, p.LoanID, delta)
	if err != nil {
		metrics.LedgerOps.WithLabelValues("update", "error").Inc()
		return nil, err
	}

	if err := tx.UpdatePayment(ctx, p); err != nil {
		metrics.LedgerOps.WithLabelValues("update", "error").Inc()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.LedgerOps.WithLabelValues("update", "error").Inc()
		return nil, fmt.Errorf("committing payment update: %w", err)
	}

	metrics.LedgerOps.WithLabelValues("update", "ok").Inc()

	return &Result{Payment: p, Loan: state}, nil
}

// Delete removes a payment, returning its amount to the loan balance if
// it was completed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Result, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning payment tx: %w", err)
	}
	defer tx.Rollback()

	p, err := tx.LockPayment(ctx, id)
	if err != nil {
		metrics.LedgerOps.WithLabelValues("delete", "error").Inc()
		return nil, err
	}

	state, err := tx.AdjustBalance(ctx, p.LoanID, ledger.DeletionDelta(p.Amount, p.Status))
	if err != nil {
		metrics.LedgerOps.WithLabelValues("delete", "error").Inc()
		return nil, err
	}

	if err := tx.DeletePayment(ctx, id); err != nil {
		metrics.LedgerOps.WithLabelValues("delete", "error").Inc()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.LedgerOps.WithLabelValues("delete", "error").Inc()
		return nil, fmt.Errorf("committing payment deletion: %w", err)
	}

	metrics.LedgerOps.WithLabelValues("delete", "ok").Inc()

	return &Result{Payment: p, Loan: state}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, filter)
}

// mutate runs the create-shaped transaction: adjust the balance first
// (which also locks the loan row and rejects unknown loans before any
// payment write), then apply the row mutation.
func (s *Service) mutate(ctx context.Context, op string, loanID uuid.UUID, delta decimal.Decimal,
	apply func(ctx context.Context, tx MutationTx) error,
) (*LoanState, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning payment tx: %w", err)
	}
	defer tx.Rollback()

	state, err := tx.AdjustBalance(ctx, loanID, delta)
	if err != nil {
		metrics.LedgerOps.WithLabelValues(op, "error").Inc()
		return nil, err
	}

	if err := apply(ctx, tx); err != nil {
		metrics.LedgerOps.WithLabelValues(op, "error").Inc()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.LedgerOps.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	metrics.LedgerOps.WithLabelValues(op, "ok").Inc()

	return state, nil
}
