package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/client"
	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/loan"
	"github.com/rmacedo/loanbook/internal/payment"
)

// Postgres error codes we translate into domain failures.
const (
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
	pgLockNotAvailable    = "55P03"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectPaymentColumns = `
	id, loan_id, client_id, amount, payment_date, method, status, notes,
	processed_by, created_at, updated_at
`

func scanPayment(s scanner) (*payment.Payment, error) {
	var p payment.Payment

	var methodStr, statusStr string

	var notes sql.NullString

	if err := s.Scan(
		&p.ID, &p.LoanID, &p.ClientID, &p.Amount, &p.PaymentDate, &methodStr, &statusStr,
		&notes, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Method = payment.Method(methodStr)
	p.Status = ledger.Status(statusStr)
	p.Notes = notes.String

	return &p, nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrPaymentNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.LoanID != nil {
		query += fmt.Sprintf(" AND loan_id = $%d", argIdx)

		args = append(args, *filter.LoanID)
		argIdx++
	}

	if filter.ClientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", argIdx)

		args = append(args, *filter.ClientID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY payment_date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return payments, nil
}

type mutationTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (payment.MutationTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning tx: %w", err)
	}

	return &mutationTx{tx: tx}, nil
}

func (m *mutationTx) Commit() error   { return m.tx.Commit() }
func (m *mutationTx) Rollback() error { return m.tx.Rollback() }

// AdjustBalance is the single balance write the whole system uses for
// payment mutations: one atomic balance = balance + delta update, so two
// concurrent transactions on the same loan can never both read the
// pre-update balance and lose one of the writes. The loans table CHECK
// constraint rejects a delta that would drive the balance negative.
func (m *mutationTx) AdjustBalance(ctx context.Context, loanID uuid.UUID, delta decimal.Decimal) (*payment.LoanState, error) {
	query := `
		UPDATE loans SET
			remaining_balance = remaining_balance + $2,
			status = CASE
				WHEN remaining_balance + $2 = 0 AND status = 'active' THEN 'completed'
				WHEN remaining_balance + $2 > 0 AND status = 'completed' THEN 'active'
				ELSE status
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING remaining_balance, status
	`

	state := payment.LoanState{LoanID: loanID}

	var statusStr string

	err := m.tx.QueryRowContext(ctx, query, loanID, delta).
		Scan(&state.RemainingBalance, &statusStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrLoanNotFound
		}

		return nil, translatePgError(err, "adjusting balance")
	}

	state.Status = loan.Status(statusStr)

	return &state, nil
}

func (m *mutationTx) InsertPayment(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (loan_id, client_id, amount, payment_date, method, status, notes, processed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := m.tx.QueryRowContext(ctx, query,
		p.LoanID,
		p.ClientID,
		p.Amount,
		p.PaymentDate,
		p.Method,
		p.Status,
		p.Notes,
		p.ProcessedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translatePgError(err, "creating payment")
	}

	return nil
}

// LockPayment pins the payment row for the rest of the transaction so
// the (amount, status) pair the delta is computed from cannot change
// underneath a concurrent update.
func (m *mutationTx) LockPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`

	p, err := scanPayment(m.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrPaymentNotFound
		}

		return nil, translatePgError(err, "locking payment")
	}

	return p, nil
}

func (m *mutationTx) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments
		SET amount = $1, payment_date = $2, method = $3, status = $4, notes = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := m.tx.QueryRowContext(ctx, query,
		p.Amount,
		p.PaymentDate,
		p.Method,
		p.Status,
		p.Notes,
		p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ledger.ErrPaymentNotFound
		}

		return translatePgError(err, "updating payment")
	}

	return nil
}

func (m *mutationTx) DeletePayment(ctx context.Context, id uuid.UUID) error {
	res, err := m.tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, "deleting payment")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrPaymentNotFound
	}

	return nil
}

// translatePgError maps the Postgres failures with domain meaning onto
// ledger sentinels; anything else is wrapped as-is.
func translatePgError(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ledger.ErrConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation:
			if pgErr.ConstraintName == "loans_remaining_balance_nonnegative" {
				return ledger.ErrExceedsBalance
			}
		case pgForeignKeyViolation:
			switch pgErr.ConstraintName {
			case "payments_loan_id_fkey":
				return ledger.ErrLoanNotFound
			case "payments_client_id_fkey":
				return client.ErrNotFound
			}
		case pgLockNotAvailable:
			return ledger.ErrConflict
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
