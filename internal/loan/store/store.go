package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/loan"
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

const selectLoanColumns = `
	id, client_id, loan_amount, approved_amount, interest_rate, term_months,
	start_date, end_date, status, remaining_balance, created_at, updated_at
`

func scanLoan(s scanner) (*loan.Loan, error) {
	var l loan.Loan

	var approved decimal.NullDecimal

	var statusStr string

	if err := s.Scan(
		&l.ID, &l.ClientID, &l.LoanAmount, &approved, &l.InterestRate, &l.TermMonths,
		&l.StartDate, &l.EndDate, &statusStr, &l.RemainingBalance, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	l.Status = loan.Status(statusStr)

	if approved.Valid {
		l.ApprovedAmount = &approved.Decimal
	}

	return &l, nil
}

func (s *Store) CreateLoan(ctx context.Context, l *loan.Loan) error {
	query := `
		INSERT INTO loans (client_id, loan_amount, interest_rate, term_months, status, remaining_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		l.ClientID,
		l.LoanAmount,
		l.InterestRate,
		l.TermMonths,
		l.Status,
		l.RemainingBalance,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating loan: %w", err)
	}

	return nil
}

func (s *Store) GetLoan(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `SELECT ` + selectLoanColumns + ` FROM loans WHERE id = $1`

	l, err := scanLoan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, loan.ErrNotFound
		}

		return nil, fmt.Errorf("getting loan: %w", err)
	}

	return l, nil
}

func (s *Store) ListLoans(ctx context.Context, filter loan.ListFilter) ([]*loan.Loan, error) {
	query := `SELECT ` + selectLoanColumns + ` FROM loans WHERE 1=1`

	var args []any

	argIdx := 1

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

	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}
	defer rows.Close()

	var loans []*loan.Loan

	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning loan: %w", err)
		}

		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating loan rows: %w", err)
	}

	return loans, nil
}

func (s *Store) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting loan: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return loan.ErrNotFound
	}

	return nil
}

// recomputeBalanceQuery rewrites remaining_balance from first principles
// in one atomic statement: principal minus the sum of completed payments.
// It also settles the loan status when the balance crosses zero in either
// direction, and reports the prior balance so drift is observable.
const recomputeBalanceQuery = `
	UPDATE loans l SET
		remaining_balance = sub.expected,
		status = CASE
			WHEN sub.expected = 0 AND l.status = 'active' THEN 'completed'
			WHEN sub.expected > 0 AND l.status = 'completed' THEN 'active'
			ELSE l.status
		END,
		updated_at = NOW()
	FROM (
		SELECT id,
			remaining_balance AS prior,
			COALESCE(approved_amount, loan_amount) - COALESCE((
				SELECT SUM(p.amount) FROM payments p
				WHERE p.loan_id = loans.id AND p.status = 'completed'
			), 0) AS expected
		FROM loans
		WHERE id = $1
		FOR UPDATE
	) sub
	WHERE l.id = sub.id
	RETURNING sub.prior, l.remaining_balance, l.status
`

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func recomputeBalance(ctx context.Context, q rowQueryer, id uuid.UUID) (*loan.Reconciliation, error) {
	rec := loan.Reconciliation{LoanID: id}

	var statusStr string

	err := q.QueryRowContext(ctx, recomputeBalanceQuery, id).
		Scan(&rec.PriorBalance, &rec.Balance, &statusStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, loan.ErrNotFound
		}

		return nil, fmt.Errorf("recomputing balance: %w", err)
	}

	rec.Status = loan.Status(statusStr)
	rec.Drift = rec.PriorBalance.Sub(rec.Balance)

	return &rec, nil
}

func (s *Store) RecomputeBalance(ctx context.Context, id uuid.UUID) (*loan.Reconciliation, error) {
	return recomputeBalance(ctx, s.db, id)
}

// ApproveLoan sets the approved amount and seeds remaining_balance via
// the recompute statement, all in one transaction so no reader observes
// an approved loan without a balance.
func (s *Store) ApproveLoan(ctx context.Context, id uuid.UUID, approved decimal.Decimal) (*loan.Loan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning approval tx: %w", err)
	}
	defer tx.Rollback()

	if err := lockStatus(ctx, tx, id, loan.StatusPending); err != nil {
		return nil, err
	}

	query := `
		UPDATE loans
		SET approved_amount = $2, status = 'approved', updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, id, approved); err != nil {
		return nil, fmt.Errorf("approving loan: %w", err)
	}

	if _, err := recomputeBalance(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("seeding balance: %w", err)
	}

	l, err := scanLoan(tx.QueryRowContext(ctx, `SELECT `+selectLoanColumns+` FROM loans WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("reading approved loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing approval: %w", err)
	}

	return l, nil
}

func (s *Store) RejectLoan(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rejection tx: %w", err)
	}
	defer tx.Rollback()

	if err := lockStatus(ctx, tx, id, loan.StatusPending); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET status = 'rejected', updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("rejecting loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rejection: %w", err)
	}

	return nil
}

func (s *Store) ActivateLoan(ctx context.Context, id uuid.UUID, start time.Time) (*loan.Loan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning activation tx: %w", err)
	}
	defer tx.Rollback()

	if err := lockStatus(ctx, tx, id, loan.StatusApproved); err != nil {
		return nil, err
	}

	query := `
		UPDATE loans
		SET status = 'active',
			start_date = $2,
			end_date = $2 + make_interval(months => term_months),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + selectLoanColumns

	l, err := scanLoan(tx.QueryRowContext(ctx, query, id, start))
	if err != nil {
		return nil, fmt.Errorf("activating loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing activation: %w", err)
	}

	return l, nil
}

// lockStatus pins the loan row for the rest of the transaction and
// verifies it is in the state the transition starts from. The missing
// vs wrong-state classification reads the same locked row the guarded
// update will, so a concurrent delete cannot skew it.
func lockStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, want loan.Status) error {
	var status string

	err := tx.QueryRowContext(ctx, `SELECT status FROM loans WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return loan.ErrNotFound
		}

		return fmt.Errorf("locking loan: %w", err)
	}

	return checkTransition(loan.Status(status), want)
}

// checkTransition classifies a locked row's state against the state the
// requested transition starts from.
func checkTransition(current, want loan.Status) error {
	if current != want {
		return loan.ErrInvalidTransition
	}

	return nil
}
