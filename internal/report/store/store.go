package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rmacedo/loanbook/internal/report"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Summary(ctx context.Context) (*report.Summary, error) {
	summary := report.Summary{
		LoansByStatus: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&summary.TotalClients); err != nil {
		return nil, fmt.Errorf("counting clients: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM loans GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting loans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string

		var count int

		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning loan counts: %w", err)
		}

		summary.LoansByStatus[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating loan counts: %w", err)
	}

	query := `
		SELECT
			COALESCE((SELECT SUM(remaining_balance) FROM loans WHERE status IN ('active', 'overdue')), 0),
			COALESCE((SELECT SUM(amount) FROM payments WHERE status = 'completed'), 0)
	`
	if err := s.db.QueryRowContext(ctx, query).Scan(&summary.OutstandingBalance, &summary.CompletedPaymentsSum); err != nil {
		return nil, fmt.Errorf("summing balances: %w", err)
	}

	return &summary, nil
}

// balanceBearingStatuses are the loan states whose remaining_balance
// has been seeded and can therefore drift. Approval seeds the balance,
// so approved loans are checked before they ever activate.
var balanceBearingStatuses = []string{"approved", "active", "completed", "overdue"}

// DriftedLoans compares each balance-bearing loan's persisted balance
// against the from-scratch computation. Read-only: the reconcile
// operation on the loan service is the repair path.
func (s *Store) DriftedLoans(ctx context.Context) ([]report.Drift, error) {
	query := `
		SELECT l.id,
			l.remaining_balance,
			COALESCE(l.approved_amount, l.loan_amount) - COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'completed'), 0) AS expected
		FROM loans l
		LEFT JOIN payments p ON p.loan_id = l.id
		WHERE l.status = ANY($1)
		GROUP BY l.id
		HAVING l.remaining_balance <> COALESCE(l.approved_amount, l.loan_amount) - COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'completed'), 0)
		ORDER BY l.id
	`

	rows, err := s.db.QueryContext(ctx, query, balanceBearingStatuses)
	if err != nil {
		return nil, fmt.Errorf("querying drifted loans: %w", err)
	}
	defer rows.Close()

	var drifted []report.Drift

	for rows.Next() {
		var d report.Drift

		if err := rows.Scan(&d.LoanID, &d.RemainingBalance, &d.ExpectedBalance); err != nil {
			return nil, fmt.Errorf("scanning drifted loan: %w", err)
		}

		d.Drift = d.RemainingBalance.Sub(d.ExpectedBalance)
		drifted = append(drifted, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drifted loans: %w", err)
	}

	return drifted, nil
}
