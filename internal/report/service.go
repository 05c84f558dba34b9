package report

import (
	"context"
	"log/slog"

	"github.com/rmacedo/loanbook/internal/metrics"
)

type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
	DriftedLoans(ctx context.Context) ([]Drift, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.repo.Summary(ctx)
}

// CheckDrift lists loans whose persisted balance has diverged from their
// payment history. Every hit is an invariant violation worth an
// operator's attention, so each one is logged as well as returned.
func (s *Service) CheckDrift(ctx context.Context) ([]Drift, error) {
	drifted, err := s.repo.DriftedLoans(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range drifted {
		metrics.BalanceDrift.Inc()
		slog.Error("balance drift detected",
			"error", d.Err(),
			"loan_id", d.LoanID,
			"remaining_balance", d.RemainingBalance.StringFixed(2),
			"expected_balance", d.ExpectedBalance.StringFixed(2),
			"drift", d.Drift.StringFixed(2),
		)
	}

	return drifted, nil
}
