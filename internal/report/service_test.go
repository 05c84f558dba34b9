package report_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/report"
)

// Mock Repository
type mockRepo struct {
	summaryFunc      func(ctx context.Context) (*report.Summary, error)
	driftedLoansFunc func(ctx context.Context) ([]report.Drift, error)
}

func (m *mockRepo) Summary(ctx context.Context) (*report.Summary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx)
	}

	return &report.Summary{}, nil
}

func (m *mockRepo) DriftedLoans(ctx context.Context) ([]report.Drift, error) {
	if m.driftedLoansFunc != nil {
		return m.driftedLoansFunc(ctx)
	}

	return nil, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}

	return d
}

func TestService_Summary(t *testing.T) {
	repo := &mockRepo{
		summaryFunc: func(_ context.Context) (*report.Summary, error) {
			return &report.Summary{
				TotalClients:         3,
				LoansByStatus:        map[string]int{"active": 2, "pending": 1},
				OutstandingBalance:   dec("17500.00"),
				CompletedPaymentsSum: dec("2500.00"),
			}, nil
		},
	}

	svc := report.NewService(repo)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalClients)
	assert.Equal(t, 2, s.LoansByStatus["active"])
	assert.True(t, s.OutstandingBalance.Equal(dec("17500.00")))
}

func TestService_CheckDrift(t *testing.T) {
	driftedID := uuid.New()

	repo := &mockRepo{
		driftedLoansFunc: func(_ context.Context) ([]report.Drift, error) {
			return []report.Drift{
				{
					LoanID:           driftedID,
					RemainingBalance: dec("7600.00"),
					ExpectedBalance:  dec("7500.00"),
					Drift:            dec("100.00"),
				},
			}, nil
		},
	}

	svc := report.NewService(repo)

	drifted, err := svc.CheckDrift(context.Background())
	require.NoError(t, err)
	require.Len(t, drifted, 1)
	assert.Equal(t, driftedID, drifted[0].LoanID)
	assert.True(t, drifted[0].Drift.Equal(dec("100.00")))
	assert.ErrorIs(t, drifted[0].Err(), ledger.ErrBalanceDrift)
}

func TestService_CheckDrift_CleanBooks(t *testing.T) {
	svc := report.NewService(&mockRepo{})

	drifted, err := svc.CheckDrift(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifted)
}

func TestService_CheckDrift_RepoError(t *testing.T) {
	repo := &mockRepo{
		driftedLoansFunc: func(_ context.Context) ([]report.Drift, error) {
			return nil, errors.New("db error")
		},
	}

	svc := report.NewService(repo)

	_, err := svc.CheckDrift(context.Background())
	assert.Error(t, err)
}
