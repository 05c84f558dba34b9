package loan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rmacedo/loanbook/internal/ledger"
	"github.com/rmacedo/loanbook/internal/loan"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}

	return d
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    loan.CreateParams
		setupMock func(m *loan.MockRepository)
		wantErr   error
	}

	clientID := uuid.New()

	tests := []testCase{
		{
			name: "Success",
			params: loan.CreateParams{
				ClientID:     clientID,
				LoanAmount:   dec("10000.00"),
				InterestRate: dec("12.50"),
				TermMonths:   24,
			},
			setupMock: func(m *loan.MockRepository) {
				m.EXPECT().
					CreateLoan(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, l *loan.Loan) error {
						l.ID = uuid.New()
						l.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name: "ZeroAmountRejected",
			params: loan.CreateParams{
				ClientID:   clientID,
				LoanAmount: dec("0"),
				TermMonths: 24,
			},
			wantErr: ledger.ErrInvalidAmount,
		},
		{
			name: "ZeroTermRejected",
			params: loan.CreateParams{
				ClientID:   clientID,
				LoanAmount: dec("10000.00"),
				TermMonths: 0,
			},
			wantErr: errAnyValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := loan.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := loan.NewService(repo)
			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)

				if tt.wantErr != errAnyValidation {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, loan.StatusPending, got.Status)
			assert.True(t, got.RemainingBalance.IsZero())
		})
	}
}

// errAnyValidation marks cases where any validation failure is accepted.
var errAnyValidation = assert.AnError

func TestService_Approve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := loan.NewMockRepository(ctrl)

	id := uuid.New()
	approved := dec("9000.00")

	repo.EXPECT().
		ApproveLoan(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, loanID uuid.UUID, amount decimal.Decimal) (*loan.Loan, error) {
			assert.True(t, amount.Equal(approved))

			return &loan.Loan{
				ID:               loanID,
				ApprovedAmount:   &amount,
				Status:           loan.StatusApproved,
				RemainingBalance: amount,
			}, nil
		})

	svc := loan.NewService(repo)

	l, err := svc.Approve(context.Background(), id, approved)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusApproved, l.Status)
	assert.True(t, l.RemainingBalance.Equal(approved), "approval must seed the balance")
}

func TestService_Approve_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := loan.NewMockRepository(ctrl)
	svc := loan.NewService(repo)

	_, err := svc.Approve(context.Background(), uuid.New(), dec("-1.00"))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestService_Reconcile(t *testing.T) {
	type testCase struct {
		name  string
		rec   *loan.Reconciliation
		drift string
	}

	id := uuid.New()

	tests := []testCase{
		{
			name: "ConsistentBalance",
			rec: &loan.Reconciliation{
				LoanID:       id,
				PriorBalance: dec("7500.00"),
				Balance:      dec("7500.00"),
				Drift:        dec("0"),
				Status:       loan.StatusActive,
			},
			drift: "0",
		},
		{
			name: "DriftRepairedAndReported",
			rec: &loan.Reconciliation{
				LoanID:       id,
				PriorBalance: dec("7600.00"),
				Balance:      dec("7500.00"),
				Drift:        dec("100.00"),
				Status:       loan.StatusActive,
			},
			drift: "100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := loan.NewMockRepository(ctrl)
			repo.EXPECT().RecomputeBalance(gomock.Any(), id).Return(tt.rec, nil)

			svc := loan.NewService(repo)

			rec, err := svc.Reconcile(context.Background(), id)
			require.NoError(t, err)
			assert.True(t, rec.Drift.Equal(dec(tt.drift)))

			if tt.drift == "0" {
				assert.NoError(t, rec.Err())
			} else {
				assert.ErrorIs(t, rec.Err(), ledger.ErrBalanceDrift)
			}
		})
	}
}

// Reconciling twice without intervening payment changes yields identical
// results: the recompute writes the same value it computed the first
// time.
func TestService_Reconcile_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	settled := &loan.Reconciliation{
		LoanID:       id,
		PriorBalance: dec("7500.00"),
		Balance:      dec("7500.00"),
		Drift:        dec("0"),
		Status:       loan.StatusActive,
	}

	repo := loan.NewMockRepository(ctrl)
	repo.EXPECT().RecomputeBalance(gomock.Any(), id).Return(settled, nil).Times(2)

	svc := loan.NewService(repo)

	first, err := svc.Reconcile(context.Background(), id)
	require.NoError(t, err)

	second, err := svc.Reconcile(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, first.Balance.Equal(second.Balance))
	assert.True(t, second.Drift.IsZero())
}

func TestService_Activate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	repo := loan.NewMockRepository(ctrl)
	repo.EXPECT().
		ActivateLoan(gomock.Any(), id, start).
		Return(&loan.Loan{ID: id, Status: loan.StatusActive, StartDate: &start}, nil)

	svc := loan.NewService(repo)

	l, err := svc.Activate(context.Background(), id, start)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusActive, l.Status)
}

func TestLoan_Principal(t *testing.T) {
	l := loan.Loan{LoanAmount: dec("10000.00")}
	assert.True(t, l.Principal().Equal(dec("10000.00")))

	approved := dec("9000.00")
	l.ApprovedAmount = &approved
	assert.True(t, l.Principal().Equal(approved))
}
