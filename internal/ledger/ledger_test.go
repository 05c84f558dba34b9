package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacedo/loanbook/internal/ledger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}

	return d
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "PositiveWholeAmount", amount: "2500"},
		{name: "PositiveTwoDecimals", amount: "2500.75"},
		{name: "SmallestUnit", amount: "0.01"},
		{name: "TrailingZerosAreStillCents", amount: "10.100"},
		{name: "LongZeroTail", amount: "2500.750000"},
		{name: "Zero", amount: "0", wantErr: true},
		{name: "Negative", amount: "-10.00", wantErr: true},
		{name: "SubCentPrecision", amount: "10.005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.ValidateAmount(dec(tt.amount))

			if tt.wantErr {
				assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestStatus(t *testing.T) {
	assert.True(t, ledger.StatusPending.Valid())
	assert.True(t, ledger.StatusCompleted.Valid())
	assert.True(t, ledger.StatusFailed.Valid())
	assert.False(t, ledger.Status("refunded").Valid())

	assert.True(t, ledger.StatusCompleted.Counted())
	assert.False(t, ledger.StatusPending.Counted())
	assert.False(t, ledger.StatusFailed.Counted())
}

func TestCreationDelta(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		status ledger.Status
		want   string
	}{
		{name: "CompletedReducesBalance", amount: "2500.00", status: ledger.StatusCompleted, want: "-2500.00"},
		{name: "PendingHasNoEffect", amount: "2500.00", status: ledger.StatusPending, want: "0"},
		{name: "FailedHasNoEffect", amount: "2500.00", status: ledger.StatusFailed, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.CreationDelta(dec(tt.amount), tt.status)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestUpdateDelta(t *testing.T) {
	tests := []struct {
		name      string
		oldAmount string
		newAmount string
		oldStatus ledger.Status
		newStatus ledger.Status
		want      string
	}{
		{
			name:      "AmountChangeWhileCompleted",
			oldAmount: "2500.00", newAmount: "3000.00",
			oldStatus: ledger.StatusCompleted, newStatus: ledger.StatusCompleted,
			want: "-500.00",
		},
		{
			name:      "StatusOnlyToggleToFailed",
			oldAmount: "3000.00", newAmount: "3000.00",
			oldStatus: ledger.StatusCompleted, newStatus: ledger.StatusFailed,
			want: "3000.00",
		},
		{
			name:      "StatusOnlyToggleToCompleted",
			oldAmount: "3000.00", newAmount: "3000.00",
			oldStatus: ledger.StatusFailed, newStatus: ledger.StatusCompleted,
			want: "-3000.00",
		},
		{
			name:      "NeitherSideCounted",
			oldAmount: "100.00", newAmount: "900.00",
			oldStatus: ledger.StatusPending, newStatus: ledger.StatusFailed,
			want: "0",
		},
		{
			name:      "PendingBecomesCompleted",
			oldAmount: "100.00", newAmount: "150.00",
			oldStatus: ledger.StatusPending, newStatus: ledger.StatusCompleted,
			want: "-150.00",
		},
		{
			name:      "CompletedBecomesPending",
			oldAmount: "150.00", newAmount: "150.00",
			oldStatus: ledger.StatusCompleted, newStatus: ledger.StatusPending,
			want: "150.00",
		},
		{
			name:      "NoChangeAtAll",
			oldAmount: "150.00", newAmount: "150.00",
			oldStatus: ledger.StatusCompleted, newStatus: ledger.StatusCompleted,
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.UpdateDelta(dec(tt.oldAmount), dec(tt.newAmount), tt.oldStatus, tt.newStatus)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDeletionDelta(t *testing.T) {
	got := ledger.DeletionDelta(dec("2500.00"), ledger.StatusCompleted)
	assert.True(t, got.Equal(dec("2500.00")))

	got = ledger.DeletionDelta(dec("2500.00"), ledger.StatusPending)
	assert.True(t, got.IsZero())
}

// The create/toggle/delete sequence from the loan workflow must net to
// zero: creating a completed payment, flipping it to failed, flipping it
// back, and deleting it leaves the balance exactly where it started.
func TestDeltaSymmetry(t *testing.T) {
	balance := dec("10000.00")
	amount := dec("2500.00")

	balance = balance.Add(ledger.CreationDelta(amount, ledger.StatusCompleted))
	require.True(t, balance.Equal(dec("7500.00")))

	balance = balance.Add(ledger.UpdateDelta(amount, dec("3000.00"), ledger.StatusCompleted, ledger.StatusCompleted))
	require.True(t, balance.Equal(dec("7000.00")))

	balance = balance.Add(ledger.UpdateDelta(dec("3000.00"), dec("3000.00"), ledger.StatusCompleted, ledger.StatusFailed))
	require.True(t, balance.Equal(dec("10000.00")))

	balance = balance.Add(ledger.UpdateDelta(dec("3000.00"), dec("3000.00"), ledger.StatusFailed, ledger.StatusCompleted))
	require.True(t, balance.Equal(dec("7000.00")))

	balance = balance.Add(ledger.DeletionDelta(dec("3000.00"), ledger.StatusCompleted))
	require.True(t, balance.Equal(dec("10000.00")))
}
