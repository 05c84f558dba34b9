package report

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/ledger"
)

// Summary is the portfolio-level aggregate view. All balance figures are
// read from the persisted loan rows, never recomputed here.
type Summary struct {
	TotalClients         int
	LoansByStatus        map[string]int
	OutstandingBalance   decimal.Decimal
	CompletedPaymentsSum decimal.Decimal
}

// Drift is a loan whose persisted balance disagrees with the sum of its
// completed payments. Reporting only detects; repair is the loan
// service's reconcile operation.
type Drift struct {
	LoanID           uuid.UUID
	RemainingBalance decimal.Decimal
	ExpectedBalance  decimal.Decimal
	Drift            decimal.Decimal
}

// Err is the typed failure this row represents, always
// ledger.ErrBalanceDrift: a Drift only exists for a loan whose
// persisted balance diverged.
func (d *Drift) Err() error {
	return ledger.ErrBalanceDrift
}
