// Package ledger holds the balance rule for loans: a loan's remaining
// balance always equals its principal minus the sum of its completed
// payments. Every write path computes its balance delta here; the SQL
// stores only apply what this package hands them.
package ledger

import (
	"github.com/shopspring/decimal"
)

// Status is a payment's lifecycle state as seen by the ledger. Only
// completed payments count against a loan's balance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}

	return false
}

// Counted reports whether a payment in this status affects the balance.
func (s Status) Counted() bool {
	return s == StatusCompleted
}

// ValidateAmount rejects non-positive amounts and amounts with more than
// two fractional digits. The check compares values, not representations:
// "10.100" is exactly 10.10 and passes. Currency math is exact decimal
// throughout.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidAmount
	}

	return nil
}

// CreationDelta is the balance adjustment for inserting a payment.
// A completed payment reduces the balance by its amount; pending and
// failed payments have no effect yet.
func CreationDelta(amount decimal.Decimal, status Status) decimal.Decimal {
	if !status.Counted() {
		return decimal.Zero
	}

	return amount.Neg()
}

// UpdateDelta is the net balance adjustment for changing a payment from
// (oldAmount, oldStatus) to (newAmount, newStatus): reverse the old
// effect if it was counted, then apply the new effect if it is counted.
// Both status and amount are always evaluated; a status-only change with
// an identical amount still reverses or applies the full effect.
func UpdateDelta(oldAmount, newAmount decimal.Decimal, oldStatus, newStatus Status) decimal.Decimal {
	delta := decimal.Zero

	if oldStatus.Counted() {
		delta = delta.Add(oldAmount)
	}

	if newStatus.Counted() {
		delta = delta.Sub(newAmount)
	}

	return delta
}

// DeletionDelta is the balance adjustment for removing a payment:
// deleting a completed payment returns its amount to the balance.
func DeletionDelta(amount decimal.Decimal, status Status) decimal.Decimal {
	if !status.Counted() {
		return decimal.Zero
	}

	return amount
}
