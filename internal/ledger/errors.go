package ledger

import "errors"

var (
	// ErrLoanNotFound means a balance delta was aimed at a loan that does
	// not exist; the payment mutation that produced the delta must be
	// rolled back with it.
	ErrLoanNotFound = errors.New("loan not found")

	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidAmount covers non-positive amounts and sub-cent precision.
	ErrInvalidAmount = errors.New("payment amount must be positive with at most two decimal places")

	ErrInvalidStatus = errors.New("invalid payment status")

	// ErrExceedsBalance means applying the delta would drive the loan's
	// remaining balance below zero. The whole operation is rejected.
	ErrExceedsBalance = errors.New("payment exceeds remaining balance")

	// ErrConflict means a concurrent writer held the loan row past the
	// transaction deadline. The caller may retry the whole operation.
	ErrConflict = errors.New("concurrent modification, retry")

	// ErrBalanceDrift means a persisted balance disagrees with the
	// from-scratch recomputation. It indicates a write path that bypassed
	// the ledger and is surfaced rather than silently corrected.
	ErrBalanceDrift = errors.New("persisted balance disagrees with payment history")
)
