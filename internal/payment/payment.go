package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmacedo/loanbook/internal/ledger"
)

// Method is how the money arrived.
type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodCheck        Method = "check"
	MethodMobileMoney  Method = "mobile_money"
)

// Payment is money received (or expected) against a loan. ClientID
// duplicates the owning loan's client for query convenience. Status is
// the ledger's view: only completed payments count against the balance.
type Payment struct {
	ID          uuid.UUID
	LoanID      uuid.UUID
	ClientID    uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      Method
	Status      ledger.Status
	Notes       string
	ProcessedBy *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
