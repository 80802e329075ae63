package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a user's internal balance.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   decimal.Decimal
	Currency  string
	UpdatedAt time.Time
}

// Covers reports whether the balance can pay amount.
func (w *Wallet) Covers(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// ExchangeRate is one row of the rate table: the USD value of one unit of
// Symbol.
type ExchangeRate struct {
	Symbol    string
	USDRate   decimal.Decimal
	Source    string
	UpdatedAt time.Time
}
