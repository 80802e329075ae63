package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a request names none.
const DefaultCurrency = "RWF"

// DefaultTTL is how long a pending transaction may wait for settlement.
const DefaultTTL = 15 * time.Minute

// Transaction is one payment attempt.
type Transaction struct {
	ID                uuid.UUID
	Reference         string
	ProviderReference string
	UserID            uuid.UUID
	ListingID         *uuid.UUID
	Method            Method
	Amount            decimal.Decimal
	FeeAmount         decimal.Decimal
	Currency          string
	Type              TransactionType
	Status            Status
	Description       string
	Metadata          map[string]any
	ProviderResponse  map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
	ExpiresAt         time.Time
}

// IsExpired reports whether a pending transaction has outlived its window.
func (t *Transaction) IsExpired(now time.Time) bool {
	return t.Status == StatusPending && now.After(t.ExpiresAt)
}

// SetStatus moves the transaction to status, keeping CompletedAt set exactly
// when the status is completed.
func (t *Transaction) SetStatus(status Status, now time.Time) {
	t.Status = status
	t.UpdatedAt = now
	if status == StatusCompleted {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

// Total is the amount plus fees.
func (t *Transaction) Total() decimal.Decimal {
	return t.Amount.Add(t.FeeAmount)
}

// StatusUpdate is the persisted change produced by SetStatus.
type StatusUpdate struct {
	Status       Status
	CompletedAt  *time.Time
	ProviderData map[string]any
	UpdatedAt    time.Time
}

// NewStatusUpdate builds a StatusUpdate honouring the completed_at rule.
func NewStatusUpdate(status Status, providerData map[string]any, now time.Time) StatusUpdate {
	u := StatusUpdate{Status: status, ProviderData: providerData, UpdatedAt: now}
	if status == StatusCompleted {
		u.CompletedAt = &now
	}
	return u
}
