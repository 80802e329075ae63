package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund records a refund against an original transaction.
type Refund struct {
	ID                   uuid.UUID
	TransactionID        uuid.UUID
	TransactionReference string
	RefundReference      string
	ProviderReference    string
	Amount               decimal.Decimal
	Reason               string
	Status               Status
	ProcessedBy          *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
