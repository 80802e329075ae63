// Package events defines the payment lifecycle events emitted on the bus.
package events

import (
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is anything that can travel on the event bus.
type Event interface {
	Type() string
}

const (
	TypePaymentInitiated     = "payment.initiated"
	TypePaymentStatusChanged = "payment.status_changed"
	TypeRefundProcessed      = "payment.refund_processed"
	TypeWebhookReceived      = "payment.webhook_received"
)

// PaymentInitiated is emitted when a transaction row is created.
type PaymentInitiated struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Reference     string          `json:"reference"`
	UserID        uuid.UUID       `json:"user_id"`
	Method        payment.Method  `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func (PaymentInitiated) Type() string { return TypePaymentInitiated }

// PaymentStatusChanged is emitted on every status transition.
type PaymentStatusChanged struct {
	Reference  string         `json:"reference"`
	Method     payment.Method `json:"method"`
	From       payment.Status `json:"from"`
	To         payment.Status `json:"to"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (PaymentStatusChanged) Type() string { return TypePaymentStatusChanged }

// RefundProcessed is emitted when a refund is accepted or settled.
type RefundProcessed struct {
	OriginalReference string          `json:"original_reference"`
	RefundReference   string          `json:"refund_reference"`
	Method            payment.Method  `json:"method"`
	Amount            decimal.Decimal `json:"amount"`
	Status            payment.Status  `json:"status"`
	OccurredAt        time.Time       `json:"occurred_at"`
}

func (RefundProcessed) Type() string { return TypeRefundProcessed }

// WebhookReceived is emitted after a webhook has been handled.
type WebhookReceived struct {
	Method     payment.Method `json:"method"`
	Outcome    string         `json:"outcome"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (WebhookReceived) Type() string { return TypeWebhookReceived }

// Factories builds empty events by type, for decoding from a broker.
func Factories() map[string]func() Event {
	return map[string]func() Event{
		TypePaymentInitiated:     func() Event { return &PaymentInitiated{} },
		TypePaymentStatusChanged: func() Event { return &PaymentStatusChanged{} },
		TypeRefundProcessed:      func() Event { return &RefundProcessed{} },
		TypeWebhookReceived:      func() Event { return &WebhookReceived{} },
	}
}
