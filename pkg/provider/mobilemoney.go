package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MoMoCredentials addresses one mobile money collection account.
type MoMoCredentials struct {
	Endpoint        string
	APIKey          string
	SubscriptionKey string
	Environment     string
	CallbackURL     string
	Timeout         time.Duration
}

// RequestToPay asks a subscriber to approve a debit.
type RequestToPay struct {
	ReferenceID  string
	ExternalID   string
	Amount       decimal.Decimal
	Currency     string
	PayerMSISDN  string
	PayerMessage string
	PayeeNote    string
}

// RequestToPayStatus is the provider's view of a collection.
type RequestToPayStatus struct {
	ReferenceID            string
	ExternalID             string
	Status                 string
	FinancialTransactionID string
	Reason                 string
	Raw                    map[string]any
}

// MoMoRefund returns money for a settled collection.
type MoMoRefund struct {
	ReferenceID         string
	ReferenceIDToRefund string
	ExternalID          string
	Amount              decimal.Decimal
	Currency            string
	PayerMessage        string
	PayeeNote           string
}

// MobileMoney is a mobile money collections API.
type MobileMoney interface {
	RequestToPay(ctx context.Context, creds MoMoCredentials, req RequestToPay) error
	RequestToPayStatus(ctx context.Context, creds MoMoCredentials, referenceID string) (*RequestToPayStatus, error)
	Refund(ctx context.Context, creds MoMoCredentials, req MoMoRefund) error
}
