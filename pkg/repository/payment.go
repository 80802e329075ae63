package repository

import (
	"context"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lookups (Get*) return (nil, nil) for a missing row. Mutations on a missing
// row return payment.ErrNotFound.

// TransactionRepository persists payment transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *payment.Transaction) error
	GetByReference(ctx context.Context, reference string) (*payment.Transaction, error)
	GetByProviderReference(ctx context.Context, providerRef string) (*payment.Transaction, error)
	UpdateStatus(ctx context.Context, reference string, update payment.StatusUpdate) error
	SetProviderReference(ctx context.Context, reference, providerRef string) error
	// SumSince totals a user's completed transactions plus pending ones not
	// yet expired at now, created at or after since.
	SumSince(
		ctx context.Context,
		userID uuid.UUID,
		method payment.Method,
		since, now time.Time,
	) (decimal.Decimal, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*payment.Transaction, error)
}

// ConfigurationRepository reads per-method configuration rows.
type ConfigurationRepository interface {
	GetByMethod(ctx context.Context, method payment.Method) (*payment.Configuration, error)
	List(ctx context.Context) ([]*payment.Configuration, error)
}

// LimitRepository reads per-(method, tier) limits.
type LimitRepository interface {
	Get(ctx context.Context, method payment.Method, tier payment.Tier) (*payment.MethodLimit, error)
}

// WalletRepository reads and moves internal wallet balances.
type WalletRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*payment.Wallet, error)
	// Debit fails with payment.ErrInsufficientBalance when the balance does
	// not cover amount.
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// RefundRepository persists refund records.
type RefundRepository interface {
	Create(ctx context.Context, refund *payment.Refund) error
	// SumByTransaction totals refunds that have not failed.
	SumByTransaction(ctx context.Context, transactionID uuid.UUID) (decimal.Decimal, error)
}

// WebhookLogRepository persists webhook audit records.
type WebhookLogRepository interface {
	Create(ctx context.Context, log *payment.WebhookLog) error
	MarkProcessed(ctx context.Context, id uuid.UUID, success bool, errMsg string) error
}

// ExchangeRateRepository reads and writes the rate table.
type ExchangeRateRepository interface {
	Get(ctx context.Context, symbol string) (*payment.ExchangeRate, error)
	Upsert(ctx context.Context, rate *payment.ExchangeRate) error
}

// UnitOfWork gives repositories that share one transaction boundary.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error
	// DoSerializable runs fn at serializable isolation, retrying a bounded
	// number of times on serialization failures.
	DoSerializable(ctx context.Context, fn func(uow UnitOfWork) error) error

	Transactions() TransactionRepository
	Configurations() ConfigurationRepository
	Limits() LimitRepository
	Wallets() WalletRepository
	Refunds() RefundRepository
	WebhookLogs() WebhookLogRepository
	ExchangeRates() ExchangeRateRepository
}
