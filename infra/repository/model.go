package repository

import (
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction is the payment_transactions row.
type Transaction struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Reference         string            `gorm:"type:varchar(64);uniqueIndex;not null"`
	ProviderReference *string           `gorm:"type:varchar(128);index"`
	UserID            uuid.UUID         `gorm:"type:uuid;index;not null"`
	ListingID         *uuid.UUID        `gorm:"type:uuid"`
	PaymentMethod     string            `gorm:"type:varchar(32);not null"`
	Amount            decimal.Decimal   `gorm:"type:decimal(20,8);not null"`
	FeeAmount         decimal.Decimal   `gorm:"type:decimal(20,8);not null"`
	Currency          string            `gorm:"type:varchar(8);not null"`
	TransactionType   string            `gorm:"type:varchar(32);not null"`
	Status            string            `gorm:"type:varchar(16);index;not null"`
	Description       string            `gorm:"type:text"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb"`
	ProviderResponse  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
	ExpiresAt         time.Time `gorm:"index;not null"`
}

func (Transaction) TableName() string { return "payment_transactions" }

// PaymentConfiguration is the payment_configurations row.
type PaymentConfiguration struct {
	ID            uuid.UUID                            `gorm:"type:uuid;primaryKey"`
	PaymentMethod string                               `gorm:"type:varchar(32);uniqueIndex;not null"`
	ConfigData    datatypes.JSONType[payment.ConfigData] `gorm:"type:jsonb"`
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PaymentConfiguration) TableName() string { return "payment_configurations" }

// MethodLimit is the payment_method_limits row.
type MethodLimit struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PaymentMethod string          `gorm:"type:varchar(32);uniqueIndex:idx_method_tier;not null"`
	UserTier      string          `gorm:"type:varchar(16);uniqueIndex:idx_method_tier;not null"`
	MinAmount     decimal.Decimal `gorm:"type:decimal(20,8)"`
	MaxAmount     decimal.Decimal `gorm:"type:decimal(20,8)"`
	DailyLimit    decimal.Decimal `gorm:"type:decimal(20,8)"`
	MonthlyLimit  decimal.Decimal `gorm:"type:decimal(20,8)"`
}

func (MethodLimit) TableName() string { return "payment_method_limits" }

// Wallet is the wallets row.
type Wallet struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Currency  string          `gorm:"type:varchar(8);not null"`
	UpdatedAt time.Time
}

func (Wallet) TableName() string { return "wallets" }

// Refund is the payment_refunds row.
type Refund struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	TransactionReference string          `gorm:"type:varchar(64);not null"`
	RefundReference      *string         `gorm:"type:varchar(72)"`
	ProviderReference    *string         `gorm:"type:varchar(128)"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Reason               string          `gorm:"type:text"`
	Status               string          `gorm:"type:varchar(16);not null"`
	ProcessedBy          *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Refund) TableName() string { return "payment_refunds" }

// WebhookLog is the payment_webhook_logs row.
type WebhookLog struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	PaymentMethod string         `gorm:"type:varchar(32);index;not null"`
	EventType     string         `gorm:"type:varchar(64)"`
	Payload       datatypes.JSON `gorm:"type:jsonb"`
	Processed     bool
	Status        string `gorm:"type:varchar(16);not null"`
	ErrorMessage  string `gorm:"type:text"`
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

func (WebhookLog) TableName() string { return "payment_webhook_logs" }

// ExchangeRate is the exchange_rates row.
type ExchangeRate struct {
	Symbol    string          `gorm:"type:varchar(16);primaryKey"`
	USDRate   decimal.Decimal `gorm:"column:usd_rate;type:decimal(30,12);not null"`
	Source    string          `gorm:"type:varchar(64)"`
	UpdatedAt time.Time
}

func (ExchangeRate) TableName() string { return "exchange_rates" }

// Models lists every table, in dependency order.
func Models() []any {
	return []any{
		&Transaction{},
		&PaymentConfiguration{},
		&MethodLimit{},
		&Wallet{},
		&Refund{},
		&WebhookLog{},
		&ExchangeRate{},
	}
}

// --- Mappers ---

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toTransactionModel(tx *payment.Transaction) *Transaction {
	return &Transaction{
		ID:                tx.ID,
		Reference:         tx.Reference,
		ProviderReference: optional(tx.ProviderReference),
		UserID:            tx.UserID,
		ListingID:         tx.ListingID,
		PaymentMethod:     string(tx.Method),
		Amount:            tx.Amount,
		FeeAmount:         tx.FeeAmount,
		Currency:          tx.Currency,
		TransactionType:   string(tx.Type),
		Status:            string(tx.Status),
		Description:       tx.Description,
		Metadata:          datatypes.JSONMap(tx.Metadata),
		ProviderResponse:  datatypes.JSONMap(tx.ProviderResponse),
		CreatedAt:         tx.CreatedAt,
		UpdatedAt:         tx.UpdatedAt,
		CompletedAt:       tx.CompletedAt,
		ExpiresAt:         tx.ExpiresAt,
	}
}

func (m *Transaction) toDomain() *payment.Transaction {
	return &payment.Transaction{
		ID:                m.ID,
		Reference:         m.Reference,
		ProviderReference: deref(m.ProviderReference),
		UserID:            m.UserID,
		ListingID:         m.ListingID,
		Method:            payment.Method(m.PaymentMethod),
		Amount:            m.Amount,
		FeeAmount:         m.FeeAmount,
		Currency:          m.Currency,
		Type:              payment.TransactionType(m.TransactionType),
		Status:            payment.Status(m.Status),
		Description:       m.Description,
		Metadata:          map[string]any(m.Metadata),
		ProviderResponse:  map[string]any(m.ProviderResponse),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		CompletedAt:       m.CompletedAt,
		ExpiresAt:         m.ExpiresAt,
	}
}

func (m *PaymentConfiguration) toDomain() *payment.Configuration {
	return &payment.Configuration{
		ID:        m.ID,
		Method:    payment.Method(m.PaymentMethod),
		Data:      m.ConfigData.Data(),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *MethodLimit) toDomain() *payment.MethodLimit {
	return &payment.MethodLimit{
		ID:           m.ID,
		Method:       payment.Method(m.PaymentMethod),
		Tier:         payment.Tier(m.UserTier),
		MinAmount:    m.MinAmount,
		MaxAmount:    m.MaxAmount,
		DailyLimit:   m.DailyLimit,
		MonthlyLimit: m.MonthlyLimit,
	}
}

func (m *Wallet) toDomain() *payment.Wallet {
	return &payment.Wallet{
		ID:        m.ID,
		UserID:    m.UserID,
		Balance:   m.Balance,
		Currency:  m.Currency,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *ExchangeRate) toDomain() *payment.ExchangeRate {
	return &payment.ExchangeRate{
		Symbol:    m.Symbol,
		USDRate:   m.USDRate,
		Source:    m.Source,
		UpdatedAt: m.UpdatedAt,
	}
}
