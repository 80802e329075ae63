package payment

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Exchange rate modes for crypto conversion.
const (
	RateModeManual = "manual"
	RateModeLive   = "live"
)

// ConfigData is the per-method provider configuration blob.
type ConfigData struct {
	APIKey             string                     `json:"api_key,omitempty"`
	SubscriptionKey    string                     `json:"subscription_key,omitempty"`
	APIEndpoint        string                     `json:"api_endpoint,omitempty"`
	Environment        string                     `json:"environment,omitempty"`
	FeePercentage      decimal.Decimal            `json:"fee_percentage"`
	FixedFee           decimal.Decimal            `json:"fixed_fee"`
	CallbackURL        string                     `json:"callback_url,omitempty"`
	WebhookSecret      string                     `json:"webhook_secret,omitempty"`
	BankName           string                     `json:"bank_name,omitempty"`
	AccountName        string                     `json:"account_name,omitempty"`
	AccountNumber      string                     `json:"account_number,omitempty"`
	SwiftCode          string                     `json:"swift_code,omitempty"`
	EnabledCryptos     []string                   `json:"enabled_cryptos,omitempty"`
	WalletAddresses    map[string]string          `json:"wallet_addresses,omitempty"`
	ExchangeRateMode   string                     `json:"exchange_rate_mode,omitempty"`
	ManualExchangeRate decimal.Decimal            `json:"manual_exchange_rate"`
	ManualCryptoPrices map[string]decimal.Decimal `json:"manual_crypto_prices,omitempty"`
}

// Configuration is the stored configuration row of one method.
type Configuration struct {
	ID        uuid.UUID
	Method    Method
	Data      ConfigData
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CryptoEnabled reports whether symbol is accepted. An empty list enables
// SupportedCryptos.
func (d ConfigData) CryptoEnabled(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	if len(d.EnabledCryptos) == 0 {
		return slices.Contains(SupportedCryptos, symbol)
	}
	for _, c := range d.EnabledCryptos {
		if strings.EqualFold(c, symbol) {
			return true
		}
	}
	return false
}

// Fee computes the fee this configuration charges on amount.
func (d ConfigData) Fee(amount decimal.Decimal) decimal.Decimal {
	return CalculateFees(amount, d.FeePercentage, d.FixedFee)
}
