package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitiateRequest asks a processor to start a payment.
type InitiateRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Type        TransactionType
	ListingID   *uuid.UUID
	Description string
	PhoneNumber string
	CryptoType  string
	Tier        Tier
	Metadata    map[string]any
}

// Normalize fills defaults for currency, type and tier.
func (r *InitiateRequest) Normalize() {
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	r.Currency = strings.ToUpper(r.Currency)
	if r.Type == "" {
		r.Type = TypePayment
	}
	if r.Tier == "" {
		r.Tier = TierBasic
	}
	r.CryptoType = strings.ToUpper(strings.TrimSpace(r.CryptoType))
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

// Validate checks fields every method needs.
func (r InitiateRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return ValidationError("user id is required")
	}
	if !r.Amount.IsPositive() {
		return ValidationError("amount must be positive")
	}
	return nil
}

// BankDetails tells the payer where to transfer.
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	SwiftCode     string `json:"swiftCode,omitempty"`
	Reference     string `json:"reference"`
}

// CryptoDetails tells the payer what to send and where.
type CryptoDetails struct {
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	WalletAddress string          `json:"walletAddress"`
	QRCode        string          `json:"qrCode"`
	USDAmount     decimal.Decimal `json:"usdAmount"`
	RateMode      string          `json:"rateMode"`
}

// Instructions are shown to the payer after initiation.
type Instructions struct {
	Message string         `json:"message"`
	Bank    *BankDetails   `json:"bank,omitempty"`
	Crypto  *CryptoDetails `json:"crypto,omitempty"`
}

// InitResult is the outcome of Initiate.
type InitResult struct {
	Success           bool             `json:"success"`
	TransactionID     string           `json:"transactionId,omitempty"`
	Reference         string           `json:"reference,omitempty"`
	ProviderReference string           `json:"providerReference,omitempty"`
	Status            Status           `json:"status,omitempty"`
	Fee               *decimal.Decimal `json:"fee,omitempty"`
	Instructions      *Instructions    `json:"instructions,omitempty"`
	ExpiresAt         *time.Time       `json:"expiresAt,omitempty"`
	Error             string           `json:"error,omitempty"`
	NotImplemented    bool             `json:"notImplemented,omitempty"`
}

// VerificationResult is the outcome of Verify.
type VerificationResult struct {
	Success        bool           `json:"success"`
	Reference      string         `json:"reference,omitempty"`
	Status         Status         `json:"status,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	Error          string         `json:"error,omitempty"`
	NotImplemented bool           `json:"notImplemented,omitempty"`
}

// RefundRequest asks for (part of) a completed transaction to be returned.
// A nil Amount refunds the whole transaction.
type RefundRequest struct {
	Reference   string
	Amount      *decimal.Decimal
	Reason      string
	ProcessedBy *uuid.UUID
}

// RefundResult is the outcome of Refund.
type RefundResult struct {
	Success             bool   `json:"success"`
	RefundTransactionID string `json:"refundTransactionId,omitempty"`
	Status              Status `json:"status,omitempty"`
	Error               string `json:"error,omitempty"`
	NotImplemented      bool   `json:"notImplemented,omitempty"`
}

// PublicMessage is the caller-facing text for err. Provider and storage
// internals are replaced by a generic message.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProvider):
		return "payment provider request failed, please try again"
	case errors.Is(err, ErrPersistence):
		return "could not record the payment, please try again"
	case errors.Is(err, ErrConflict):
		return "the payment could not be processed concurrently, please retry"
	}
	return err.Error()
}

// InitFailure converts err into a failed InitResult.
func InitFailure(err error) InitResult {
	return InitResult{
		Success:        false,
		Error:          PublicMessage(err),
		NotImplemented: errors.Is(err, ErrNotImplemented),
	}
}

// VerifyFailure converts err into a failed VerificationResult.
func VerifyFailure(reference string, err error) VerificationResult {
	return VerificationResult{
		Success:        false,
		Reference:      reference,
		Error:          PublicMessage(err),
		NotImplemented: errors.Is(err, ErrNotImplemented),
	}
}

// RefundFailure converts err into a failed RefundResult.
func RefundFailure(err error) RefundResult {
	return RefundResult{
		Success:        false,
		Error:          PublicMessage(err),
		NotImplemented: errors.Is(err, ErrNotImplemented),
	}
}
