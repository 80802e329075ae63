package payment

// InitiatePaymentRequest is the body of POST /api/payments/:method.
type InitiatePaymentRequest struct {
	Amount      string         `json:"amount" validate:"required,numeric"`
	Currency    string         `json:"currency" validate:"omitempty,len=3,alpha"`
	Type        string         `json:"type" validate:"omitempty,oneof=payment ad_promotion listing_fee subscription"`
	ListingID   string         `json:"listing_id" validate:"omitempty,uuid"`
	Description string         `json:"description" validate:"max=500"`
	PhoneNumber string         `json:"phone_number" validate:"max=32"`
	CryptoType  string         `json:"crypto_type" validate:"omitempty,alpha,max=10"`
	Metadata    map[string]any `json:"metadata"`
}

// RefundPaymentRequest is the body of POST /api/payments/:method/refunds.
type RefundPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
	Amount    string `json:"amount" validate:"omitempty,numeric"`
	Reason    string `json:"reason" validate:"max=500"`
}
