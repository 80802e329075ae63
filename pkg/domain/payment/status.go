package payment

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// IsTerminal reports whether no further provider-driven transition is expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusExpired, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// MapProviderStatus translates a provider status code into a Status.
// Unknown codes keep the transaction pending.
func MapProviderStatus(code string) Status {
	switch code {
	case "SUCCESSFUL", "SUCCESS", "COMPLETED", "completed":
		return StatusCompleted
	case "FAILED", "REJECTED", "failed":
		return StatusFailed
	case "EXPIRED", "TIMEOUT", "expired":
		return StatusExpired
	case "CANCELLED", "cancelled":
		return StatusCancelled
	default:
		return StatusPending
	}
}

// TransactionType classifies what a transaction pays for.
type TransactionType string

const (
	TypePayment      TransactionType = "payment"
	TypeAdPromotion  TransactionType = "ad_promotion"
	TypeListingFee   TransactionType = "listing_fee"
	TypeSubscription TransactionType = "subscription"
	TypeRefund       TransactionType = "refund"
)
