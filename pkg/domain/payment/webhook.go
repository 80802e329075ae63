package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Webhook log statuses.
const (
	WebhookReceived  = "received"
	WebhookProcessed = "processed"
	WebhookFailed    = "failed"
)

// WebhookLog is the audit record of one inbound provider notification.
type WebhookLog struct {
	ID           uuid.UUID
	Method       Method
	EventType    string
	Payload      []byte
	Processed    bool
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// Webhook is an inbound provider notification.
type Webhook struct {
	Payload   []byte
	Signature string
}

// SignPayload returns the hex HMAC-SHA256 of payload under secret.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature reports whether signature is the hex HMAC-SHA256 of the
// payload under secret.
func (w Webhook) ValidSignature(secret string) bool {
	got, err := hex.DecodeString(w.Signature)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(SignPayload(secret, w.Payload))
	return hmac.Equal(want, got)
}
