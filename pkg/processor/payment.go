// Package processor implements the per-method payment processors and the
// registry that resolves a method tag to one.
package processor

import (
	"context"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
)

// Processor is implemented by every payment method.
//
// Initiate, Verify and Refund never return an error: failures are reported
// in the result. ProcessWebhook returns its error so the caller can answer
// the provider with a non-2xx status.
type Processor interface {
	Method() payment.Method
	Initiate(ctx context.Context, req payment.InitiateRequest) payment.InitResult
	Verify(ctx context.Context, reference string) payment.VerificationResult
	ProcessWebhook(ctx context.Context, hook payment.Webhook) error
	Refund(ctx context.Context, req payment.RefundRequest) payment.RefundResult
}
