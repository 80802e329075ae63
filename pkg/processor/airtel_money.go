package processor

import (
	"context"
	"log/slog"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/metrics"
)

// AirtelMoney validates requests but has no provider integration yet.
type AirtelMoney struct {
	*Base
	logger *slog.Logger
}

// NewAirtelMoney creates the Airtel Money processor.
func NewAirtelMoney(base *Base) *AirtelMoney {
	return &AirtelMoney{Base: base, logger: base.logger.With("processor", payment.MethodAirtelMoney)}
}

func (p *AirtelMoney) Method() payment.Method { return payment.MethodAirtelMoney }

// Initiate runs the usual checks and then reports NotImplemented without
// creating a transaction.
func (p *AirtelMoney) Initiate(ctx context.Context, req payment.InitiateRequest) payment.InitResult {
	req.Normalize()
	if err := p.precheck(ctx, req); err != nil {
		metrics.PaymentsInitiated.WithLabelValues(string(p.Method()), "failure").Inc()
		return payment.InitFailure(err)
	}
	metrics.PaymentsInitiated.WithLabelValues(string(p.Method()), "not_implemented").Inc()
	return payment.InitFailure(payment.NotImplementedError(p.Method(), "initiate"))
}

func (p *AirtelMoney) precheck(ctx context.Context, req payment.InitiateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := normalizeMSISDN(req.PhoneNumber); err != nil {
		return err
	}
	if _, err := p.GetPaymentConfig(ctx, p.Method()); err != nil {
		return err
	}
	return p.CheckPaymentLimits(ctx, req.UserID, p.Method(), req.Amount, req.Tier)
}

func (p *AirtelMoney) Verify(_ context.Context, reference string) payment.VerificationResult {
	return payment.VerifyFailure(reference, payment.NotImplementedError(p.Method(), "verify"))
}

func (p *AirtelMoney) ProcessWebhook(ctx context.Context, hook payment.Webhook) error {
	return p.HandleWebhook(ctx, p.Method(), "callback", hook, func(context.Context) error {
		return payment.NotImplementedError(p.Method(), "webhook")
	})
}

func (p *AirtelMoney) Refund(_ context.Context, _ payment.RefundRequest) payment.RefundResult {
	return payment.RefundFailure(payment.NotImplementedError(p.Method(), "refund"))
}

var _ Processor = (*AirtelMoney)(nil)
