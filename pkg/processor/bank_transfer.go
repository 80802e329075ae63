package processor

import (
	"context"
	"log/slog"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/metrics"
)

// BankTransfer records a pending transaction and hands the payer the
// account details. Settlement arrives through the reconciliation webhook.
type BankTransfer struct {
	*Base
	logger *slog.Logger
}

// NewBankTransfer creates the bank transfer processor.
func NewBankTransfer(base *Base) *BankTransfer {
	return &BankTransfer{Base: base, logger: base.logger.With("processor", payment.MethodBankTransfer)}
}

func (p *BankTransfer) Method() payment.Method { return payment.MethodBankTransfer }

func (p *BankTransfer) Initiate(ctx context.Context, req payment.InitiateRequest) payment.InitResult {
	req.Normalize()
	res, err := p.initiate(ctx, req)
	if err != nil {
		p.logger.Warn("initiate failed", "user_id", req.UserID, "error", err)
		metrics.PaymentsInitiated.WithLabelValues(string(p.Method()), "failure").Inc()
		return payment.InitFailure(err)
	}
	metrics.PaymentsInitiated.WithLabelValues(string(p.Method()), "success").Inc()
	return res
}

func (p *BankTransfer) initiate(ctx context.Context, req payment.InitiateRequest) (payment.InitResult, error) {
	if err := req.Validate(); err != nil {
		return payment.InitResult{}, err
	}
	cfg, err := p.GetPaymentConfig(ctx, p.Method())
	if err != nil {
		return payment.InitResult{}, err
	}
	if cfg.Data.AccountNumber == "" || cfg.Data.BankName == "" {
		return payment.InitResult{}, payment.ConfigurationError("bank account details are not set")
	}

	tx, err := p.ReserveTransaction(ctx, p.Method(), req, cfg, nil, nil)
	if err != nil {
		return payment.InitResult{}, err
	}
	return payment.InitResult{
		Success:       true,
		TransactionID: tx.ID.String(),
		Reference:     tx.Reference,
		Status:        payment.StatusPending,
		Fee:           &tx.FeeAmount,
		ExpiresAt:     &tx.ExpiresAt,
		Instructions: &payment.Instructions{
			Message: "Transfer " + tx.Total().String() + " " + tx.Currency +
				" and use the reference as the transfer narration.",
			Bank: &payment.BankDetails{
				BankName:      cfg.Data.BankName,
				AccountName:   cfg.Data.AccountName,
				AccountNumber: cfg.Data.AccountNumber,
				SwiftCode:     cfg.Data.SwiftCode,
				Reference:     tx.Reference,
			},
		},
	}, nil
}

// Verify expires stale transfers and otherwise reports NotImplemented with
// the stored status; transfers settle through the webhook.
func (p *BankTransfer) Verify(ctx context.Context, reference string) payment.VerificationResult {
	tx, done := p.Lookup(ctx, p.Method(), reference)
	if done != nil {
		return *done
	}
	res := payment.VerifyFailure(reference, payment.NotImplementedError(p.Method(), "verify"))
	res.Status = tx.Status
	return res
}

func (p *BankTransfer) ProcessWebhook(ctx context.Context, hook payment.Webhook) error {
	return p.HandleWebhook(ctx, p.Method(), "reconciliation", hook, func(ctx context.Context) error {
		return p.applyStatusCallback(ctx, p.Method(), hook)
	})
}

func (p *BankTransfer) Refund(_ context.Context, _ payment.RefundRequest) payment.RefundResult {
	return payment.RefundFailure(payment.NotImplementedError(p.Method(), "refund"))
}

var _ Processor = (*BankTransfer)(nil)
