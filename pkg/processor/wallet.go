package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
)

// Wallet settles payments from the user's internal balance synchronously.
type Wallet struct {
	*Base
	logger *slog.Logger
}

// NewWallet creates the wallet processor.
func NewWallet(base *Base) *Wallet {
	return &Wallet{Base: base, logger: base.logger.With("processor", payment.MethodWallet)}
}

func (p *Wallet) Method() payment.Method { return payment.MethodWallet }

// walletConfig returns the wallet configuration. A missing row means the
// wallet is on with no fees; an inactive row fails closed.
func (p *Wallet) walletConfig(ctx context.Context) (*payment.Configuration, error) {
	cfg, err := p.configs.Get(ctx, p.Method())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrConfiguration, err)
	}
	if cfg == nil {
		return &payment.Configuration{Method: p.Method(), IsActive: true}, nil
	}
	if !cfg.IsActive {
		return nil, payment.ConfigurationError("wallet is not active")
	}
	return cfg, nil
}

func (p *Wallet) Initiate(ctx context.Context, req payment.InitiateRequest) payment.InitResult {
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

func (p *Wallet) initiate(ctx context.Context, req payment.InitiateRequest) (payment.InitResult, error) {
	if err := req.Validate(); err != nil {
		return payment.InitResult{}, err
	}
	cfg, err := p.walletConfig(ctx)
	if err != nil {
		return payment.InitResult{}, err
	}
	wallet, err := p.GetUserWallet(ctx, req.UserID)
	if err != nil {
		return payment.InitResult{}, err
	}
	if wallet == nil {
		return payment.InitResult{}, payment.ValidationError("wallet not found")
	}
	total := req.Amount.Add(cfg.Data.Fee(req.Amount))
	if !wallet.Covers(total) {
		return payment.InitResult{}, payment.ErrInsufficientBalance
	}

	var changed *events.PaymentStatusChanged
	tx, err := p.ReserveTransaction(ctx, p.Method(), req, cfg, nil,
		func(uow repository.UnitOfWork, tx *payment.Transaction) error {
			if _, err := uow.Wallets().Debit(ctx, req.UserID, tx.Total()); err != nil {
				return err
			}
			evt, err := p.transition(ctx, uow, tx.Reference, payment.StatusCompleted, map[string]any{
				"settlement": "wallet",
			})
			changed = evt
			return err
		})
	if err != nil {
		return payment.InitResult{}, err
	}
	if changed != nil {
		p.emit(ctx, *changed)
	}

	return payment.InitResult{
		Success:       true,
		TransactionID: tx.ID.String(),
		Reference:     tx.Reference,
		Status:        payment.StatusCompleted,
		Fee:           &tx.FeeAmount,
		Instructions: &payment.Instructions{
			Message: "Payment completed from your wallet balance.",
		},
	}, nil
}

// Verify reports the stored status; wallet payments settle immediately.
func (p *Wallet) Verify(ctx context.Context, reference string) payment.VerificationResult {
	tx, done := p.Lookup(ctx, p.Method(), reference)
	if done != nil {
		return *done
	}
	return Current(tx)
}

// ProcessWebhook rejects all input: no external party notifies wallet
// payments.
func (p *Wallet) ProcessWebhook(ctx context.Context, hook payment.Webhook) error {
	return p.HandleWebhook(ctx, p.Method(), "callback", hook, func(context.Context) error {
		return payment.ValidationError("wallet payments do not accept webhooks")
	})
}

// Refund credits the wallet and records a completed refund transaction.
func (p *Wallet) Refund(ctx context.Context, req payment.RefundRequest) payment.RefundResult {
	res, err := p.refund(ctx, req)
	if err != nil {
		p.logger.Warn("refund failed", "reference", req.Reference, "error", err)
		return payment.RefundFailure(err)
	}
	return res
}

func (p *Wallet) refund(ctx context.Context, req payment.RefundRequest) (payment.RefundResult, error) {
	original, err := p.GetTransaction(ctx, req.Reference)
	if err != nil {
		return payment.RefundResult{}, err
	}
	if original == nil || original.Method != p.Method() {
		return payment.RefundResult{}, fmt.Errorf("%w: transaction %s", payment.ErrNotFound, req.Reference)
	}

	var (
		refundTx *payment.Transaction
		amount   = original.Amount
		changed  []events.Event
	)
	err = p.uow.DoSerializable(ctx, func(uow repository.UnitOfWork) error {
		changed = changed[:0]
		current, err := uow.Transactions().GetByReference(ctx, original.Reference)
		if err != nil {
			return fmt.Errorf("%w: %w", payment.ErrPersistence, err)
		}
		if current == nil {
			return fmt.Errorf("%w: transaction %s", payment.ErrNotFound, original.Reference)
		}
		var full bool
		amount, full, err = p.RefundableAmount(ctx, uow, current, req.Amount)
		if err != nil {
			return err
		}

		now := p.Now()
		refundTx = &payment.Transaction{
			ID:          uuid.New(),
			Reference:   p.GenerateReference(p.Method()),
			UserID:      current.UserID,
			ListingID:   current.ListingID,
			Method:      p.Method(),
			Amount:      amount,
			Currency:    current.Currency,
			Type:        payment.TypeRefund,
			Status:      payment.StatusCompleted,
			Description: "Refund of " + current.Reference,
			Metadata: map[string]any{
				"original_reference": current.Reference,
				"reason":             req.Reason,
			},
			CreatedAt:   now,
			UpdatedAt:   now,
			CompletedAt: &now,
			ExpiresAt:   now,
		}
		if err := p.CreateTransaction(ctx, uow, refundTx); err != nil {
			return err
		}
		if _, err := uow.Wallets().Credit(ctx, current.UserID, amount); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		if err := uow.Refunds().Create(ctx, &payment.Refund{
			ID:                   uuid.New(),
			TransactionID:        current.ID,
			TransactionReference: current.Reference,
			RefundReference:      refundTx.Reference,
			Amount:               amount,
			Reason:               req.Reason,
			Status:               payment.StatusCompleted,
			ProcessedBy:          req.ProcessedBy,
			CreatedAt:            now,
			UpdatedAt:            now,
		}); err != nil {
			return fmt.Errorf("%w: create refund: %w", payment.ErrPersistence, err)
		}
		if full {
			evt, err := p.transition(ctx, uow, current.Reference, payment.StatusRefunded, map[string]any{
				"refund_reference": refundTx.Reference,
			})
			if err != nil {
				return err
			}
			if evt != nil {
				changed = append(changed, *evt)
			}
		}
		return nil
	})
	if err != nil {
		return payment.RefundResult{}, err
	}

	changed = append(changed, events.RefundProcessed{
		OriginalReference: original.Reference,
		RefundReference:   refundTx.Reference,
		Method:            p.Method(),
		Amount:            amount,
		Status:            payment.StatusCompleted,
		OccurredAt:        refundTx.CreatedAt,
	})
	p.emit(ctx, changed...)
	metrics.RefundsTotal.WithLabelValues(string(p.Method()), string(payment.StatusCompleted)).Inc()
	return payment.RefundResult{
		Success:             true,
		RefundTransactionID: refundTx.Reference,
		Status:              payment.StatusCompleted,
	}, nil
}

var _ Processor = (*Wallet)(nil)
