package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
)

var msisdnPattern = regexp.MustCompile(`^[0-9]{9,15}$`)

// normalizeMSISDN strips formatting and a leading plus sign.
func normalizeMSISDN(phone string) (string, error) {
	replacer := strings.NewReplacer(" ", "", "-", "", "+", "")
	msisdn := replacer.Replace(phone)
	if msisdn == "" {
		return "", payment.ValidationError("phone number is required")
	}
	if !msisdnPattern.MatchString(msisdn) {
		return "", payment.ValidationError("phone number must contain 9 to 15 digits")
	}
	return msisdn, nil
}

// MTNMoMo collects payments through the MTN Mobile Money API.
type MTNMoMo struct {
	*Base
	client  provider.MobileMoney
	timeout time.Duration
	logger  *slog.Logger
}

// NewMTNMoMo creates the MTN MoMo processor.
func NewMTNMoMo(base *Base, client provider.MobileMoney, timeout time.Duration) *MTNMoMo {
	return &MTNMoMo{
		Base:    base,
		client:  client,
		timeout: timeout,
		logger:  base.logger.With("processor", payment.MethodMTNMoMo),
	}
}

func (p *MTNMoMo) Method() payment.Method { return payment.MethodMTNMoMo }

func (p *MTNMoMo) credentials(cfg *payment.Configuration) (provider.MoMoCredentials, error) {
	if cfg.Data.APIEndpoint == "" {
		return provider.MoMoCredentials{}, payment.ConfigurationError("mtn_momo api_endpoint is not set")
	}
	env := cfg.Data.Environment
	if env == "" {
		env = "sandbox"
	}
	return provider.MoMoCredentials{
		Endpoint:        strings.TrimRight(cfg.Data.APIEndpoint, "/"),
		APIKey:          cfg.Data.APIKey,
		SubscriptionKey: cfg.Data.SubscriptionKey,
		Environment:     env,
		CallbackURL:     cfg.Data.CallbackURL,
		Timeout:         p.timeout,
	}, nil
}

// Initiate sends a request-to-pay prompt to the payer's phone.
func (p *MTNMoMo) Initiate(ctx context.Context, req payment.InitiateRequest) payment.InitResult {
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

func (p *MTNMoMo) initiate(ctx context.Context, req payment.InitiateRequest) (payment.InitResult, error) {
	if err := req.Validate(); err != nil {
		return payment.InitResult{}, err
	}
	msisdn, err := normalizeMSISDN(req.PhoneNumber)
	if err != nil {
		return payment.InitResult{}, err
	}
	req.PhoneNumber = msisdn

	cfg, err := p.GetPaymentConfig(ctx, p.Method())
	if err != nil {
		return payment.InitResult{}, err
	}
	creds, err := p.credentials(cfg)
	if err != nil {
		return payment.InitResult{}, err
	}

	providerRef := uuid.NewString()
	tx, err := p.ReserveTransaction(ctx, p.Method(), req, cfg, func(tx *payment.Transaction) {
		tx.ProviderReference = providerRef
	}, nil)
	if err != nil {
		return payment.InitResult{}, err
	}

	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()
	err = p.client.RequestToPay(callCtx, creds, provider.RequestToPay{
		ReferenceID:  providerRef,
		ExternalID:   tx.Reference,
		Amount:       tx.Total(),
		Currency:     tx.Currency,
		PayerMSISDN:  msisdn,
		PayerMessage: payerMessage(tx),
		PayeeNote:    tx.Reference,
	})

	res := payment.InitResult{
		Success:           true,
		TransactionID:     tx.ID.String(),
		Reference:         tx.Reference,
		ProviderReference: providerRef,
		Status:            payment.StatusPending,
		Fee:               &tx.FeeAmount,
		ExpiresAt:         &tx.ExpiresAt,
		Instructions: &payment.Instructions{
			Message: "Approve the payment prompt sent to your phone to complete the payment.",
		},
	}
	switch {
	case err == nil:
		return res, nil
	case isTimeout(err):
		// the prompt may still reach the payer; verify or the webhook settles it
		p.logger.Warn("request to pay timed out, leaving transaction pending",
			"reference", tx.Reference, "error", err)
		res.Instructions.Message = "Payment request submitted. Confirmation is pending, check the status shortly."
		return res, nil
	default:
		if uerr := p.UpdateTransactionStatus(ctx, tx.Reference, payment.StatusFailed, map[string]any{
			"error": err.Error(),
		}); uerr != nil {
			p.logger.Error("failed to mark transaction failed", "reference", tx.Reference, "error", uerr)
		}
		return payment.InitResult{}, fmt.Errorf("%w: request to pay: %w", payment.ErrProvider, err)
	}
}

func payerMessage(tx *payment.Transaction) string {
	if tx.Description != "" {
		return tx.Description
	}
	return "Marketplace payment " + tx.Reference
}

// Verify polls the provider for the collection status.
func (p *MTNMoMo) Verify(ctx context.Context, reference string) payment.VerificationResult {
	tx, done := p.Lookup(ctx, p.Method(), reference)
	if done != nil {
		return *done
	}
	if tx.Status != payment.StatusPending {
		return Current(tx)
	}

	cfg, err := p.GetPaymentConfig(ctx, p.Method())
	if err != nil {
		return payment.VerifyFailure(reference, err)
	}
	creds, err := p.credentials(cfg)
	if err != nil {
		return payment.VerifyFailure(reference, err)
	}

	providerRef := tx.ProviderReference
	if providerRef == "" {
		providerRef = tx.Reference
	}
	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()
	status, err := p.client.RequestToPayStatus(callCtx, creds, providerRef)
	if err != nil {
		if isTimeout(err) {
			return payment.VerificationResult{
				Success:   false,
				Reference: reference,
				Status:    payment.StatusPending,
				Error:     "payment provider timed out, retry later",
			}
		}
		p.logger.Error("status query failed", "reference", reference, "error", err)
		res := payment.VerifyFailure(reference, fmt.Errorf("%w: status query: %w", payment.ErrProvider, err))
		res.Status = tx.Status
		return res
	}

	mapped := payment.MapProviderStatus(status.Status)
	if mapped != tx.Status {
		if err := p.UpdateTransactionStatus(ctx, reference, mapped, status.Raw); err != nil {
			p.logger.Error("failed to record verified status", "reference", reference, "error", err)
			return payment.VerifyFailure(reference, err)
		}
	}
	return payment.VerificationResult{
		Success:   settledOrPending(mapped),
		Reference: reference,
		Status:    mapped,
		Data:      status.Raw,
	}
}

type momoCallback struct {
	ExternalID             string `json:"externalId"`
	ReferenceID            string `json:"referenceId"`
	Status                 string `json:"status"`
	FinancialTransactionID string `json:"financialTransactionId"`
	Reason                 any    `json:"reason"`
}

// ProcessWebhook applies a request-to-pay callback.
func (p *MTNMoMo) ProcessWebhook(ctx context.Context, hook payment.Webhook) error {
	return p.HandleWebhook(ctx, p.Method(), "requesttopay.callback", hook, func(ctx context.Context) error {
		cfg, err := p.GetPaymentConfig(ctx, p.Method())
		if err != nil {
			return err
		}
		if err := p.VerifySignature(cfg, hook); err != nil {
			return err
		}

		var cb momoCallback
		if err := json.Unmarshal(hook.Payload, &cb); err != nil {
			return payment.ValidationError("malformed webhook payload")
		}
		if cb.ExternalID == "" {
			return payment.ValidationError("webhook payload is missing externalId")
		}

		tx, err := p.GetTransaction(ctx, cb.ExternalID)
		if err != nil {
			return err
		}
		if tx == nil || tx.Method != p.Method() {
			return fmt.Errorf("%w: transaction %s", payment.ErrNotFound, cb.ExternalID)
		}
		mapped := payment.MapProviderStatus(cb.Status)
		if tx.Status == mapped {
			return nil
		}
		if tx.Status.IsTerminal() {
			return payment.ValidationError(
				fmt.Sprintf("transaction %s is already %s", cb.ExternalID, tx.Status))
		}
		var raw map[string]any
		_ = json.Unmarshal(hook.Payload, &raw)
		return p.UpdateTransactionStatus(ctx, cb.ExternalID, mapped, raw)
	})
}

// Refund asks the provider to return a settled collection.
func (p *MTNMoMo) Refund(ctx context.Context, req payment.RefundRequest) payment.RefundResult {
	res, err := p.refund(ctx, req)
	if err != nil {
		p.logger.Warn("refund failed", "reference", req.Reference, "error", err)
		return payment.RefundFailure(err)
	}
	return res
}

func (p *MTNMoMo) refund(ctx context.Context, req payment.RefundRequest) (payment.RefundResult, error) {
	tx, err := p.GetTransaction(ctx, req.Reference)
	if err != nil {
		return payment.RefundResult{}, err
	}
	if tx == nil || tx.Method != p.Method() {
		return payment.RefundResult{}, fmt.Errorf("%w: transaction %s", payment.ErrNotFound, req.Reference)
	}
	cfg, err := p.GetPaymentConfig(ctx, p.Method())
	if err != nil {
		return payment.RefundResult{}, err
	}
	creds, err := p.credentials(cfg)
	if err != nil {
		return payment.RefundResult{}, err
	}
	amount, full, err := p.RefundableAmount(ctx, p.uow, tx, req.Amount)
	if err != nil {
		return payment.RefundResult{}, err
	}

	refundRef := "REFUND_" + p.GenerateReference(p.Method())
	providerRef := uuid.NewString()
	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()
	err = p.client.Refund(callCtx, creds, provider.MoMoRefund{
		ReferenceID:         providerRef,
		ReferenceIDToRefund: tx.ProviderReference,
		ExternalID:          refundRef,
		Amount:              amount,
		Currency:            tx.Currency,
		PayerMessage:        req.Reason,
		PayeeNote:           tx.Reference,
	})
	if err != nil && !isTimeout(err) {
		return payment.RefundResult{}, fmt.Errorf("%w: refund: %w", payment.ErrProvider, err)
	}

	now := p.Now()
	record := &payment.Refund{
		ID:                   uuid.New(),
		TransactionID:        tx.ID,
		TransactionReference: tx.Reference,
		RefundReference:      refundRef,
		ProviderReference:    providerRef,
		Amount:               amount,
		Reason:               req.Reason,
		Status:               payment.StatusPending,
		ProcessedBy:          req.ProcessedBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	var changed *events.PaymentStatusChanged
	err = p.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := uow.Refunds().Create(ctx, record); err != nil {
			return fmt.Errorf("%w: create refund: %w", payment.ErrPersistence, err)
		}
		if !full {
			return nil
		}
		evt, err := p.transition(ctx, uow, tx.Reference, payment.StatusRefunded, map[string]any{
			"refund_reference": refundRef,
		})
		changed = evt
		return err
	})
	if err != nil {
		// the provider accepted the refund; the record must be reconciled by hand
		p.logger.Error("refund accepted by provider but not recorded",
			"reference", tx.Reference, "refund_reference", refundRef, "error", err)
		return payment.RefundResult{}, err
	}
	if changed != nil {
		p.emit(ctx, *changed)
	}
	p.emit(ctx, events.RefundProcessed{
		OriginalReference: tx.Reference,
		RefundReference:   refundRef,
		Method:            p.Method(),
		Amount:            amount,
		Status:            payment.StatusPending,
		OccurredAt:        now,
	})
	metrics.RefundsTotal.WithLabelValues(string(p.Method()), string(payment.StatusPending)).Inc()
	return payment.RefundResult{
		Success:             true,
		RefundTransactionID: refundRef,
		Status:              payment.StatusPending,
	}, nil
}

var _ Processor = (*MTNMoMo)(nil)
