package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/eventbus"
	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxReferenceAttempts = 3

// Base holds the bookkeeping shared by every processor.
type Base struct {
	uow     repository.UnitOfWork
	configs *ConfigStore
	bus     eventbus.Bus
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time
}

// BaseOption customises a Base.
type BaseOption func(*Base)

// WithTransactionTTL overrides how long pending transactions stay open.
func WithTransactionTTL(ttl time.Duration) BaseOption {
	return func(b *Base) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BaseOption {
	return func(b *Base) { b.now = now }
}

// WithEventBus publishes lifecycle events on bus.
func WithEventBus(bus eventbus.Bus) BaseOption {
	return func(b *Base) { b.bus = bus }
}

// NewBase creates the shared helpers.
func NewBase(
	uow repository.UnitOfWork,
	configs *ConfigStore,
	logger *slog.Logger,
	opts ...BaseOption,
) *Base {
	b := &Base{
		uow:     uow,
		configs: configs,
		logger:  logger,
		ttl:     payment.DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Now returns the current time from the configured clock.
func (b *Base) Now() time.Time { return b.now() }

// GenerateReference returns a fresh transaction reference for method.
func (b *Base) GenerateReference(method payment.Method) string {
	return payment.GenerateReference(method, b.now())
}

// GetPaymentConfig returns the active configuration of method.
func (b *Base) GetPaymentConfig(ctx context.Context, method payment.Method) (*payment.Configuration, error) {
	return b.configs.Active(ctx, method)
}

// GetTransaction looks a transaction up by reference; a missing row is nil.
func (b *Base) GetTransaction(ctx context.Context, reference string) (*payment.Transaction, error) {
	tx, err := b.uow.Transactions().GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction %s: %w", payment.ErrPersistence, reference, err)
	}
	return tx, nil
}

// GetUserWallet looks a wallet up by owner; a missing wallet is nil.
func (b *Base) GetUserWallet(ctx context.Context, userID uuid.UUID) (*payment.Wallet, error) {
	w, err := b.uow.Wallets().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get wallet: %w", payment.ErrPersistence, err)
	}
	return w, nil
}

// CheckPaymentLimits validates amount against the (method, tier) limits and
// the user's usage in the current day and month. An empty tier means basic.
func (b *Base) CheckPaymentLimits(
	ctx context.Context,
	userID uuid.UUID,
	method payment.Method,
	amount decimal.Decimal,
	tier payment.Tier,
) error {
	return b.checkLimits(ctx, b.uow, userID, method, amount, tier)
}

func (b *Base) checkLimits(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	method payment.Method,
	amount decimal.Decimal,
	tier payment.Tier,
) error {
	if tier == "" {
		tier = payment.TierBasic
	}
	limit, err := uow.Limits().Get(ctx, method, tier)
	if err != nil {
		return fmt.Errorf("%w: load limits: %w", payment.ErrPersistence, err)
	}
	if limit == nil {
		b.logger.Debug("no limits configured", "method", method, "tier", tier)
		return nil
	}

	now := b.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var daily, monthly decimal.Decimal
	if limit.DailyLimit.IsPositive() {
		if daily, err = uow.Transactions().SumSince(ctx, userID, method, dayStart, now); err != nil {
			return fmt.Errorf("%w: sum daily usage: %w", payment.ErrPersistence, err)
		}
	}
	if limit.MonthlyLimit.IsPositive() {
		if monthly, err = uow.Transactions().SumSince(ctx, userID, method, monthStart, now); err != nil {
			return fmt.Errorf("%w: sum monthly usage: %w", payment.ErrPersistence, err)
		}
	}
	return limit.Check(amount, daily, monthly)
}

// NewTransaction builds a pending transaction for req without storing it.
func (b *Base) NewTransaction(
	method payment.Method,
	req payment.InitiateRequest,
	cfg *payment.Configuration,
) *payment.Transaction {
	now := b.now()
	fee := decimal.Zero
	if cfg != nil {
		fee = cfg.Data.Fee(req.Amount)
	}
	metadata := make(map[string]any, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.PhoneNumber != "" {
		metadata["phone_number"] = req.PhoneNumber
	}
	metadata["tier"] = string(req.Tier)
	return &payment.Transaction{
		ID:          uuid.New(),
		Reference:   payment.GenerateReference(method, now),
		UserID:      req.UserID,
		ListingID:   req.ListingID,
		Method:      method,
		Amount:      req.Amount,
		FeeAmount:   fee,
		Currency:    req.Currency,
		Type:        req.Type,
		Status:      payment.StatusPending,
		Description: req.Description,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(b.ttl),
	}
}

// CreateTransaction stores a pending transaction.
func (b *Base) CreateTransaction(ctx context.Context, uow repository.UnitOfWork, tx *payment.Transaction) error {
	if err := uow.Transactions().Create(ctx, tx); err != nil {
		if errors.Is(err, payment.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("%w: create transaction %s: %w", payment.ErrPersistence, tx.Reference, err)
	}
	return nil
}

// ReserveTransaction checks limits and inserts the transaction inside one
// serializable unit of work, so concurrent requests cannot both pass the
// check. within, when set, runs in the same unit after the insert. A
// reference collision is retried with a fresh reference.
func (b *Base) ReserveTransaction(
	ctx context.Context,
	method payment.Method,
	req payment.InitiateRequest,
	cfg *payment.Configuration,
	prepare func(tx *payment.Transaction),
	within func(uow repository.UnitOfWork, tx *payment.Transaction) error,
) (*payment.Transaction, error) {
	var (
		tx  *payment.Transaction
		err error
	)
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		err = b.uow.DoSerializable(ctx, func(uow repository.UnitOfWork) error {
			if err := b.checkLimits(ctx, uow, req.UserID, method, req.Amount, req.Tier); err != nil {
				return err
			}
			tx = b.NewTransaction(method, req, cfg)
			if prepare != nil {
				prepare(tx)
			}
			if err := b.CreateTransaction(ctx, uow, tx); err != nil {
				return err
			}
			if within != nil {
				return within(uow, tx)
			}
			return nil
		})
		if !errors.Is(err, payment.ErrAlreadyExists) {
			break
		}
		b.logger.Warn("transaction reference collision, retrying", "method", method, "attempt", attempt)
	}
	if err != nil {
		if errors.Is(err, payment.ErrAlreadyExists) {
			err = fmt.Errorf("%w: could not allocate a unique reference: %w", payment.ErrPersistence, err)
		}
		return nil, err
	}

	b.emit(ctx, events.PaymentInitiated{
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		UserID:        tx.UserID,
		Method:        method,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		OccurredAt:    tx.CreatedAt,
	})
	return tx, nil
}

// UpdateTransactionStatus is the single writer of transaction status.
// completed_at is set exactly when status is completed. A missing
// transaction is payment.ErrNotFound.
func (b *Base) UpdateTransactionStatus(
	ctx context.Context,
	reference string,
	status payment.Status,
	providerData map[string]any,
) error {
	var changed *events.PaymentStatusChanged
	err := b.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		evt, err := b.transition(ctx, uow, reference, status, providerData)
		changed = evt
		return err
	})
	if err != nil {
		return err
	}
	if changed != nil {
		b.emit(ctx, *changed)
	}
	return nil
}

// ExpireIfStale moves reference to expired when it is still pending past
// its window, and reports whether it did.
func (b *Base) ExpireIfStale(ctx context.Context, reference string) (bool, error) {
	var changed *events.PaymentStatusChanged
	err := b.uow.DoSerializable(ctx, func(uow repository.UnitOfWork) error {
		tx, err := uow.Transactions().GetByReference(ctx, reference)
		if err != nil {
			return fmt.Errorf("%w: get transaction %s: %w", payment.ErrPersistence, reference, err)
		}
		if tx == nil || !tx.IsExpired(b.now()) {
			return nil
		}
		changed, err = b.transition(ctx, uow, reference, payment.StatusExpired, nil)
		return err
	})
	if err != nil {
		return false, err
	}
	if changed == nil {
		return false, nil
	}
	b.emit(ctx, *changed)
	return true, nil
}

func (b *Base) transition(
	ctx context.Context,
	uow repository.UnitOfWork,
	reference string,
	status payment.Status,
	providerData map[string]any,
) (*events.PaymentStatusChanged, error) {
	tx, err := uow.Transactions().GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction %s: %w", payment.ErrPersistence, reference, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction %s", payment.ErrNotFound, reference)
	}
	now := b.now()
	if err := uow.Transactions().UpdateStatus(ctx, reference, payment.NewStatusUpdate(status, providerData, now)); err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update transaction %s: %w", payment.ErrPersistence, reference, err)
	}
	if tx.Status == status {
		return nil, nil
	}
	return &events.PaymentStatusChanged{
		Reference:  reference,
		Method:     tx.Method,
		From:       tx.Status,
		To:         status,
		OccurredAt: now,
	}, nil
}

// LogWebhook records an inbound webhook. Failures are logged and yield
// uuid.Nil; they never stop processing.
func (b *Base) LogWebhook(ctx context.Context, method payment.Method, eventType string, payload []byte) uuid.UUID {
	entry := &payment.WebhookLog{
		ID:        uuid.New(),
		Method:    method,
		EventType: eventType,
		Payload:   payload,
		Status:    payment.WebhookReceived,
		CreatedAt: b.now(),
	}
	if err := b.uow.WebhookLogs().Create(ctx, entry); err != nil {
		b.logger.Error("failed to log webhook", "method", method, "error", err)
		return uuid.Nil
	}
	return entry.ID
}

// MarkWebhookProcessed concludes a webhook log entry.
func (b *Base) MarkWebhookProcessed(ctx context.Context, id uuid.UUID, success bool, errMsg string) {
	if id == uuid.Nil {
		return
	}
	if err := b.uow.WebhookLogs().MarkProcessed(ctx, id, success, errMsg); err != nil {
		b.logger.Error("failed to mark webhook processed", "id", id, "error", err)
	}
}

// HandleWebhook wraps handle with audit logging, metrics and an event.
func (b *Base) HandleWebhook(
	ctx context.Context,
	method payment.Method,
	eventType string,
	hook payment.Webhook,
	handle func(ctx context.Context) error,
) error {
	id := b.LogWebhook(ctx, method, eventType, hook.Payload)
	err := handle(ctx)

	outcome := "processed"
	errMsg := ""
	if err != nil {
		outcome = "failed"
		errMsg = err.Error()
		b.logger.Error("webhook processing failed", "method", method, "error", err)
	}
	b.MarkWebhookProcessed(ctx, id, err == nil, errMsg)
	metrics.WebhooksReceived.WithLabelValues(string(method), outcome).Inc()
	b.emit(ctx, events.WebhookReceived{Method: method, Outcome: outcome, OccurredAt: b.now()})
	return err
}

// VerifySignature checks the hex HMAC-SHA256 of the payload when the
// configuration carries a webhook secret.
func (b *Base) VerifySignature(cfg *payment.Configuration, hook payment.Webhook) error {
	secret := cfg.Data.WebhookSecret
	if secret == "" {
		return nil
	}
	if !hook.ValidSignature(secret) {
		return payment.ValidationError("invalid webhook signature")
	}
	return nil
}

// Lookup is the common prologue of Verify: it loads the transaction, checks
// it belongs to method and expires it when its window has passed. A non-nil
// result means the caller should return it as is.
func (b *Base) Lookup(
	ctx context.Context,
	method payment.Method,
	reference string,
) (*payment.Transaction, *payment.VerificationResult) {
	tx, err := b.GetTransaction(ctx, reference)
	if err != nil {
		b.logger.Error("verify lookup failed", "reference", reference, "error", err)
		res := payment.VerifyFailure(reference, err)
		return nil, &res
	}
	if tx == nil || tx.Method != method {
		res := payment.VerifyFailure(reference, fmt.Errorf("%w: transaction %s", payment.ErrNotFound, reference))
		return nil, &res
	}
	if tx.IsExpired(b.now()) {
		if err := b.UpdateTransactionStatus(ctx, reference, payment.StatusExpired, nil); err != nil {
			b.logger.Error("failed to expire transaction", "reference", reference, "error", err)
		}
		return tx, &payment.VerificationResult{
			Success:   false,
			Reference: reference,
			Status:    payment.StatusExpired,
			Error:     "payment window has expired",
		}
	}
	return tx, nil
}

// Current reports the stored status of tx.
func Current(tx *payment.Transaction) payment.VerificationResult {
	return payment.VerificationResult{
		Success:   settledOrPending(tx.Status),
		Reference: tx.Reference,
		Status:    tx.Status,
	}
}

// RefundableAmount validates a refund request against tx and earlier refunds.
func (b *Base) RefundableAmount(
	ctx context.Context,
	uow repository.UnitOfWork,
	tx *payment.Transaction,
	requested *decimal.Decimal,
) (amount decimal.Decimal, full bool, err error) {
	if tx.Status != payment.StatusCompleted {
		return decimal.Zero, false, payment.ValidationError(
			fmt.Sprintf("only completed transactions can be refunded, status is %s", tx.Status))
	}
	refunded, err := uow.Refunds().SumByTransaction(ctx, tx.ID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: sum refunds: %w", payment.ErrPersistence, err)
	}
	left := tx.Amount.Sub(refunded)
	amount = left
	if requested != nil {
		amount = *requested
	}
	if !amount.IsPositive() {
		return decimal.Zero, false, payment.ValidationError("refund amount must be positive")
	}
	if amount.GreaterThan(left) {
		return decimal.Zero, false, payment.ValidationError(
			fmt.Sprintf("refund amount exceeds refundable balance. Remaining: %s", left.String()))
	}
	return amount, amount.Equal(left), nil
}

func (b *Base) emit(ctx context.Context, evts ...events.Event) {
	for _, evt := range evts {
		if changed, ok := evt.(events.PaymentStatusChanged); ok {
			metrics.StatusTransitions.WithLabelValues(string(changed.Method), string(changed.To)).Inc()
		}
		if b.bus == nil {
			continue
		}
		if err := b.bus.Emit(ctx, evt); err != nil {
			b.logger.Error("failed to emit event", "type", evt.Type(), "error", err)
		}
	}
}

func settledOrPending(s payment.Status) bool {
	return s == payment.StatusCompleted || s == payment.StatusPending
}

// withTimeout bounds a provider call.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// isTimeout reports whether err came from a deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
