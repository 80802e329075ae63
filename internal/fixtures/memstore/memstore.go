// Package memstore is an in-memory repository.UnitOfWork for tests. Units
// of work run one at a time and roll back on error.
package memstore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type limitKey struct {
	method payment.Method
	tier   payment.Tier
}

type state struct {
	transactions map[string]*payment.Transaction
	configs      map[payment.Method]*payment.Configuration
	limits       map[limitKey]*payment.MethodLimit
	wallets      map[uuid.UUID]*payment.Wallet
	refunds      []*payment.Refund
	webhooks     map[uuid.UUID]*payment.WebhookLog
	rates        map[string]*payment.ExchangeRate
}

func (s state) clone() state {
	c := state{
		transactions: make(map[string]*payment.Transaction, len(s.transactions)),
		configs:      maps.Clone(s.configs),
		limits:       maps.Clone(s.limits),
		wallets:      make(map[uuid.UUID]*payment.Wallet, len(s.wallets)),
		refunds:      append([]*payment.Refund(nil), s.refunds...),
		webhooks:     maps.Clone(s.webhooks),
		rates:        maps.Clone(s.rates),
	}
	for k, v := range s.transactions {
		c.transactions[k] = cloneTx(v)
	}
	for k, v := range s.wallets {
		w := *v
		c.wallets[k] = &w
	}
	return c
}

// Store holds every table in memory.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state

	// CreateErr, when set, is returned by Transactions().Create.
	CreateErr error
	// ListConfigsErr, when set, is returned by Configurations().List.
	ListConfigsErr error
}

// New returns an empty store.
func New() *Store {
	return &Store{data: state{
		transactions: map[string]*payment.Transaction{},
		configs:      map[payment.Method]*payment.Configuration{},
		limits:       map[limitKey]*payment.MethodLimit{},
		wallets:      map[uuid.UUID]*payment.Wallet{},
		webhooks:     map[uuid.UUID]*payment.WebhookLog{},
		rates:        map[string]*payment.ExchangeRate{},
	}}
}

func (s *Store) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) DoSerializable(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return s.Do(ctx, fn)
}

func (s *Store) Transactions() repository.TransactionRepository   { return txRepo{s} }
func (s *Store) Configurations() repository.ConfigurationRepository { return configRepo{s} }
func (s *Store) Limits() repository.LimitRepository                 { return limitRepo{s} }
func (s *Store) Wallets() repository.WalletRepository               { return walletRepo{s} }
func (s *Store) Refunds() repository.RefundRepository               { return refundRepo{s} }
func (s *Store) WebhookLogs() repository.WebhookLogRepository       { return webhookRepo{s} }
func (s *Store) ExchangeRates() repository.ExchangeRateRepository   { return rateRepo{s} }

// Seeding and inspection helpers.

func (s *Store) PutConfig(cfg *payment.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cfg
	s.data.configs[cfg.Method] = &c
}

func (s *Store) DeleteConfig(method payment.Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.configs, method)
}

func (s *Store) PutLimit(l *payment.MethodLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *l
	s.data.limits[limitKey{l.Method, l.Tier}] = &c
}

func (s *Store) PutWallet(w *payment.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *w
	s.data.wallets[w.UserID] = &c
}

func (s *Store) PutTransaction(tx *payment.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.transactions[tx.Reference] = cloneTx(tx)
}

func (s *Store) Transaction(reference string) *payment.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tx, ok := s.data.transactions[reference]; ok {
		return cloneTx(tx)
	}
	return nil
}

func (s *Store) TransactionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.transactions)
}

func (s *Store) TransactionsByType(t payment.TransactionType) []*payment.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*payment.Transaction
	for _, tx := range s.data.transactions {
		if tx.Type == t {
			out = append(out, cloneTx(tx))
		}
	}
	return out
}

func (s *Store) Wallet(userID uuid.UUID) *payment.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w, ok := s.data.wallets[userID]; ok {
		c := *w
		return &c
	}
	return nil
}

func (s *Store) RefundList() []*payment.Refund {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*payment.Refund(nil), s.data.refunds...)
}

func (s *Store) WebhookLogList() []*payment.WebhookLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*payment.WebhookLog, 0, len(s.data.webhooks))
	for _, w := range s.data.webhooks {
		c := *w
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) PutRate(r *payment.ExchangeRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *r
	s.data.rates[r.Symbol] = &c
}

func cloneTx(tx *payment.Transaction) *payment.Transaction {
	c := *tx
	c.Metadata = maps.Clone(tx.Metadata)
	c.ProviderResponse = maps.Clone(tx.ProviderResponse)
	if tx.CompletedAt != nil {
		t := *tx.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

type txRepo struct{ s *Store }

func (r txRepo) Create(_ context.Context, tx *payment.Transaction) error {
	if r.s.CreateErr != nil {
		return r.s.CreateErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.data.transactions[tx.Reference]; exists {
		return payment.ErrAlreadyExists
	}
	r.s.data.transactions[tx.Reference] = cloneTx(tx)
	return nil
}

func (r txRepo) GetByReference(_ context.Context, reference string) (*payment.Transaction, error) {
	return r.s.Transaction(reference), nil
}

func (r txRepo) GetByProviderReference(_ context.Context, providerRef string) (*payment.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, tx := range r.s.data.transactions {
		if tx.ProviderReference == providerRef {
			return cloneTx(tx), nil
		}
	}
	return nil, nil
}

func (r txRepo) UpdateStatus(_ context.Context, reference string, u payment.StatusUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.data.transactions[reference]
	if !ok {
		return payment.ErrNotFound
	}
	tx.Status = u.Status
	tx.CompletedAt = u.CompletedAt
	tx.UpdatedAt = u.UpdatedAt
	if len(u.ProviderData) > 0 {
		if tx.ProviderResponse == nil {
			tx.ProviderResponse = map[string]any{}
		}
		maps.Copy(tx.ProviderResponse, u.ProviderData)
	}
	return nil
}

func (r txRepo) SetProviderReference(_ context.Context, reference, providerRef string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.data.transactions[reference]
	if !ok {
		return payment.ErrNotFound
	}
	tx.ProviderReference = providerRef
	return nil
}

func (r txRepo) SumSince(
	_ context.Context,
	userID uuid.UUID,
	method payment.Method,
	since, now time.Time,
) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, tx := range r.s.data.transactions {
		if tx.UserID != userID || tx.Method != method || tx.Type == payment.TypeRefund || tx.CreatedAt.Before(since) {
			continue
		}
		if tx.Status == payment.StatusCompleted || (tx.Status == payment.StatusPending && tx.ExpiresAt.After(now)) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (r txRepo) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]*payment.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*payment.Transaction
	for _, tx := range r.s.data.transactions {
		if tx.Status == payment.StatusPending && tx.ExpiresAt.Before(now) {
			out = append(out, cloneTx(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type configRepo struct{ s *Store }

func (r configRepo) GetByMethod(_ context.Context, method payment.Method) (*payment.Configuration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.data.configs[method]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r configRepo) List(_ context.Context) ([]*payment.Configuration, error) {
	if r.s.ListConfigsErr != nil {
		return nil, r.s.ListConfigsErr
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*payment.Configuration, 0, len(r.s.data.configs))
	for _, c := range r.s.data.configs {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type limitRepo struct{ s *Store }

func (r limitRepo) Get(_ context.Context, method payment.Method, tier payment.Tier) (*payment.MethodLimit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.data.limits[limitKey{method, tier}]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

type walletRepo struct{ s *Store }

func (r walletRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*payment.Wallet, error) {
	return r.s.Wallet(userID), nil
}

func (r walletRepo) Debit(_ context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.data.wallets[userID]
	if !ok {
		return decimal.Zero, payment.ErrNotFound
	}
	if w.Balance.LessThan(amount) {
		return decimal.Zero, payment.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	return w.Balance, nil
}

func (r walletRepo) Credit(_ context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.data.wallets[userID]
	if !ok {
		return decimal.Zero, payment.ErrNotFound
	}
	w.Balance = w.Balance.Add(amount)
	return w.Balance, nil
}

type refundRepo struct{ s *Store }

func (r refundRepo) Create(_ context.Context, refund *payment.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *refund
	r.s.data.refunds = append(r.s.data.refunds, &c)
	return nil
}

func (r refundRepo) SumByTransaction(_ context.Context, transactionID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, ref := range r.s.data.refunds {
		if ref.TransactionID == transactionID && ref.Status != payment.StatusFailed {
			sum = sum.Add(ref.Amount)
		}
	}
	return sum, nil
}

type webhookRepo struct{ s *Store }

func (r webhookRepo) Create(_ context.Context, log *payment.WebhookLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *log
	r.s.data.webhooks[log.ID] = &c
	return nil
}

func (r webhookRepo) MarkProcessed(_ context.Context, id uuid.UUID, success bool, errMsg string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.data.webhooks[id]
	if !ok {
		return payment.ErrNotFound
	}
	now := time.Now()
	w.Processed = true
	w.ProcessedAt = &now
	w.Status = payment.WebhookProcessed
	if !success {
		w.Status = payment.WebhookFailed
		w.ErrorMessage = errMsg
	}
	return nil
}

type rateRepo struct{ s *Store }

func (r rateRepo) Get(_ context.Context, symbol string) (*payment.ExchangeRate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if rate, ok := r.s.data.rates[symbol]; ok {
		c := *rate
		return &c, nil
	}
	return nil, nil
}

func (r rateRepo) Upsert(_ context.Context, rate *payment.ExchangeRate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *rate
	r.s.data.rates[rate.Symbol] = &c
	return nil
}

var _ repository.UnitOfWork = (*Store)(nil)
