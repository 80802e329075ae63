package processor_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/marketpay/internal/fixtures/memstore"
	"github.com/amirasaad/marketpay/internal/fixtures/mocks"
	infracache "github.com/amirasaad/marketpay/infra/cache"
	infraeventbus "github.com/amirasaad/marketpay/infra/eventbus"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/processor"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store    *memstore.Store
	cache    *infracache.MemoryCache
	bus      *infraeventbus.MemoryEventBus
	clock    *fakeClock
	configs  *processor.ConfigStore
	base     *processor.Base
	momo     *mocks.MobileMoney
	rates    *mocks.RateSource
	registry *processor.Registry
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := discardLogger()
	f := &fixture{
		store: memstore.New(),
		cache: infracache.NewMemoryCache(),
		bus:   infraeventbus.NewWithMemory(logger),
		clock: &fakeClock{t: time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)},
		momo:  &mocks.MobileMoney{},
		rates: &mocks.RateSource{},
	}
	t.Cleanup(f.cache.Close)

	f.configs = processor.NewConfigStore(f.store, f.cache, time.Minute, logger)
	f.base = processor.NewBase(f.store, f.configs, logger,
		processor.WithClock(f.clock.Now),
		processor.WithEventBus(f.bus),
	)
	f.registry = processor.NewRegistry(processor.Deps{
		Base:            f.base,
		MobileMoney:     f.momo,
		Rates:           f.rates,
		ProviderTimeout: time.Second,
		Logger:          logger,
	})

	f.store.PutConfig(&payment.Configuration{
		Method:   payment.MethodMTNMoMo,
		IsActive: true,
		Data: payment.ConfigData{
			APIEndpoint:     "https://momo.example/collection/v1_0",
			APIKey:          "key",
			SubscriptionKey: "sub",
			Environment:     "sandbox",
		},
	})
	f.store.PutLimit(&payment.MethodLimit{
		Method:       payment.MethodMTNMoMo,
		Tier:         payment.TierBasic,
		MinAmount:    dec("1000"),
		MaxAmount:    dec("500000"),
		DailyLimit:   dec("50000"),
		MonthlyLimit: dec("1000000"),
	})
	return f
}

func (f *fixture) processor(t *testing.T, method payment.Method) processor.Processor {
	t.Helper()
	p, err := f.registry.Processor(method)
	if err != nil {
		t.Fatalf("processor %s: %v", method, err)
	}
	return p
}

// seedCompleted stores a settled transaction created now.
func (f *fixture) seedCompleted(userID uuid.UUID, method payment.Method, amount string) *payment.Transaction {
	now := f.clock.Now()
	tx := &payment.Transaction{
		ID:          uuid.New(),
		Reference:   payment.GenerateReference(method, now),
		UserID:      userID,
		Method:      method,
		Amount:      dec(amount),
		Currency:    payment.DefaultCurrency,
		Type:        payment.TypePayment,
		Status:      payment.StatusCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: &now,
		ExpiresAt:   now.Add(payment.DefaultTTL),
	}
	f.store.PutTransaction(tx)
	return tx
}

func momoRequest(userID uuid.UUID, amount string) payment.InitiateRequest {
	return payment.InitiateRequest{
		UserID:      userID,
		Amount:      dec(amount),
		PhoneNumber: "+250 788 123 456",
		Description: "Listing promotion",
		Type:        payment.TypeAdPromotion,
	}
}
