package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/marketpay/infra/eventbus"
	"github.com/amirasaad/marketpay/internal/fixtures/memstore"
	"github.com/amirasaad/marketpay/internal/fixtures/mocks"
	"github.com/amirasaad/marketpay/pkg/app"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.App {
	return &config.App{
		Payment: &config.Payment{
			DefaultTier:    "basic",
			TransactionTTL: 10 * time.Minute,
			SweepBatchSize: 10,
		},
	}
}

func TestNew_WiresRegistryAndServices(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	bus := eventbus.NewWithMemory(logger)

	a := app.New(&app.Deps{
		Uow:         store,
		EventBus:    bus,
		MobileMoney: &mocks.MobileMoney{},
		Rates:       &mocks.RateSource{},
		Logger:      logger,
	}, testConfig())

	require.NotNil(t, a.Registry)
	require.NotNil(t, a.Methods)
	require.NotNil(t, a.Sweeper)
	assert.Nil(t, a.RateSync, "rate sync needs a live source")
	assert.ElementsMatch(t, []payment.Method{
		payment.MethodMTNMoMo,
		payment.MethodAirtelMoney,
		payment.MethodBankTransfer,
		payment.MethodCrypto,
		payment.MethodWallet,
	}, a.Registry.SupportedMethods())

	listing, err := a.Methods.ListMethods(context.Background())
	require.NoError(t, err)
	assert.Len(t, listing.Methods, 5)
}

func TestNew_WalletPaymentPublishesLifecycleEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	bus := eventbus.NewWithMemory(logger)
	userID := uuid.New()
	store.PutWallet(&payment.Wallet{
		ID: uuid.New(), UserID: userID, Balance: decimal.NewFromInt(5000), Currency: "RWF",
	})

	a := app.New(&app.Deps{Uow: store, EventBus: bus, Logger: logger}, testConfig())

	res := a.Registry.InitiatePayment(context.Background(), payment.MethodWallet, payment.InitiateRequest{
		UserID: userID,
		Amount: decimal.NewFromInt(1500),
	})
	require.True(t, res.Success, res.Error)

	var types []string
	for _, evt := range bus.Published() {
		types = append(types, evt.Type())
	}
	assert.Contains(t, types, events.TypePaymentInitiated)
	assert.Contains(t, types, events.TypePaymentStatusChanged)
}

func TestNew_RateSyncWhenLiveSourceGiven(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := app.New(&app.Deps{
		Uow:           memstore.New(),
		LiveRates:     &mocks.RateSource{},
		LiveRatesName: "test",
		Logger:        logger,
	}, testConfig())
	assert.NotNil(t, a.RateSync)
}
