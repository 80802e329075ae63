//go:build integration

package infra_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/marketpay/infra"
	infrarepo "github.com/amirasaad/marketpay/infra/repository"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("marketpay_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDBConnection(&config.DB{
		Url:          dsn,
		MaxOpenConns: 10,
		MaxIdleConns: 10,
		ConnLifetime: time.Hour,
	}, "test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, infra.RunMigrations(db, logger))
	// A second run is a no-op.
	require.NoError(t, infra.RunMigrations(db, logger))
	return db
}

func TestPostgres_SeededConfiguration(t *testing.T) {
	db := setupPostgres(t)
	uow := infrarepo.NewUoW(db)
	ctx := context.Background()

	cfg, err := uow.Configurations().GetByMethod(ctx, payment.MethodWallet)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.IsActive)

	crypto, err := uow.Configurations().GetByMethod(ctx, payment.MethodCrypto)
	require.NoError(t, err)
	require.NotNil(t, crypto)
	assert.False(t, crypto.IsActive)
	assert.Equal(t, payment.RateModeLive, crypto.Data.ExchangeRateMode)

	limit, err := uow.Limits().Get(ctx, payment.MethodMTNMoMo, payment.TierBasic)
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.True(t, limit.DailyLimit.Equal(decimal.NewFromInt(50000)))

	all, err := uow.Configurations().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(payment.Methods))
}

func TestPostgres_TransactionLifecycle(t *testing.T) {
	db := setupPostgres(t)
	uow := infrarepo.NewUoW(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := uuid.New()

	newTx := func(ref string, amount int64, expires time.Time) *payment.Transaction {
		return &payment.Transaction{
			ID:        uuid.New(),
			Reference: ref,
			UserID:    userID,
			Method:    payment.MethodMTNMoMo,
			Amount:    decimal.NewFromInt(amount),
			Currency:  payment.DefaultCurrency,
			Type:      payment.TypeAdPromotion,
			Status:    payment.StatusPending,
			Metadata:  map[string]any{"phone_number": "250788123456"},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: expires,
		}
	}

	live := newTx("MTN_MOMO_LIVE", 4000, now.Add(15*time.Minute))
	stale := newTx("MTN_MOMO_STALE", 9000, now.Add(-time.Minute))
	err := uow.Do(ctx, func(u repository.UnitOfWork) error {
		if err := u.Transactions().Create(ctx, live); err != nil {
			return err
		}
		return u.Transactions().Create(ctx, stale)
	})
	require.NoError(t, err)

	dup := newTx("MTN_MOMO_LIVE", 1, now.Add(time.Minute))
	assert.ErrorIs(t, uow.Transactions().Create(ctx, dup), payment.ErrAlreadyExists)

	sum, err := uow.Transactions().SumSince(ctx, userID, payment.MethodMTNMoMo, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(4000)), "expired pending is not counted, got %s", sum)

	require.NoError(t, uow.Transactions().SetProviderReference(ctx, live.Reference, "momo-123"))
	require.NoError(t, uow.Transactions().UpdateStatus(ctx, live.Reference,
		payment.NewStatusUpdate(payment.StatusCompleted, map[string]any{"status": "SUCCESSFUL"}, now)))

	got, err := uow.Transactions().GetByProviderReference(ctx, "momo-123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payment.StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, "SUCCESSFUL", got.ProviderResponse["status"])

	expired, err := uow.Transactions().ListExpiredPending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.Reference, expired[0].Reference)

	missing, err := uow.Transactions().GetByReference(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t,
		uow.Transactions().UpdateStatus(ctx, "NOPE", payment.NewStatusUpdate(payment.StatusFailed, nil, now)),
		payment.ErrNotFound)
}

func TestPostgres_ConcurrentWalletDebits(t *testing.T) {
	db := setupPostgres(t)
	uow := infrarepo.NewUoW(db)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, db.Exec(
		"INSERT INTO wallets (id, user_id, balance, currency, updated_at) VALUES (?, ?, ?, ?, NOW())",
		uuid.New(), userID, "500", payment.DefaultCurrency,
	).Error)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := uow.DoSerializable(ctx, func(u repository.UnitOfWork) error {
				_, err := u.Wallets().Debit(ctx, userID, decimal.NewFromInt(100))
				return err
			})
			if err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	w, err := uow.Wallets().GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.True(t, w.Balance.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(500-100*int64(succeeded.Load()))))
}

func TestPostgres_ExchangeRates(t *testing.T) {
	db := setupPostgres(t)
	uow := infrarepo.NewUoW(db)
	ctx := context.Background()

	require.NoError(t, uow.ExchangeRates().Upsert(ctx, &payment.ExchangeRate{
		Symbol: "rwf", USDRate: decimal.RequireFromString("0.00077"), Source: "test",
	}))
	require.NoError(t, uow.ExchangeRates().Upsert(ctx, &payment.ExchangeRate{
		Symbol: "RWF", USDRate: decimal.RequireFromString("0.0008"), Source: "test",
	}))

	rate, err := infrarepo.NewTableRates(db).USDRate(ctx, "RWF")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.0008")))
}
