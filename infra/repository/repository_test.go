package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var txColumns = []string{
	"id", "reference", "provider_reference", "user_id", "payment_method", "amount", "fee_amount",
	"currency", "transaction_type", "status", "metadata", "created_at", "updated_at", "expires_at",
}

func sampleTransaction() *payment.Transaction {
	now := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	return &payment.Transaction{
		ID:        uuid.New(),
		Reference: "MTN_MOMO1749549600000123456",
		UserID:    uuid.New(),
		Method:    payment.MethodMTNMoMo,
		Amount:    decimal.RequireFromString("5000"),
		FeeAmount: decimal.Zero,
		Currency:  "RWF",
		Type:      payment.TypePayment,
		Status:    payment.StatusPending,
		Metadata:  map[string]any{"tier": "basic"},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(payment.DefaultTTL),
	}
}

func TestTransactionRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	tx := sampleTransaction()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payment_transactions" (.+) VALUES (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Create(context.Background(), tx))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payment_transactions"`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()
	err := repo.Create(context.Background(), tx)
	assert.ErrorIs(t, err, payment.ErrAlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_GetByReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	want := sampleTransaction()

	mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE reference = \$1`).
		WillReturnRows(sqlmock.NewRows(txColumns).AddRow(
			want.ID, want.Reference, "prov-1", want.UserID, "mtn_momo", "5000", "0",
			"RWF", "payment", "pending", []byte(`{"tier":"basic"}`), want.CreatedAt, want.UpdatedAt, want.ExpiresAt,
		))

	got, err := repo.GetByReference(context.Background(), want.Reference)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, "prov-1", got.ProviderReference)
	assert.Equal(t, payment.MethodMTNMoMo, got.Method)
	assert.True(t, got.Amount.Equal(want.Amount))
	assert.Equal(t, payment.StatusPending, got.Status)
	assert.Equal(t, "basic", got.Metadata["tier"])
	assert.Nil(t, got.CompletedAt)

	mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE reference = \$1`).
		WillReturnRows(sqlmock.NewRows(txColumns))
	got, err = repo.GetByReference(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE provider_reference = \$1`).
		WillReturnError(errors.New("connection refused"))
	_, err = repo.GetByProviderReference(context.Background(), "prov-1")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_UpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_transactions" SET (.+) WHERE reference = \$`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := repo.UpdateStatus(context.Background(), "REF1",
		payment.NewStatusUpdate(payment.StatusCompleted, map[string]any{"status": "SUCCESSFUL"}, now))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	err = repo.UpdateStatus(context.Background(), "NOPE", payment.NewStatusUpdate(payment.StatusFailed, nil, now))
	assert.ErrorIs(t, err, payment.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_SumSince(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payment_transactions" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("45000"))
	sum, err := repo.SumSince(context.Background(), uuid.New(), payment.MethodMTNMoMo, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(45000)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListExpiredPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	tx := sampleTransaction()

	mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE status = \$1 AND expires_at < \$2 ORDER BY expires_at LIMIT`).
		WillReturnRows(sqlmock.NewRows(txColumns).AddRow(
			tx.ID, tx.Reference, nil, tx.UserID, "mtn_momo", "5000", "0",
			"RWF", "payment", "pending", nil, tx.CreatedAt, tx.UpdatedAt, tx.ExpiresAt,
		))
	rows, err := repo.ListExpiredPending(context.Background(), time.Now(), 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, tx.Reference, rows[0].Reference)
	assert.Empty(t, rows[0].ProviderReference)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurationRepository_GetByMethod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConfigurationRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "payment_configurations" WHERE payment_method = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_method", "config_data", "is_active"}).AddRow(
			uuid.New(), "crypto",
			[]byte(`{"fee_percentage":"1.5","fixed_fee":"0","enabled_cryptos":["BTC"],"wallet_addresses":{"BTC":"bc1q"},"manual_exchange_rate":"1300"}`),
			true,
		))
	cfg, err := repo.GetByMethod(context.Background(), payment.MethodCrypto)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.IsActive)
	assert.Equal(t, payment.MethodCrypto, cfg.Method)
	assert.True(t, cfg.Data.FeePercentage.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "bc1q", cfg.Data.WalletAddresses["BTC"])
	assert.True(t, cfg.Data.CryptoEnabled("btc"))

	mock.ExpectQuery(`SELECT \* FROM "payment_configurations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	cfg, err = repo.GetByMethod(context.Background(), payment.MethodWallet)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimitRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLimitRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "payment_method_limits" WHERE payment_method = \$1 AND user_tier = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_method", "user_tier", "min_amount", "max_amount", "daily_limit", "monthly_limit"}).
			AddRow(uuid.New(), "mtn_momo", "basic", "1000", "500000", "50000", "1000000"))
	limit, err := repo.Get(context.Background(), payment.MethodMTNMoMo, payment.TierBasic)
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.True(t, limit.DailyLimit.Equal(decimal.NewFromInt(50000)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_Debit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWalletRepository(db)
	userID := uuid.New()
	walletCols := []string{"id", "user_id", "balance", "currency"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets" SET (.+) WHERE user_id = \$\d+ AND balance >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow(uuid.New(), userID, "6000", "RWF"))
	balance, err := repo.Debit(context.Background(), userID, decimal.NewFromInt(4000))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(6000)))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow(uuid.New(), userID, "100", "RWF"))
	_, err = repo.Debit(context.Background(), userID, decimal.NewFromInt(4000))
	assert.ErrorIs(t, err, payment.ErrInsufficientBalance)
	assert.ErrorIs(t, err, payment.ErrValidation)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows(walletCols))
	_, err = repo.Debit(context.Background(), userID, decimal.NewFromInt(4000))
	assert.ErrorIs(t, err, payment.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefundRepository(db)
	txID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payment_refunds"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Create(context.Background(), &payment.Refund{
		ID:                   uuid.New(),
		TransactionID:        txID,
		TransactionReference: "WALLET1",
		RefundReference:      "WALLET2",
		Amount:               decimal.NewFromInt(1500),
		Status:               payment.StatusCompleted,
	}))

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payment_refunds" WHERE transaction_id = \$1 AND status <> \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("1500"))
	sum, err := repo.SumByTransaction(context.Background(), txID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(1500)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookLogRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWebhookLogRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payment_webhook_logs"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Create(context.Background(), &payment.WebhookLog{
		ID:      id,
		Method:  payment.MethodMTNMoMo,
		Payload: []byte("not json"),
		Status:  payment.WebhookReceived,
	}))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_webhook_logs" SET (.+) WHERE id = \$`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.MarkProcessed(context.Background(), id, false, "boom"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_webhook_logs" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.MarkProcessed(context.Background(), uuid.New(), true, ""), payment.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRateRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExchangeRateRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "exchange_rates" (.+) ON CONFLICT \("symbol"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Upsert(context.Background(), &payment.ExchangeRate{
		Symbol:    "btc",
		USDRate:   decimal.NewFromInt(65000),
		Source:    "exchangerate-api",
		UpdatedAt: time.Now(),
	}))

	rates := NewTableRates(db)
	mock.ExpectQuery(`SELECT \* FROM "exchange_rates" WHERE symbol = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"symbol", "usd_rate", "source"}).AddRow("BTC", "65000", "exchangerate-api"))
	rate, err := rates.USDRate(context.Background(), "btc")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(65000)))

	mock.ExpectQuery(`SELECT \* FROM "exchange_rates" WHERE symbol = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"symbol"}))
	_, err = rates.USDRate(context.Background(), "XMR")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
