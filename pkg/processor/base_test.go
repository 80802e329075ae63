package processor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveTransaction_ReferenceCollision(t *testing.T) {
	f := newFixture(t)
	f.store.CreateErr = payment.ErrAlreadyExists

	req := payment.InitiateRequest{UserID: uuid.New(), Amount: dec("5000")}
	req.Normalize()
	_, err := f.base.ReserveTransaction(context.Background(), payment.MethodBankTransfer, req, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrPersistence)
	assert.Equal(t, "could not record the payment, please try again", payment.PublicMessage(err))
}

func TestReserveTransaction_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.CreateErr = errors.New("connection reset by peer")

	req := payment.InitiateRequest{UserID: uuid.New(), Amount: dec("5000")}
	req.Normalize()
	_, err := f.base.ReserveTransaction(context.Background(), payment.MethodBankTransfer, req, nil, nil, nil)
	assert.ErrorIs(t, err, payment.ErrPersistence)
	assert.Empty(t, f.bus.Published())
}

func TestUpdateTransactionStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.base.UpdateTransactionStatus(ctx, "NOPE", payment.StatusCompleted, nil)
	assert.ErrorIs(t, err, payment.ErrNotFound)

	tx := f.seedCompleted(uuid.New(), payment.MethodMTNMoMo, "5000")
	require.NoError(t, f.base.UpdateTransactionStatus(ctx, tx.Reference, payment.StatusRefunded, map[string]any{"note": "manual"}))
	stored := f.store.Transaction(tx.Reference)
	assert.Equal(t, payment.StatusRefunded, stored.Status)
	assert.Nil(t, stored.CompletedAt)
	assert.Equal(t, "manual", stored.ProviderResponse["note"])
}

func TestCheckPaymentLimits_Monthly(t *testing.T) {
	f := newFixture(t)
	f.store.PutLimit(&payment.MethodLimit{
		Method:       payment.MethodBankTransfer,
		Tier:         payment.TierPremium,
		MonthlyLimit: dec("100000"),
	})
	userID := uuid.New()
	f.seedCompleted(userID, payment.MethodBankTransfer, "90000")

	err := f.base.CheckPaymentLimits(context.Background(), userID, payment.MethodBankTransfer, dec("20000"), payment.TierPremium)
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrLimitExceeded)
	assert.Contains(t, err.Error(), "monthly limit of 100000 exceeded. Remaining: 10000")

	// the basic tier has no limits for bank transfers
	assert.NoError(t, f.base.CheckPaymentLimits(context.Background(), userID, payment.MethodBankTransfer, dec("20000"), ""))
}
