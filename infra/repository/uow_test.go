package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUoW_DoSharesSession(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		inner, ok := txUow.(*UoW)
		require.True(t, ok)
		assert.NotNil(t, inner.tx)

		txRepo, ok := txUow.Transactions().(*transactionRepository)
		require.True(t, ok)
		assert.Same(t, inner.tx, txRepo.db)

		// nested units join the outer transaction
		return txUow.Do(context.Background(), func(repository.UnitOfWork) error { return nil })
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoSerializableRetries(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err := uow.DoSerializable(context.Background(), func(repository.UnitOfWork) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoSerializableGivesUp(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db).WithRetries(2)

	for range 2 {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	attempts := 0
	err := uow.DoSerializable(context.Background(), func(repository.UnitOfWork) error {
		attempts++
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	})
	assert.ErrorIs(t, err, payment.ErrConflict)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoSerializableDoesNotRetryDomainErrors(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	attempts := 0
	err := uow.DoSerializable(context.Background(), func(repository.UnitOfWork) error {
		attempts++
		return payment.ErrLimitExceeded
	})
	assert.ErrorIs(t, err, payment.ErrLimitExceeded)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
