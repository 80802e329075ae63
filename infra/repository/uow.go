package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"gorm.io/gorm"
)

// DefaultSerializableRetries bounds DoSerializable attempts.
const DefaultSerializableRetries = 3

// UoW provides the transaction boundary and repository access in one
// abstraction. Repositories obtained inside Do share its session.
type UoW struct {
	db      *gorm.DB
	tx      *gorm.DB
	retries int
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db, retries: DefaultSerializableRetries}
}

// WithRetries returns a copy of u that makes at most n serializable attempts.
func (u *UoW) WithRetries(n int) *UoW {
	c := *u
	if n > 0 {
		c.retries = n
	}
	return &c
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// Do runs fn in a transaction. Inside an outer Do it joins the outer
// transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, retries: u.retries})
	})
}

// DoSerializable runs fn at serializable isolation. Serialization failures
// are retried; when attempts run out the result is payment.ErrConflict.
func (u *UoW) DoSerializable(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	var err error
	for attempt := 1; attempt <= u.retries; attempt++ {
		err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&UoW{db: u.db, tx: tx, retries: u.retries})
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err == nil || !isRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	if errors.Is(err, payment.ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %w", payment.ErrConflict, err)
}

func (u *UoW) Transactions() repository.TransactionRepository {
	return NewTransactionRepository(u.session())
}

func (u *UoW) Configurations() repository.ConfigurationRepository {
	return NewConfigurationRepository(u.session())
}

func (u *UoW) Limits() repository.LimitRepository {
	return NewLimitRepository(u.session())
}

func (u *UoW) Wallets() repository.WalletRepository {
	return NewWalletRepository(u.session())
}

func (u *UoW) Refunds() repository.RefundRepository {
	return NewRefundRepository(u.session())
}

func (u *UoW) WebhookLogs() repository.WebhookLogRepository {
	return NewWebhookLogRepository(u.session())
}

func (u *UoW) ExchangeRates() repository.ExchangeRateRepository {
	return NewExchangeRateRepository(u.session())
}

var _ repository.UnitOfWork = (*UoW)(nil)
