package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a wallet repository over db.
func NewWalletRepository(db *gorm.DB) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*payment.Wallet, error) {
	var m Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

// Debit subtracts amount in a single conditional update so the balance can
// never go negative.
func (r *walletRepository) Debit(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	res := r.db.WithContext(ctx).
		Model(&Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return decimal.Zero, MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		w, err := r.GetByUserID(ctx, userID)
		if err != nil {
			return decimal.Zero, err
		}
		if w == nil {
			return decimal.Zero, fmt.Errorf("%w: wallet of user %s", payment.ErrNotFound, userID)
		}
		return decimal.Zero, payment.ErrInsufficientBalance
	}
	return r.balance(ctx, userID)
}

func (r *walletRepository) Credit(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	res := r.db.WithContext(ctx).
		Model(&Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return decimal.Zero, MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, fmt.Errorf("%w: wallet of user %s", payment.ErrNotFound, userID)
	}
	return r.balance(ctx, userID)
}

func (r *walletRepository) balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	w, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if w == nil {
		return decimal.Zero, fmt.Errorf("%w: wallet of user %s", payment.ErrNotFound, userID)
	}
	return w.Balance, nil
}
