package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository over db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *payment.Transaction) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toTransactionModel(tx)).Error
	})
}

func (r *transactionRepository) getBy(ctx context.Context, column, value string) (*payment.Transaction, error) {
	var m Transaction
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*payment.Transaction, error) {
	return r.getBy(ctx, "reference", reference)
}

func (r *transactionRepository) GetByProviderReference(
	ctx context.Context,
	providerRef string,
) (*payment.Transaction, error) {
	return r.getBy(ctx, "provider_reference", providerRef)
}

// UpdateStatus writes status, completed_at and updated_at together and
// merges provider data into provider_response.
func (r *transactionRepository) UpdateStatus(
	ctx context.Context,
	reference string,
	update payment.StatusUpdate,
) error {
	updates := map[string]any{
		"status":       string(update.Status),
		"completed_at": update.CompletedAt,
		"updated_at":   update.UpdatedAt,
	}
	if len(update.ProviderData) > 0 {
		updates["provider_response"] = gorm.Expr(
			"COALESCE(provider_response, '{}'::jsonb) || ?::jsonb",
			datatypes.JSONMap(update.ProviderData),
		)
	}
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("reference = ?", reference).
		Updates(updates)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: transaction %s", payment.ErrNotFound, reference)
	}
	return nil
}

func (r *transactionRepository) SetProviderReference(ctx context.Context, reference, providerRef string) error {
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("reference = ?", reference).
		Update("provider_reference", providerRef)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: transaction %s", payment.ErrNotFound, reference)
	}
	return nil
}

func (r *transactionRepository) SumSince(
	ctx context.Context,
	userID uuid.UUID,
	method payment.Method,
	since, now time.Time,
) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND payment_method = ? AND created_at >= ?", userID, string(method), since).
		Where("transaction_type <> ?", string(payment.TypeRefund)).
		Where("(status = ? OR (status = ? AND expires_at > ?))",
			string(payment.StatusCompleted), string(payment.StatusPending), now).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, MapGormErrorToDomain(err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *transactionRepository) ListExpiredPending(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*payment.Transaction, error) {
	var rows []Transaction
	q := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", string(payment.StatusPending), now).
		Order("expires_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*payment.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
