package repository

import (
	"context"
	"errors"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"gorm.io/gorm"
)

type configurationRepository struct {
	db *gorm.DB
}

// NewConfigurationRepository creates a configuration repository over db.
func NewConfigurationRepository(db *gorm.DB) repository.ConfigurationRepository {
	return &configurationRepository{db: db}
}

func (r *configurationRepository) GetByMethod(
	ctx context.Context,
	method payment.Method,
) (*payment.Configuration, error) {
	var m PaymentConfiguration
	err := r.db.WithContext(ctx).Where("payment_method = ?", string(method)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *configurationRepository) List(ctx context.Context) ([]*payment.Configuration, error) {
	var rows []PaymentConfiguration
	if err := r.db.WithContext(ctx).Order("payment_method").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*payment.Configuration, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

type limitRepository struct {
	db *gorm.DB
}

// NewLimitRepository creates a limit repository over db.
func NewLimitRepository(db *gorm.DB) repository.LimitRepository {
	return &limitRepository{db: db}
}

func (r *limitRepository) Get(
	ctx context.Context,
	method payment.Method,
	tier payment.Tier,
) (*payment.MethodLimit, error) {
	var m MethodLimit
	err := r.db.WithContext(ctx).
		Where("payment_method = ? AND user_tier = ?", string(method), string(tier)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}
