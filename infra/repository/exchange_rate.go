package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/amirasaad/marketpay/pkg/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type exchangeRateRepository struct {
	db *gorm.DB
}

// NewExchangeRateRepository creates an exchange rate repository over db.
func NewExchangeRateRepository(db *gorm.DB) repository.ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) Get(ctx context.Context, symbol string) (*payment.ExchangeRate, error) {
	var m ExchangeRate
	err := r.db.WithContext(ctx).Where("symbol = ?", strings.ToUpper(symbol)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *exchangeRateRepository) Upsert(ctx context.Context, rate *payment.ExchangeRate) error {
	m := ExchangeRate{
		Symbol:    strings.ToUpper(rate.Symbol),
		USDRate:   rate.USDRate,
		Source:    rate.Source,
		UpdatedAt: rate.UpdatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"usd_rate", "source", "updated_at"}),
		}).Create(&m).Error
	})
}

// TableRates serves USD rates from the exchange_rates table.
type TableRates struct {
	repo repository.ExchangeRateRepository
}

// NewTableRates creates a rate source over the exchange_rates table.
func NewTableRates(db *gorm.DB) *TableRates {
	return &TableRates{repo: NewExchangeRateRepository(db)}
}

func (t *TableRates) USDRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	rate, err := t.repo.Get(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if rate == nil || !rate.USDRate.IsPositive() {
		return decimal.Zero, provider.ErrRateUnavailable
	}
	return rate.USDRate, nil
}

var _ provider.RateSource = (*TableRates)(nil)
