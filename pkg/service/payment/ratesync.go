package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/amirasaad/marketpay/pkg/repository"
)

// RateSync copies USD rates from a live source into the exchange_rates
// table, which serves as the fallback when the source is unreachable.
type RateSync struct {
	source     provider.RateSource
	sourceName string
	uow        repository.UnitOfWork
	logger     *slog.Logger
	now        func() time.Time
}

// NewRateSync creates a sync reading from source.
func NewRateSync(
	source provider.RateSource,
	sourceName string,
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *RateSync {
	return &RateSync{
		source:     source,
		sourceName: sourceName,
		uow:        uow,
		logger:     logger.With("service", "rate-sync"),
		now:        time.Now,
	}
}

// Sync stores the rate of every symbol the source knows and returns how
// many were written. Symbols the source cannot price are reported in the
// joined error but do not stop the others.
func (s *RateSync) Sync(ctx context.Context, symbols []string) (int, error) {
	var (
		written int
		errs    []error
	)
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		rate, err := s.source.USDRate(ctx, symbol)
		if err != nil {
			s.logger.Warn("rate unavailable", "symbol", symbol, "error", err)
			errs = append(errs, err)
			continue
		}
		err = s.uow.ExchangeRates().Upsert(ctx, &payment.ExchangeRate{
			Symbol:    symbol,
			USDRate:   rate,
			Source:    s.sourceName,
			UpdatedAt: s.now(),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("store %s rate: %w", symbol, err))
			continue
		}
		written++
	}
	s.logger.Info("exchange rates synced", "written", written, "requested", len(symbols))
	return written, errors.Join(errs...)
}
