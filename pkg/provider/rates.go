package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/marketpay/pkg/cache"
	"github.com/shopspring/decimal"
)

// ErrRateUnavailable is returned when no source knows a symbol.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateSource returns the USD value of one unit of a currency or crypto
// symbol.
type RateSource interface {
	USDRate(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// RateSourceFunc adapts a function to RateSource.
type RateSourceFunc func(ctx context.Context, symbol string) (decimal.Decimal, error)

func (f RateSourceFunc) USDRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return f(ctx, symbol)
}

// FallbackRates asks each source in order and returns the first answer.
type FallbackRates []RateSource

func (f FallbackRates) USDRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var errs []error
	for _, src := range f {
		rate, err := src.USDRate(ctx, symbol)
		if err == nil && rate.IsPositive() {
			return rate, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, symbol)
	}
	return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrRateUnavailable, symbol, errors.Join(errs...))
}

// CachedRates memoises a RateSource for ttl.
type CachedRates struct {
	source RateSource
	cache  cache.Cache
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewCachedRates wraps source with c.
func NewCachedRates(
	source RateSource,
	c cache.Cache,
	ttl time.Duration,
	prefix string,
	logger *slog.Logger,
) *CachedRates {
	return &CachedRates{
		source: source,
		cache:  c,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With("component", "cached-rates"),
	}
}

func (c *CachedRates) USDRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := c.prefix + strings.ToUpper(symbol)
	var cached decimal.Decimal
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("rate cache read failed", "symbol", symbol, "error", err)
	}
	if found {
		return cached, nil
	}

	rate, err := c.source.USDRate(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if err := c.cache.Set(ctx, key, rate, c.ttl); err != nil {
		c.logger.Warn("rate cache write failed", "symbol", symbol, "error", err)
	}
	return rate, nil
}
