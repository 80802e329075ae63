package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/pkg/repository"
)

// Expirer expires a single stale transaction.
type Expirer interface {
	ExpireIfStale(ctx context.Context, reference string) (bool, error)
}

// Sweeper expires pending transactions nobody verified in time.
type Sweeper struct {
	uow      repository.UnitOfWork
	expirer  Expirer
	batch    int
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewSweeper creates a sweeper scanning batch rows at a time every
// interval.
func NewSweeper(
	uow repository.UnitOfWork,
	expirer Expirer,
	batch int,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	if batch <= 0 {
		batch = 100
	}
	return &Sweeper{
		uow:      uow,
		expirer:  expirer,
		batch:    batch,
		interval: interval,
		now:      time.Now,
		logger:   logger.With("service", "expiry-sweeper"),
	}
}

// WithClock overrides the sweeper's time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// SweepOnce expires every stale pending transaction and returns how many
// it changed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	total := 0
	for {
		stale, err := s.uow.Transactions().ListExpiredPending(ctx, s.now(), s.batch)
		if err != nil {
			return total, err
		}
		expired := 0
		for _, tx := range stale {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			ok, err := s.expirer.ExpireIfStale(ctx, tx.Reference)
			if err != nil {
				s.logger.Error("failed to expire transaction", "reference", tx.Reference, "error", err)
				continue
			}
			if ok {
				expired++
				metrics.ExpiredSwept.Inc()
			}
		}
		total += expired
		if len(stale) < s.batch || expired == 0 {
			break
		}
	}
	if total > 0 {
		s.logger.Info("expired stale transactions", "count", total)
	}
	return total, nil
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables it.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("expiry sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}
