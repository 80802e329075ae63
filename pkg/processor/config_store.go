package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/marketpay/pkg/cache"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
	"golang.org/x/sync/singleflight"
)

const configKeyPrefix = "payment:config:"

type cachedConfig struct {
	Found  bool                   `json:"found"`
	Config *payment.Configuration `json:"config,omitempty"`
}

// ConfigStore is a read-through cache over payment configuration rows.
// Entries live for ttl or until Invalidate is called for their method.
type ConfigStore struct {
	uow    repository.UnitOfWork
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewConfigStore creates a ConfigStore. A zero ttl disables caching.
func NewConfigStore(
	uow repository.UnitOfWork,
	c cache.Cache,
	ttl time.Duration,
	logger *slog.Logger,
) *ConfigStore {
	return &ConfigStore{
		uow:    uow,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("component", "config-store"),
	}
}

// Get returns the configuration row of method, or nil if there is none.
func (s *ConfigStore) Get(ctx context.Context, method payment.Method) (*payment.Configuration, error) {
	key := configKeyPrefix + string(method)
	if s.cache != nil && s.ttl > 0 {
		var entry cachedConfig
		found, err := s.cache.Get(ctx, key, &entry)
		if err != nil {
			s.logger.Warn("config cache read failed", "method", method, "error", err)
		}
		if found {
			return entry.Config, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		cfg, err := s.uow.Configurations().GetByMethod(ctx, method)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && s.ttl > 0 {
			entry := cachedConfig{Found: cfg != nil, Config: cfg}
			if err := s.cache.Set(ctx, key, entry, s.ttl); err != nil {
				s.logger.Warn("config cache write failed", "method", method, "error", err)
			}
		}
		return cfg, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", method, err)
	}
	cfg, _ := v.(*payment.Configuration)
	return cfg, nil
}

// Active returns the configuration of method and fails closed when it is
// missing or inactive.
func (s *ConfigStore) Active(ctx context.Context, method payment.Method) (*payment.Configuration, error) {
	cfg, err := s.Get(ctx, method)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrConfiguration, err)
	}
	if cfg == nil {
		return nil, payment.ConfigurationError(fmt.Sprintf("%s is not configured", method))
	}
	if !cfg.IsActive {
		return nil, payment.ConfigurationError(fmt.Sprintf("%s is not active", method))
	}
	return cfg, nil
}

// Invalidate drops the cached entry of method.
func (s *ConfigStore) Invalidate(ctx context.Context, method payment.Method) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, configKeyPrefix+string(method)); err != nil {
		return fmt.Errorf("failed to invalidate %s configuration: %w", method, err)
	}
	s.logger.Info("configuration cache invalidated", "method", method)
	return nil
}
