// Package initializer builds the infrastructure behind app.Deps from
// configuration.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amirasaad/marketpay/infra"
	infra_cache "github.com/amirasaad/marketpay/infra/cache"
	infra_eventbus "github.com/amirasaad/marketpay/infra/eventbus"
	"github.com/amirasaad/marketpay/infra/provider/exchangerateapi"
	"github.com/amirasaad/marketpay/infra/provider/mtnmomo"
	infra_repository "github.com/amirasaad/marketpay/infra/repository"
	"github.com/amirasaad/marketpay/pkg/app"
	"github.com/amirasaad/marketpay/pkg/cache"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/eventbus"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitializeDependencies connects to the database, cache, and event bus and
// builds the provider clients. The returned cleanup releases them.
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	cleanup func(),
	err error,
) {
	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}
	var closers []func() error
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("cleanup failed", "error", err)
			}
		}
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, sqlDB.Close)
	}
	if cfg.DB.Migrate {
		if err := infra.RunMigrations(db, logger); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	deps.Uow = infra_repository.NewUoW(db)

	c, closeCache := initCache(cfg, logger)
	closers = append(closers, closeCache)
	deps.Cache = c

	bus, err := initEventBus(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	if cl, ok := bus.(io.Closer); ok {
		closers = append(closers, cl.Close)
	}
	deps.EventBus = bus

	initRates(deps, cfg, db, c, logger)
	deps.MobileMoney = mtnmomo.New(&http.Client{Timeout: cfg.Payment.ProviderTimeout}, logger)

	return deps, cleanup, nil
}

// initCache uses Redis when configured and reachable, memory otherwise.
func initCache(cfg *config.App, logger *slog.Logger) (cache.Cache, func() error) {
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		timeout := cfg.Redis.DialTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		client, err := infra_cache.NewRedisClient(ctx, cfg.Redis.URL, func(o *redis.Options) {
			o.PoolSize = cfg.Redis.PoolSize
			o.DialTimeout = cfg.Redis.DialTimeout
			o.ReadTimeout = cfg.Redis.ReadTimeout
			o.WriteTimeout = cfg.Redis.WriteTimeout
		})
		if err == nil {
			logger.Info("Using Redis cache", "prefix", cfg.Redis.KeyPrefix)
			return infra_cache.NewRedisCache(client, cfg.Redis.KeyPrefix, logger), client.Close
		}
		logger.Warn("Redis cache unavailable, falling back to memory", "error", err)
	}
	mem := infra_cache.NewMemoryCache()
	return mem, func() error { mem.Close(); return nil }
}

// initEventBus picks the bus by cfg.EventBus.Driver. An empty driver means
// in-process. Redis and Kafka fall back to in-process when unreachable.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	ebCfg := cfg.EventBus
	if ebCfg == nil {
		ebCfg = &config.EventBus{}
	}
	driver := strings.ToLower(strings.TrimSpace(ebCfg.Driver))

	switch driver {
	case "", "memory":
		return infra_eventbus.NewWithMemoryAsync(logger), nil

	case "redis":
		url := ebCfg.RedisURL
		if url == "" && cfg.Redis != nil {
			url = cfg.Redis.URL
		}
		if url == "" {
			return nil, errors.New("redis event bus requires EVENT_BUS_REDIS_URL or REDIS_URL")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := infra_cache.NewRedisClient(ctx, url, nil)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to memory", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger), nil
		}
		stream := ebCfg.Stream
		if stream == "" {
			stream = "marketpay:events"
		}
		return infra_eventbus.NewWithRedis(client, stream, "marketpay", events.Factories(), logger)

	case "kafka":
		if strings.TrimSpace(ebCfg.KafkaBrokers) == "" {
			return nil, errors.New("kafka event bus requires EVENT_BUS_KAFKA_BROKERS")
		}
		kcfg := infra_eventbus.DefaultKafkaEventBusConfig()
		if ebCfg.KafkaGroupID != "" {
			kcfg.GroupID = ebCfg.KafkaGroupID
		}
		if ebCfg.KafkaTopicPrefix != "" {
			kcfg.TopicPrefix = ebCfg.KafkaTopicPrefix
		}
		bus, err := infra_eventbus.NewWithKafka(ebCfg.KafkaBrokers, events.Factories(), logger, kcfg)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to memory", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger), nil
		}
		return bus, nil
	}
	return nil, fmt.Errorf("unsupported event bus driver %q", ebCfg.Driver)
}

// initRates prices currencies from the live API when a key is configured,
// falling back to the exchange_rates table.
func initRates(deps *app.Deps, cfg *config.App, db *gorm.DB, c cache.Cache, logger *slog.Logger) {
	table := infra_repository.NewTableRates(db)
	if cfg.ExchangeRate == nil || cfg.ExchangeRate.ApiKey == "" {
		logger.Info("No exchange rate API key, using stored rates only")
		deps.Rates = table
		return
	}
	live := exchangerateapi.New(cfg.ExchangeRate, logger)
	deps.LiveRates = live
	deps.LiveRatesName = exchangerateapi.Source
	deps.Rates = provider.FallbackRates{
		provider.NewCachedRates(live, c, cfg.ExchangeRate.CacheTTL, cfg.ExchangeRate.CachePrefix, logger),
		table,
	}
}
