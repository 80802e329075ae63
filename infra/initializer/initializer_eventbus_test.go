package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	infra_eventbus "github.com/amirasaad/marketpay/infra/eventbus"
	infra_cache "github.com/amirasaad/marketpay/infra/cache"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitEventBus_DefaultsToMemoryAsyncWhenNoExplicitDriver(t *testing.T) {
	cfg := &config.App{
		Redis:    &config.Redis{URL: "redis://localhost:6379/0"},
		EventBus: &config.EventBus{Driver: ""},
	}

	bus, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_ExplicitRedisRequiresURL(t *testing.T) {
	cfg := &config.App{
		Redis:    &config.Redis{URL: ""},
		EventBus: &config.EventBus{Driver: "redis", RedisURL: ""},
	}

	_, err := initEventBus(cfg, discard())
	require.Error(t, err)
}

func TestInitEventBus_RedisConnectionErrorFallsBackToMemoryAsync(t *testing.T) {
	cfg := &config.App{
		EventBus: &config.EventBus{Driver: "redis", RedisURL: "redis://127.0.0.1:1"},
	}

	bus, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_ExplicitKafkaRequiresBrokers(t *testing.T) {
	cfg := &config.App{
		EventBus: &config.EventBus{Driver: "kafka", KafkaBrokers: ""},
	}

	_, err := initEventBus(cfg, discard())
	require.Error(t, err)
}

func TestInitEventBus_KafkaConnectionErrorFallsBackToMemoryAsync(t *testing.T) {
	cfg := &config.App{
		EventBus: &config.EventBus{Driver: "kafka", KafkaBrokers: "127.0.0.1:1"},
	}

	bus, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_UnsupportedDriverErrors(t *testing.T) {
	cfg := &config.App{
		EventBus: &config.EventBus{Driver: "nope"},
	}

	_, err := initEventBus(cfg, discard())
	require.Error(t, err)
}

func TestInitCache_FallsBackToMemory(t *testing.T) {
	cfg := &config.App{Redis: &config.Redis{URL: "redis://127.0.0.1:1"}}

	c, closeFn := initCache(cfg, discard())
	t.Cleanup(func() { _ = closeFn() })
	assert.IsType(t, &infra_cache.MemoryCache{}, c)
}

func TestNewLogger_JSONFormat(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Prefix: "[marketpay]"})
	logger.Info("payment initiated", "reference", "PAY-1")

	out := buf.String()
	assert.Contains(t, out, `"msg":"payment initiated"`)
	assert.Contains(t, out, `"reference":"PAY-1"`)
	assert.Same(t, logger, slog.Default())
}
