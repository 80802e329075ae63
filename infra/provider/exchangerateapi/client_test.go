package exchangerateapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"result": "success",
	"base_code": "USD",
	"conversion_rates": {"USD": 1, "RWF": 1250, "EUR": 0.8, "XXX": 0}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(&config.ExchangeRate{
		ApiUrl:            srv.URL + "/v6/",
		ApiKey:            "secret",
		HTTPTimeout:       time.Second,
		RequestsPerMinute: 600,
		BurstSize:         10,
		CacheTTL:          time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, &calls
}

func TestClient_USDRate(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/secret/latest/USD", r.URL.Path)
		_, _ = w.Write([]byte(okBody))
	})
	ctx := context.Background()

	rwf, err := c.USDRate(ctx, "rwf")
	require.NoError(t, err)
	assert.True(t, rwf.Equal(decimal.RequireFromString("0.0008")), rwf.String())

	eur, err := c.USDRate(ctx, "EUR")
	require.NoError(t, err)
	assert.True(t, eur.Equal(decimal.RequireFromString("1.25")), eur.String())

	usd, err := c.USDRate(ctx, "USD")
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.NewFromInt(1)))

	_, err = c.USDRate(ctx, "BTC")
	assert.ErrorIs(t, err, provider.ErrRateUnavailable)
	_, err = c.USDRate(ctx, "XXX")
	assert.ErrorIs(t, err, provider.ErrRateUnavailable)

	assert.Equal(t, int32(1), calls.Load(), "one fetch serves every symbol within the ttl")
}

func TestClient_RefetchesAfterTTL(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	})
	now := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Latest(context.Background())
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ConcurrentMissesShareOneRequest(t *testing.T) {
	release := make(chan struct{})
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(okBody))
	})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.USDRate(context.Background(), "RWF")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Errors(t *testing.T) {
	t.Run("non 200", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
		})
		_, err := c.USDRate(context.Background(), "RWF")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})

	t.Run("error result", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":"error","error-type":"quota-reached"}`))
		})
		_, err := c.USDRate(context.Background(), "RWF")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota-reached")
	})

	t.Run("missing key", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		c.apiKey = ""
		_, err := c.USDRate(context.Background(), "RWF")
		assert.ErrorIs(t, err, provider.ErrRateUnavailable)
		assert.Zero(t, calls.Load())
	})
}
