// Package exchangerateapi reads fiat rates from exchangerate-api.com (v6).
package exchangerateapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Source is the value written to exchange_rates.source.
const Source = "exchangerate-api"

// latestResponse is the v6 /latest payload.
// See: https://www.exchangerate-api.com/docs/standard-requests
type latestResponse struct {
	Result             string             `json:"result"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	TimeNextUpdateUnix int64              `json:"time_next_update_unix"`
	BaseCode           string             `json:"base_code"`
	ConversionRates    map[string]float64 `json:"conversion_rates"`
	ErrorType          string             `json:"error-type,omitempty"`
}

type snapshot struct {
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// Client serves USD rates for fiat symbols. One /latest/USD call answers
// every symbol, so the response is kept for ttl and concurrent misses share
// a single request.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	last  *snapshot
}

// New creates a client from cfg.
func New(cfg *config.ExchangeRate, logger *slog.Logger) *Client {
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	if cfg.RequestsPerMinute <= 0 {
		perSecond = rate.Inf
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		apiKey:     cfg.ApiKey,
		baseURL:    strings.TrimRight(cfg.ApiUrl, "/"),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(perSecond, burst),
		ttl:        cfg.CacheTTL,
		logger:     logger.With("provider", Source),
		now:        time.Now,
	}
}

// USDRate returns the USD value of one unit of symbol.
func (c *Client) USDRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(symbol)
	if symbol == "USD" {
		return decimal.NewFromInt(1), nil
	}
	rates, err := c.Latest(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	perUSD, ok := rates[symbol]
	if !ok || !perUSD.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", provider.ErrRateUnavailable, symbol)
	}
	return decimal.NewFromInt(1).Div(perUSD), nil
}

// Latest returns units of each currency per USD.
func (c *Client) Latest(ctx context.Context) (map[string]decimal.Decimal, error) {
	c.mu.RLock()
	last := c.last
	c.mu.RUnlock()
	if last != nil && c.now().Sub(last.fetchedAt) < c.ttl {
		return last.rates, nil
	}

	v, err, _ := c.group.Do("latest", func() (any, error) {
		rates, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.last = &snapshot{rates: rates, fetchedAt: c.now()}
		c.mu.Unlock()
		return rates, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]decimal.Decimal), nil
}

func (c *Client) fetch(ctx context.Context) (rates map[string]decimal.Decimal, err error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: exchange rate api key is not set", provider.ErrRateUnavailable)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("exchange rate api: rate limiter: %w", err)
	}

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.ProviderLatency.WithLabelValues(Source, "latest", outcome).
			Observe(time.Since(start).Seconds())
	}()

	url := fmt.Sprintf("%s/%s/latest/USD", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Result != "success" {
		return nil, fmt.Errorf("API returned result=%s error=%s", apiResp.Result, apiResp.ErrorType)
	}

	rates = make(map[string]decimal.Decimal, len(apiResp.ConversionRates))
	for code, r := range apiResp.ConversionRates {
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(r)
	}
	c.logger.Info("Exchange rates fetched", "base", apiResp.BaseCode, "count", len(rates))
	return rates, nil
}

var _ provider.RateSource = (*Client)(nil)
