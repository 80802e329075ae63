package config

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Load applies the first env file found among paths and builds the
// configuration from the environment. Variables already exported win over
// the file. With no paths, .env is tried.
func Load(paths ...string) (*App, error) {
	logger := slog.Default().With("component", "config")
	if len(paths) == 0 {
		paths = []string{defaultEnvFile}
	}

	source := "environment"
	for _, p := range paths {
		found, err := LocateEnvFile(p)
		if err != nil {
			logger.Debug("env file not found", "path", p)
			continue
		}
		if err := godotenv.Load(found); err != nil {
			logger.Warn("env file could not be read", "path", found, "error", err)
			continue
		}
		source = found
		break
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("configuration loaded",
		"source", source,
		"env", cfg.Env,
		"server", cfg.Server.Addr(),
		"db", redact(cfg.DB.Url),
		"redis", redact(cfg.Redis.URL),
		"event_bus", cfg.EventBus.Driver,
		"rate_limit", cfg.RateLimit.MaxRequests,
		"transaction_ttl", cfg.Payment.TransactionTTL,
		"provider_timeout", cfg.Payment.ProviderTimeout,
		"sweep_interval", cfg.Payment.SweepInterval,
		"exchange_api_key", redact(cfg.ExchangeRate.ApiKey),
	)
	return &cfg, nil
}

// check rejects values the payment flow cannot run with.
func (a *App) check() error {
	p := a.Payment
	var errs []error
	if !currencyCode.MatchString(p.DefaultCurrency) {
		errs = append(errs, fmt.Errorf("PAYMENT_DEFAULT_CURRENCY %q is not an ISO 4217 code", p.DefaultCurrency))
	}
	if p.TransactionTTL <= 0 {
		errs = append(errs, errors.New("PAYMENT_TRANSACTION_TTL must be positive"))
	}
	if p.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_PROVIDER_TIMEOUT must be positive"))
	}
	if p.SweepInterval <= 0 || p.SweepBatchSize <= 0 {
		errs = append(errs, errors.New("PAYMENT_SWEEP_INTERVAL and PAYMENT_SWEEP_BATCH_SIZE must be positive"))
	}
	return errors.Join(errs...)
}
