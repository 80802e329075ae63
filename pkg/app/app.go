// Package app assembles the payment services from their dependencies.
package app

import (
	"log/slog"

	"github.com/amirasaad/marketpay/pkg/cache"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/eventbus"
	"github.com/amirasaad/marketpay/pkg/processor"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/amirasaad/marketpay/pkg/repository"
	paymentsvc "github.com/amirasaad/marketpay/pkg/service/payment"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow         repository.UnitOfWork
	Cache       cache.Cache
	EventBus    eventbus.Bus
	MobileMoney provider.MobileMoney
	// Rates prices currencies in USD for crypto quotes.
	Rates provider.RateSource
	// LiveRates is the upstream RateSync copies into the rates table.
	LiveRates     provider.RateSource
	LiveRatesName string
	Logger        *slog.Logger
}

type App struct {
	Deps     *Deps
	Config   *config.App
	Configs  *processor.ConfigStore
	Base     *processor.Base
	Registry *processor.Registry
	Methods  *paymentsvc.MethodsService
	Sweeper  *paymentsvc.Sweeper
	RateSync *paymentsvc.RateSync
}

func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	logger := deps.Logger
	a := &App{
		Deps:   deps,
		Config: cfg,
	}

	a.Configs = processor.NewConfigStore(deps.Uow, deps.Cache, cfg.Payment.ConfigCacheTTL, logger)

	opts := []processor.BaseOption{processor.WithTransactionTTL(cfg.Payment.TransactionTTL)}
	if deps.EventBus != nil {
		opts = append(opts, processor.WithEventBus(deps.EventBus))
	}
	a.Base = processor.NewBase(deps.Uow, a.Configs, logger, opts...)

	a.Registry = processor.NewRegistry(processor.Deps{
		Base:            a.Base,
		MobileMoney:     deps.MobileMoney,
		Rates:           deps.Rates,
		ProviderTimeout: cfg.Payment.ProviderTimeout,
		Logger:          logger,
	})
	a.Methods = paymentsvc.NewMethodsService(a.Registry, deps.Uow, logger)
	a.Sweeper = paymentsvc.NewSweeper(
		deps.Uow,
		a.Base,
		cfg.Payment.SweepBatchSize,
		cfg.Payment.SweepInterval,
		logger,
	)
	if deps.LiveRates != nil {
		a.RateSync = paymentsvc.NewRateSync(deps.LiveRates, deps.LiveRatesName, deps.Uow, logger)
	}

	if deps.EventBus != nil {
		a.setupEventBus(logger)
	}
	return a
}
