package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amirasaad/marketpay/infra"
	"github.com/amirasaad/marketpay/infra/initializer"
	"github.com/amirasaad/marketpay/pkg/app"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/spf13/cobra"
)

type configLoader func() (*config.App, error)

func migrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
			if err != nil {
				return err
			}
			if err := infra.RunMigrations(db, cliLogger(cmd)); err != nil {
				return err
			}
			success(cmd, "migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the given number of migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid steps %q", args[0])
				}
				steps = n
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
			if err != nil {
				return err
			}
			if err := infra.RollbackMigrations(db, steps); err != nil {
				return err
			}
			success(cmd, "rolled back %d migration(s)", steps)
			return nil
		},
	})
	return cmd
}

// withApp builds the full dependency graph for commands that run services.
func withApp(load configLoader, fn func(cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		deps, cleanup, err := initializer.InitializeDependencies(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		return fn(cmd, app.New(deps, cfg))
	}
}

func sweepCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire pending transactions past their window once",
		Args:  cobra.NoArgs,
		RunE: withApp(load, func(cmd *cobra.Command, a *app.App) error {
			n, err := a.Sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			success(cmd, "expired %d transaction(s)", n)
			return nil
		}),
	}
}

func syncRatesCmd(load configLoader) *cobra.Command {
	var symbols []string
	cmd := &cobra.Command{
		Use:   "sync-rates",
		Short: "Copy live USD rates into the exchange_rates table",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil,
		"symbols to sync (default: payment currency plus enabled cryptos)")
	cmd.RunE = withApp(load, func(cmd *cobra.Command, a *app.App) error {
		if a.RateSync == nil {
			return fmt.Errorf("no live rate source configured (set EXCHANGE_RATE_API_KEY)")
		}
		if len(symbols) == 0 {
			symbols = defaultSymbols(cmd, a)
		}
		n, err := a.RateSync.Sync(cmd.Context(), symbols)
		if err != nil {
			warn(cmd, "some rates failed: %v", err)
		}
		success(cmd, "stored %d rate(s) for %s", n, strings.Join(symbols, ","))
		return nil
	})
	return cmd
}

func defaultSymbols(cmd *cobra.Command, a *app.App) []string {
	symbols := []string{a.Config.Payment.DefaultCurrency}
	cfg, err := a.Configs.Get(cmd.Context(), payment.MethodCrypto)
	if err != nil || cfg == nil {
		return symbols
	}
	return append(symbols, cfg.Data.EnabledCryptos...)
}
