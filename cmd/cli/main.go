// Command cli runs operational tasks against the payment database:
// migrations, the expiry sweep, rate sync, and test helpers for webhooks
// and tokens.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		_, _ = errColor.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "marketpay-cli",
		Short:         "Operational commands for the marketpay payment service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load")

	loadConfig := func() (*config.App, error) {
		cfg, err := config.Load(envFile)
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		migrateCmd(loadConfig),
		sweepCmd(loadConfig),
		syncRatesCmd(loadConfig),
		signWebhookCmd(),
		issueTokenCmd(loadConfig),
	)
	return root
}

func success(cmd *cobra.Command, format string, args ...any) {
	_, _ = okColor.Fprintf(cmd.OutOrStdout(), "✔ "+format+"\n", args...)
}

func warn(cmd *cobra.Command, format string, args ...any) {
	_, _ = warnColor.Fprintf(cmd.OutOrStdout(), "! "+format+"\n", args...)
}
