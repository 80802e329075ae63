package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func cliLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}

// signWebhookCmd prints the signature header value for a payload, for
// replaying provider callbacks by hand.
func signWebhookCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "sign-webhook [file]",
		Short: "Print the X-Webhook-Signature for a payload (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			var (
				body []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				body, err = os.ReadFile(args[0])
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), payment.SignPayload(secret, body))
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "webhook secret of the payment method")
	return cmd
}

func issueTokenCmd(load configLoader) *cobra.Command {
	var (
		secret string
		role   string
		tier   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Issue a signed JWT for testing the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			jwtCfg := &config.Jwt{Secret: secret}
			if secret == "" {
				cfg, err := load()
				if err != nil {
					return err
				}
				jwtCfg = cfg.Auth.Jwt
			}
			token, err := middleware.IssueToken(jwtCfg, middleware.Claims{
				UserID: userID,
				Role:   role,
				Tier:   payment.Tier(tier),
			}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default: AUTH_JWT_SECRET)")
	cmd.Flags().StringVar(&role, "role", "", "role claim, e.g. admin")
	cmd.Flags().StringVar(&tier, "tier", "", "tier claim, e.g. premium")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
