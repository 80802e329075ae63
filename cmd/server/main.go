package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/marketpay/infra/initializer"
	"github.com/amirasaad/marketpay/pkg/app"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/webapi"
	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

// @title Marketpay API
// @version 1.0.0
// @description Marketplace payment processing API
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()
	logger := deps.Logger

	metrics.Init()
	a := app.New(deps, cfg)
	fiberApp := webapi.SetupApp(a)

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr(), err)
	}
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", ln.Addr().String(),
		"scheme", cfg.Server.Scheme,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, fiberApp, ln, a, logger)
}

// serve runs the HTTP server and the expiry sweeper until ctx is done,
// then drains in-flight requests.
func serve(ctx context.Context, fiberApp *fiber.App, ln net.Listener, a *app.App, logger *slog.Logger) error {
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go a.Sweeper.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listener(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	cancelSweep()
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
