package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/amirasaad/marketpay/internal/fixtures/memstore"
	"github.com/amirasaad/marketpay/pkg/app"
	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/webapi"
	"github.com/stretchr/testify/require"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	logger := slog.Default()
	cfg := &config.App{
		Auth:    &config.Auth{Jwt: &config.Jwt{Secret: "server-secret", AdminRole: "admin"}},
		Payment: &config.Payment{DefaultTier: "basic", SweepInterval: 0},
	}
	a := app.New(&app.Deps{Uow: memstore.New(), Logger: logger}, cfg)
	fiberApp := webapi.SetupApp(a)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, fiberApp, ln, a, logger) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
