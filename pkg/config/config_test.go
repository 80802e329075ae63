package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/marketpay")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "localhost:3000", cfg.Server.Addr())
	assert.Equal(t, "RWF", cfg.Payment.DefaultCurrency)
	assert.Equal(t, 15*time.Minute, cfg.Payment.TransactionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Payment.ConfigCacheTTL)
	assert.Equal(t, "memory", cfg.EventBus.Driver)
	assert.Equal(t, "admin", cfg.Auth.Jwt.AdminRole)
	assert.Equal(t, 60, cfg.ExchangeRate.RequestsPerMinute)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	os.Unsetenv("AUTH_JWT_SECRET") //nolint:errcheck

	_, err := Load("does-not-exist.env")
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AUTH_JWT_SECRET=from-file\nPAYMENT_TRANSACTION_TTL=20m\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("PAYMENT_TRANSACTION_TTL", "")
	os.Unsetenv("AUTH_JWT_SECRET")         //nolint:errcheck
	os.Unsetenv("PAYMENT_TRANSACTION_TTL") //nolint:errcheck

	cfg, err := Load("test.env")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.Jwt.Secret)
	assert.Equal(t, 20*time.Minute, cfg.Payment.TransactionTTL)
}

func TestLoad_RejectsUnusablePaymentSettings(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("PAYMENT_DEFAULT_CURRENCY", "rwf")
	t.Setenv("PAYMENT_TRANSACTION_TTL", "0s")

	_, err := Load("does-not-exist.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_DEFAULT_CURRENCY")
	assert.Contains(t, err.Error(), "PAYMENT_TRANSACTION_TTL")
}

func TestLocateEnvFile(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("X=1\n"), 0o600))
	t.Chdir(nested)

	found, err := LocateEnvFile(".env.test")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".env.test"), found)

	abs, err := LocateEnvFile(found)
	require.NoError(t, err)
	assert.Equal(t, found, abs)

	_, err = LocateEnvFile("nope.env")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", redact(""))
	assert.Equal(t, "****", redact("abc"))
	assert.Equal(t, "po****1234", redact("postgres://secret1234"))
}
