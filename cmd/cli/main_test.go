package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSignWebhook_FromStdin(t *testing.T) {
	payload := `{"reference":"PAY-1","status":"completed"}`
	out, err := execute(t, payload, "sign-webhook", "--secret", "whsec")
	require.NoError(t, err)
	assert.Equal(t, payment.SignPayload("whsec", []byte(payload)), strings.TrimSpace(out))

	hook := payment.Webhook{Payload: []byte(payload), Signature: strings.TrimSpace(out)}
	assert.True(t, hook.ValidSignature("whsec"))
}

func TestSignWebhook_RequiresSecret(t *testing.T) {
	_, err := execute(t, "{}", "sign-webhook")
	assert.ErrorContains(t, err, "--secret")
}

func TestIssueToken_CarriesClaims(t *testing.T) {
	userID := "5b0c1c1e-8a9e-4f55-9d35-0f7d0b6f1a11"
	out, err := execute(t, "", "issue-token", userID, "--secret", "cli-secret", "--role", "admin", "--tier", "premium")
	require.NoError(t, err)

	token, err := jwt.Parse(strings.TrimSpace(out), func(*jwt.Token) (any, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, userID, claims["user_id"])
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "premium", claims["tier"])
}

func TestIssueToken_RejectsBadUserID(t *testing.T) {
	_, err := execute(t, "", "issue-token", "not-a-uuid", "--secret", "s")
	assert.ErrorContains(t, err, "invalid user id")
}

func TestMigrateDown_RejectsBadSteps(t *testing.T) {
	_, err := execute(t, "", "migrate", "down", "zero")
	assert.ErrorContains(t, err, "invalid steps")
}
