package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwt = &config.Jwt{Secret: "test-secret", AdminRole: "admin"}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JwtProtected(testJwt), func(c *fiber.Ctx) error {
		claims, err := CurrentClaims(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(fiber.Map{"user_id": claims.UserID, "tier": claims.Tier})
	})
	app.Get("/admin", JwtProtected(testJwt), RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestJwtProtected_MissingToken(t *testing.T) {
	resp := get(t, protectedApp(), "/me", "")
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}

func TestJwtProtected_WrongSecret(t *testing.T) {
	token, err := IssueToken(&config.Jwt{Secret: "other"}, Claims{UserID: uuid.New()}, time.Hour)
	require.NoError(t, err)
	resp := get(t, protectedApp(), "/me", token)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJwtProtected_Expired(t *testing.T) {
	token, err := IssueToken(testJwt, Claims{UserID: uuid.New()}, -time.Minute)
	require.NoError(t, err)
	resp := get(t, protectedApp(), "/me", token)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJwtProtected_Valid(t *testing.T) {
	token, err := IssueToken(testJwt, Claims{UserID: uuid.New(), Tier: "premium"}, time.Hour)
	require.NoError(t, err)
	resp := get(t, protectedApp(), "/me", token)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app := protectedApp()

	user, err := IssueToken(testJwt, Claims{UserID: uuid.New(), Role: "seller"}, time.Hour)
	require.NoError(t, err)
	resp := get(t, app, "/admin", user)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	admin, err := IssueToken(testJwt, Claims{UserID: uuid.New(), Role: "admin"}, time.Hour)
	require.NoError(t, err)
	resp2 := get(t, app, "/admin", admin)
	defer resp2.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusNoContent, resp2.StatusCode)
}

func TestJwtError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.New("missing or malformed JWT"), fiber.StatusBadRequest},
		{errors.New("token is expired"), fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error { return jwtError(c, tc.err) })
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, tc.err.Error())
		_ = resp.Body.Close()
	}
}
