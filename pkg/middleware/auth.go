// Package middleware holds the fiber middleware shared by the HTTP routes.
package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userContextKey = "user"

var (
	// ErrUnauthorized is returned when the request carries no usable identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// Claims is the identity carried by a marketplace token.
type Claims struct {
	UserID uuid.UUID
	Role   string
	Tier   payment.Tier
}

// JwtProtected verifies the bearer token with the shared HS256 secret.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: []byte(cfg.Secret)},
		ContextKey:   userContextKey,
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return problem(c, fiber.StatusBadRequest, "Missing or malformed JWT", err.Error())
	}
	return problem(c, fiber.StatusUnauthorized, "Invalid or expired JWT", err.Error())
}

// RequireRole lets the request through only when the token's role claim
// equals role. It must run after JwtProtected.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := CurrentClaims(c)
		if err != nil {
			return problem(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		if claims.Role != role {
			return problem(c, fiber.StatusForbidden, "Forbidden", ErrForbidden.Error())
		}
		return c.Next()
	}
}

// CurrentClaims reads the verified token from the request context.
func CurrentClaims(c *fiber.Ctx) (*Claims, error) {
	token, ok := c.Locals(userContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrUnauthorized
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	raw, ok := mapClaims["user_id"].(string)
	if !ok {
		return nil, ErrUnauthorized
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrUnauthorized
	}
	role, _ := mapClaims["role"].(string)
	tier, _ := mapClaims["tier"].(string)
	return &Claims{UserID: userID, Role: role, Tier: payment.Tier(tier)}, nil
}

// IssueToken signs an HS256 token carrying claims, valid for ttl.
func IssueToken(cfg *config.Jwt, claims Claims, ttl time.Duration) (string, error) {
	mc := jwt.MapClaims{
		"user_id": claims.UserID.String(),
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	if claims.Role != "" {
		mc["role"] = claims.Role
	}
	if claims.Tier != "" {
		mc["tier"] = string(claims.Tier)
	}
	if cfg.Issuer != "" {
		mc["iss"] = cfg.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(cfg.Secret))
}

type problemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func problem(c *fiber.Ctx, status int, title, detail string) error {
	return c.Status(status).JSON(problemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
	}, "application/problem+json")
}
