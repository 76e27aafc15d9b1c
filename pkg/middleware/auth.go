// Package middleware holds the Fiber middleware shared by the HTTP
// routes.
package middleware

import (
	"errors"
	"fmt"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/config"
)

// ErrMissingClaim is returned when a required claim is absent or not a
// UUID.
var ErrMissingClaim = errors.New("missing or malformed token claim")

// JwtProtected guards a route with bearer token verification. The
// verified token lands in c.Locals("user").
func JwtProtected(cfg config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.Contains(err.Error(), "missing or malformed") ||
		strings.Contains(err.Error(), "Missing or malformed") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT"})
}

// UserID extracts the authenticated actor from the verified token.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	return claimUUID(c, "sub")
}

// StoreID extracts the caller's store from the verified token. Sellers
// carry exactly one store claim; handlers scope every query with it.
func StoreID(c *fiber.Ctx) (uuid.UUID, error) {
	return claimUUID(c, "store_id")
}

func claimUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: no token in context", ErrMissingClaim)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: unexpected claims type", ErrMissingClaim)
	}
	raw, ok := claims[name].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrMissingClaim, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s: %v", ErrMissingClaim, name, err)
	}
	return id, nil
}
