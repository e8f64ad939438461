package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kelasku/kelasku-go-api/internal/utils"
)

// JWTProtected validates the bearer token and binds the caller's identity
// into request locals as "user_id" (uint) and "user_role" (string).
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, errMsg := parseBearer(c, secret)
		if errMsg != "" {
			return utils.SendError(c, fiber.StatusUnauthorized, errMsg)
		}

		userID, ok := subjectID(claims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}
		c.Locals("user_id", userID)

		if role, ok := claims["role"].(string); ok {
			c.Locals("user_role", strings.ToLower(strings.TrimSpace(role)))
		}

		return c.Next()
	}
}

// JWTOptional populates identity locals when a valid bearer token is present
// and lets anonymous requests through untouched. Catalog endpoints use it to
// personalize responses without requiring login.
func JWTOptional(secret string) fiber.Handler {
	required := JWTProtected(secret)
	return func(c *fiber.Ctx) error {
		if strings.TrimSpace(c.Get("Authorization")) == "" {
			return c.Next()
		}
		return required(c)
	}
}

// parseBearer verifies the Authorization header and returns the token claims,
// or a client-facing error message when verification fails.
func parseBearer(c *fiber.Ctx, secret string) (jwt.MapClaims, string) {
	authorization := strings.TrimSpace(c.Get("Authorization"))
	if authorization == "" {
		return nil, "authorization header missing"
	}

	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return nil, "invalid authorization header"
	}
	tokenString := strings.TrimSpace(authorization[len(bearer):])

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, "invalid token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "invalid token claims"
	}
	return claims, ""
}

// subjectID reads the user identifier from the sub claim. Tokens minted by
// this API carry sub as a decimal string; numeric subs from other issuers
// are tolerated.
func subjectID(claims jwt.MapClaims) (uint, bool) {
	switch v := claims["sub"].(type) {
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return uint(parsed), true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
