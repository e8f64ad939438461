package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func identityApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", JWTProtected(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"role":    c.Locals("user_role"),
		})
	})
	return app
}

func TestJWTProtectedBindsIdentity(t *testing.T) {
	app := identityApp()

	token := signToken(t, jwt.MapClaims{
		"sub":  "42",
		"role": "Instructor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := identityApp()

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestJWTProtectedRejectsExpiredToken(t *testing.T) {
	app := identityApp()

	token := signToken(t, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTOptionalPassesAnonymousThrough(t *testing.T) {
	app := fiber.New()
	app.Get("/catalog", JWTOptional(testSecret), func(c *fiber.Ctx) error {
		if id, ok := c.Locals("user_id").(uint); ok {
			return c.JSON(fiber.Map{"viewer": id})
		}
		return c.JSON(fiber.Map{"viewer": nil})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/catalog", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest("GET", "/catalog", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/grade", JWTProtected(testSecret), RequireRole("instructor", "admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	request := func(role string) int {
		claims := jwt.MapClaims{
			"sub": "7",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		if role != "" {
			claims["role"] = role
		}
		req := httptest.NewRequest("GET", "/grade", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, request("instructor"))
	assert.Equal(t, fiber.StatusOK, request("ADMIN"))
	assert.Equal(t, fiber.StatusForbidden, request("student"))
	assert.Equal(t, fiber.StatusUnauthorized, request(""))
}
