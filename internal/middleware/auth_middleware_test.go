package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"lucent-shop-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(RequireAuth())
	app.Get("/me", func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(id.String())
	})
	app.Get("/admin/orders", RequirePrivilege(PrivOrderView), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/admin/any", RequireAnyPrivilege(PrivDashboardView, PrivEventView), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/ws", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func issue(t *testing.T, userID uuid.UUID, privileges ...string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, "fan@example.com", "팬", "customer", privileges, time.Hour)
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-secret")
	app := newTestApp()
	userID := uuid.New()
	token := issue(t, userID)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid bearer", "/me", "Bearer " + token, fiber.StatusOK},
		{"lowercase scheme", "/me", "bearer " + token, fiber.StatusOK},
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + token, fiber.StatusUnauthorized},
		{"garbage token", "/me", "Bearer not-a-jwt", fiber.StatusUnauthorized},
		{"query token outside ws", "/me?token=" + token, "", fiber.StatusUnauthorized},
		{"query token on ws", "/ws?token=" + token, "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			if tt.want == fiber.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "error", body["status"])
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			}
		})
	}
}

func TestRequirePrivilege(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-secret")
	app := newTestApp()

	tests := []struct {
		name       string
		path       string
		privileges []string
		want       int
	}{
		{"has privilege", "/admin/orders", []string{PrivOrderView}, fiber.StatusOK},
		{"missing privilege", "/admin/orders", []string{PrivDashboardView}, fiber.StatusForbidden},
		{"no privileges", "/admin/orders", nil, fiber.StatusForbidden},
		{"any of several", "/admin/any", []string{PrivEventView}, fiber.StatusOK},
		{"none of several", "/admin/any", []string{PrivOrderView}, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, uuid.New(), tt.privileges...))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
