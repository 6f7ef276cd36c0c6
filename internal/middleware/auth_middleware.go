package middleware

import (
	"strings"

	"lucent-shop-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Admin privileges carried in the access token.
const (
	PrivProductCreate     = "product:create"
	PrivProductUpdate     = "product:update"
	PrivStockAdjust       = "stock:adjust"
	PrivOrderView         = "order:view"
	PrivOrderUpdateStatus = "order:update_status"
	PrivDashboardView     = "dashboard:view"
	PrivEventView         = "event:view"
)

func deny(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"code":   code,
		"error":  message,
	})
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on a WebSocket handshake, so the token query parameter is accepted
// there as well.
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" && strings.HasPrefix(c.Path(), "/ws") {
			return token, true
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth validates the access token issued by the auth provider and
// sets user info in context.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "로그인이 필요합니다.")
		}

		claims, err := jwt.ValidateToken(tokenString)
		if err != nil {
			return deny(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "로그인 정보가 만료되었거나 올바르지 않습니다.")
		}

		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_email", claims.Email)
		c.Locals("user_name", claims.Name)
		c.Locals("user_role", claims.Role)
		c.Locals("user_privileges", claims.Privileges)

		return c.Next()
	}
}

// UserID returns the authenticated user's id set by RequireAuth.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func hasPrivilege(c *fiber.Ctx, required ...string) bool {
	privileges, ok := c.Locals("user_privileges").([]string)
	if !ok {
		return false
	}
	for _, userPriv := range privileges {
		for _, reqPriv := range required {
			if userPriv == reqPriv {
				return true
			}
		}
	}
	return false
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !hasPrivilege(c, requiredPrivilege) {
			return deny(c, fiber.StatusForbidden, "FORBIDDEN", "접근 권한이 없습니다.")
		}
		return c.Next()
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !hasPrivilege(c, requiredPrivileges...) {
			return deny(c, fiber.StatusForbidden, "FORBIDDEN", "접근 권한이 없습니다.")
		}
		return c.Next()
	}
}
