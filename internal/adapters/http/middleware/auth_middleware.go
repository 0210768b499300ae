package middleware

import (
	"strings"

	"coopfin-backend/internal/config"
	"coopfin-backend/internal/core/authz"
	"coopfin-backend/internal/pkg/jwt"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Set user info in context
		c.Locals("userID", claims.UserID)
		c.Locals("memberNo", claims.MemberNo)
		c.Locals("username", claims.Username)
		c.Locals("role", authz.NormalizeRole(claims.Role))

		return c.Next()
	}
}

// RequireCapability gates a route on one capability from the authorization
// table. This is the only place admin tiers are compared to operations; a
// new admin tier means a table edit, not a handler sweep.
func RequireCapability(cap authz.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		if !authz.Allows(role, cap) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}

		return c.Next()
	}
}
