package middleware

import (
	"strings"

	"assofund/internal/config"
	"assofund/internal/core/domain"
	"assofund/internal/pkg/jwt"
	"assofund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT access tokens and stores the claims in locals
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		claims, err := jwt.ValidateAccessToken(parts[1], config.AppConfig.JWT.Secret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// RoleMiddleware allows only the given roles
func RoleMiddleware(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// AdminOnly restricts a route to administrators
func AdminOnly() fiber.Handler {
	return RoleMiddleware(string(domain.RoleAdmin))
}

// TreasurerOrAdmin restricts a route to treasurers and administrators,
// the roles allowed to touch the ledger
func TreasurerOrAdmin() fiber.Handler {
	return RoleMiddleware(string(domain.RoleTreasurer), string(domain.RoleAdmin))
}
