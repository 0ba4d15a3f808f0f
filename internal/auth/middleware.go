package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mdm-backend/internal/validation"
)

// User represents the authenticated caller, set by the middleware.
type User struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole("admin")
}

// Middleware validates the bearer token and sets the User on the request.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return validation.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return validation.UnauthorizedError("Invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return validation.UnauthorizedError("Invalid or expired token")
		}

		c.Locals("user", &User{ID: claims.Subject, Roles: claims.Roles})
		return c.Next()
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*User)
		if !ok || user == nil {
			return validation.UnauthorizedError("Missing auth token")
		}
		if !user.IsAdmin() {
			return validation.ForbiddenError("Admin access required")
		}
		return c.Next()
	}
}
