package middleware

import (
	"strings"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/adapters/persistence/repositories"
	"unibooks/internal/config"
	"unibooks/internal/core/services"
	"unibooks/internal/pkg/jwt"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the access token and the session behind it.
// A deleted session row (forced logout, password change) kills the token
// immediately even if it has not expired yet.
func AuthMiddleware(cfg *config.Config, authService *services.AuthService, userRepo repositories.UserRepository) fiber.Handler {
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

		// 5. The server-side session must still exist
		if _, err := authService.ValidateSession(c.UserContext(), claims.SessionID); err != nil {
			return response.Unauthorized(c, "Session expired, please log in again")
		}

		// 6. Load the current user row: the gate reads derived state
		// from the store on every request, never from token claims.
		user, err := userRepo.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			return response.Unauthorized(c, "Account not found")
		}

		c.Locals("user", user)
		c.Locals("userID", user.ID)
		c.Locals("sessionID", claims.SessionID)

		return c.Next()
	}
}

// CurrentUser returns the user loaded by AuthMiddleware
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// CurrentSessionID returns the session behind the presented token
func CurrentSessionID(c *fiber.Ctx) string {
	sessionID, _ := c.Locals("sessionID").(string)
	return sessionID
}

// StaffOnly restricts a route to staff users
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsStaff {
			return response.Forbidden(c, "Staff access required")
		}
		return c.Next()
	}
}

// LibrarianOnly restricts a route to librarians
func LibrarianOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsLibrarian {
			return response.Forbidden(c, "Librarian access required")
		}
		return c.Next()
	}
}
