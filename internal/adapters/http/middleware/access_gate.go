package middleware

import (
	"strings"
	"time"

	"unibooks/internal/core/services"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Gate paths
const (
	PasswordChangePath       = "/api/v1/auth/password"
	LogoutPath               = "/api/v1/auth/logout"
	AdminPathPrefix          = "/api/v1/admin"
	SubscriptionRequiredPath = "/api/v1/subscription-required"
	StaticPathPrefix         = "/static"
	MediaPathPrefix          = "/media"
)

// AccessGate evaluates the two per-request policy rules after
// authentication. Both read the user's current derived state from the
// row AuthMiddleware just loaded; nothing is cached between requests.
//
// Rule A: a pending forced password change blocks everything except the
// password-change endpoint itself, logout and administrative paths.
//
// Rule B: a user with a payment on record whose subscription has lapsed
// is logged out everywhere and told to renew. Staff, administrative
// paths, static assets and the renewal page itself are exempt.
func AccessGate(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Next()
		}
		path := c.Path()

		// Rule A: forced password change
		if user.ForcePasswordChange && !ruleAExempt(path) {
			return response.PolicyRedirect(c, "Vous devez changer votre mot de passe avant de continuer.", PasswordChangePath)
		}

		// Rule B: subscription gate
		if !user.IsStaff && !ruleBExempt(path) {
			if user.PaidAt != nil && !user.SubscriptionActive(time.Now()) {
				authService.InvalidateSessions(c.UserContext(), user.ID)
				return response.PolicyRedirect(c, "Votre abonnement a expiré. Veuillez le renouveler au guichet.", SubscriptionRequiredPath)
			}
		}

		return c.Next()
	}
}

func ruleAExempt(path string) bool {
	if strings.HasPrefix(path, AdminPathPrefix) {
		return true
	}
	return path == PasswordChangePath || path == LogoutPath
}

func ruleBExempt(path string) bool {
	if strings.HasPrefix(path, AdminPathPrefix) {
		return true
	}
	if strings.HasPrefix(path, StaticPathPrefix) || strings.HasPrefix(path, MediaPathPrefix) {
		return true
	}
	return path == SubscriptionRequiredPath
}
