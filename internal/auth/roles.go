package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safeguardhq/trustguard/internal/models"
)

// IsModerator is the one capability check for every moderator-only surface:
// the access gate, fan-out and each moderator operation all go through here
// instead of re-deriving staff/role predicates at call sites.
func IsModerator(u *models.User) bool {
	return u.HasModeratorCapability()
}

// CurrentUser returns the authenticated user RequireAuth stored on the request.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("user").(*models.User)
	return u
}

// RequireModerator blocks callers without moderator capability.
func RequireModerator(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		if !IsModerator(u) {
			opt.Logger.Warn(c.Context()).WithFields("user_id", u.ID).Logs("Non-moderator attempted a moderator action")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to perform this action",
			})
		}
		return c.Next()
	}
}
