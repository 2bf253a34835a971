package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	moderation "github.com/safeguardhq/trustguard/internal/models/moderation"
)

// SuspensionNoticePath is exempt from the gate so a suspended user can read
// their own notice without a redirect loop.
const SuspensionNoticePath = "/api/v1/suspensions/notice"

var gateBypassPrefixes = []string{
	"/admin",
	"/static",
	"/media",
	SuspensionNoticePath,
}

// SuspensionGate blocks suspended users on every request. Unauthenticated
// callers, moderators/staff and administrative or static paths pass through.
// If the suspension lookup fails the gate fails open: availability over
// enforcement, with a warning in the log.
func SuspensionGate(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return c.Next()
		}

		if IsModerator(u) {
			return c.Next()
		}

		path := c.Path()
		for _, prefix := range gateBypassPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		suspension, err := moderation.ActiveSuspension(c.Context(), opt.DB, u.ID)
		if err != nil {
			opt.Logger.Warn(c.Context()).WithFields("user_id", u.ID, "error", err).Logs("Suspension lookup failed; failing open")
			return c.Next()
		}

		if suspension != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":           "Your account is suspended",
				"suspension_id":   suspension.ID,
				"reason":          suspension.Reason,
				"suspended_until": suspension.SuspendedUntil,
			})
		}

		return c.Next()
	}
}
