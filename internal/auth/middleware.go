package auth

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth verifies the access token and loads the caller into locals.
// It tries the Redis user cache first and falls back to the database.
func RequireAuth(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := c.Cookies("access_token")
		if accessToken == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				accessToken = strings.TrimPrefix(h, "Bearer ")
			}
		}

		claims, err := VerifyToken(accessToken)
		if err != nil {
			opt.Logger.Warn(c.Context()).WithFields("error", err).Logs("Access token invalid")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid access token",
			})
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid access token",
			})
		}

		var u *models.User
		userKey := "user:" + claims.UserID
		if cached, cerr := opt.Rclient.Get(c.Context(), userKey).Result(); cerr == nil && cached != "" {
			u = &models.User{}
			if jerr := json.Unmarshal([]byte(cached), u); jerr != nil {
				opt.Logger.Warn(c.Context()).WithFields("error", jerr).Logs("Failed to unmarshal cached user")
				u = nil
			}
		}

		if u == nil {
			u, err = models.GetUserBy(c.Context(), opt.Rclient, opt.DB, "id = ?", []interface{}{userID}, "Role")
			if err != nil {
				opt.Logger.Warn(c.Context()).WithFields("user_id", claims.UserID).Logs("User not found during token validation")
				c.ClearCookie("access_token")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "User not found",
				})
			}
			if userJSON, jerr := json.Marshal(u); jerr == nil {
				opt.Rclient.Set(c.Context(), userKey, userJSON, 30*time.Minute)
			}
		}

		if claims.RoleID != u.RoleID.String() {
			opt.Logger.Warn(c.Context()).WithFields("user_id", u.ID, "token_role", claims.RoleID, "user_role", u.RoleID).Logs("Role mismatch")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Role mismatch",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user", u)

		return c.Next()
	}
}
