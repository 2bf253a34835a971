package models

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

// Domain errors surfaced by moderation operations.
var (
	ErrAlreadyFlagged         = utils.NewError(fiber.StatusConflict, "You have already flagged this content")
	ErrInvalidStateTransition = utils.NewError(fiber.StatusConflict, "Flag has already been reviewed")
	ErrAlreadySuspended       = utils.NewError(fiber.StatusConflict, "User is already suspended")
	ErrAlreadyReinstated      = utils.NewError(fiber.StatusConflict, "This suspension has already been reinstated")
	ErrCannotSuspendModerator = utils.NewError(fiber.StatusForbidden, "Cannot suspend moderators or staff members")
	ErrFlagNotFound           = utils.NewError(fiber.StatusNotFound, "Flag not found")
	ErrSuspensionNotFound     = utils.NewError(fiber.StatusNotFound, "Suspension not found")
	ErrNotificationNotFound   = utils.NewError(fiber.StatusNotFound, "Notification not found")
	ErrReasonRequired         = utils.NewError(fiber.StatusBadRequest, "A reason is required")
)

// isUniqueViolation recognizes uniqueness-constraint failures across the
// Postgres driver (production) and sqlite (tests).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "23505")
}
