package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/internal/auth"
	"github.com/safeguardhq/trustguard/internal/models"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

// ListNotifications returns the calling moderator's notifications.
func ListNotifications(c *fiber.Ctx) error {
	page, limit := utils.Pagination(c, 20, 100)
	moderator := auth.CurrentUser(c)

	notifications, total, err := models.ListNotifications(c.Context(), DB, moderator.ID, page, limit)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// UnreadCount returns the badge count for the moderator dashboard.
func UnreadCount(c *fiber.Ctx) error {
	moderator := auth.CurrentUser(c)
	count, err := models.UnreadCount(c.Context(), Redis, DB, moderator.ID)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"unread": count})
}

// MarkNotificationRead marks one of the caller's notifications read.
func MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid notification id"))
	}

	moderator := auth.CurrentUser(c)
	if err := models.MarkNotificationRead(c.Context(), Redis, DB, notificationID, moderator.ID); err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Notification marked as read.").Send()
}
