package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/internal/auth"
	"github.com/safeguardhq/trustguard/internal/models"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

// SuspendUser places a user under suspension, temporary or permanent.
func SuspendUser(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid user id"))
	}

	type SuspendInput struct {
		Reason         string     `json:"reason" validate:"required"`
		SuspendedUntil *time.Time `json:"suspended_until" validate:"omitempty,future"`
	}
	si := new(SuspendInput)
	if err := utils.StrictBodyParser(c, si); err != nil {
		Logger.Warn(c.Context()).WithFields("error", err).Logs("Failed to parse suspension request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}
	if err := Validator.Validate(si); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	moderator := auth.CurrentUser(c)
	suspension, err := models.SuspendUser(c.Context(), Redis, DB, targetID, moderator.ID, si.Reason, si.SuspendedUntil)
	if err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).
		WithFields("suspension_id", suspension.ID, "user_id", targetID, "moderator", moderator.ID).
		Logs("User suspended")
	return c.Status(fiber.StatusCreated).JSON(utils.Response{
		Success: true,
		Message: suspension.DurationDisplay(),
		Data:    suspension,
	})
}

// ReinstateUser lifts an active suspension.
func ReinstateUser(c *fiber.Ctx) error {
	suspensionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid suspension id"))
	}

	type ReinstateInput struct {
		Notes string `json:"notes" validate:"omitempty,max=2000"`
	}
	ri := new(ReinstateInput)
	if len(c.Body()) > 0 {
		if err := utils.StrictBodyParser(c, ri); err != nil {
			return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
		}
	}

	moderator := auth.CurrentUser(c)
	suspension, err := models.ReinstateUser(c.Context(), DB, suspensionID, moderator.ID, ri.Notes)
	if err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).
		WithFields("suspension_id", suspensionID, "user_id", suspension.UserID, "moderator", moderator.ID).
		Logs("User reinstated")
	return utils.Success(c).WithMessage("User has been reinstated.").WithData(suspension).Send()
}

// ListActiveSuspensions is the moderator view of everyone currently suspended.
func ListActiveSuspensions(c *fiber.Ctx) error {
	page, limit := utils.Pagination(c, 10, 100)
	suspensions, total, err := models.ListActiveSuspensions(c.Context(), DB, page, limit)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"suspensions": suspensions,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// SuspensionHistory lists every suspension ever placed on one user.
func SuspensionHistory(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid user id"))
	}
	history, err := models.SuspensionHistory(c.Context(), DB, userID)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, history)
}

// SuspensionStats returns ledger counts for the dashboard.
func SuspensionStats(c *fiber.Ctx) error {
	stats, err := models.SuspensionStats(c.Context(), DB)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, stats)
}

// SuspensionNotice shows the caller their own active suspension. The access
// gate exempts this path so suspended users can read why they are locked out.
func SuspensionNotice(c *fiber.Ctx) error {
	caller := auth.CurrentUser(c)
	suspension, err := models.ActiveSuspension(c.Context(), DB, caller.ID)
	if err != nil {
		return utils.SendError(c, err)
	}
	if suspension == nil {
		return utils.Success(c).WithMessage("Your account is in good standing.").Send()
	}
	return utils.Success(c).WithMessage(suspension.DurationDisplay()).WithData(suspension).Send()
}
