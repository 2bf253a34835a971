package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/internal/auth"
	"github.com/safeguardhq/trustguard/internal/models"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

// SubmitFlag lets any authenticated user report a piece of content.
func SubmitFlag(c *fiber.Ctx) error {
	type FlagInput struct {
		ContentKind string    `json:"content_kind" validate:"required"`
		ContentID   uuid.UUID `json:"content_id" validate:"required"`
		Reason      string    `json:"reason" validate:"required"`
	}
	fi := new(FlagInput)
	if err := utils.StrictBodyParser(c, fi); err != nil {
		Logger.Warn(c.Context()).WithFields("error", err).Logs("Failed to parse flag request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}
	if err := Validator.Validate(fi); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	caller := auth.CurrentUser(c)
	flag, err := models.SubmitFlag(c.Context(), Redis, DB, Registry, fi.ContentKind, fi.ContentID, caller.ID, fi.Reason)
	if err != nil && flag == nil {
		return utils.SendError(c, err)
	}
	if err != nil {
		// Flag persisted but fan-out failed; moderators can still find it in the queue.
		Logger.Warn(c.Context()).WithFields("flag_id", flag.ID, "error", err).Logs("Notification fan-out failed")
	} else {
		notifyModeratorsByEmail(c, flag)
	}

	Logger.Info(c.Context()).WithFields("flag_id", flag.ID, "user_id", caller.ID).Logs("Content flagged")
	return c.Status(fiber.StatusCreated).JSON(utils.Response{
		Success: true,
		Message: "Content flagged successfully. A moderator will review it.",
		Data:    flag,
	})
}

// notifyModeratorsByEmail sends best-effort alert mail; disabled unless SMTP is configured.
func notifyModeratorsByEmail(c *fiber.Ctx, flag *models.FlaggedContent) {
	if !EmailCfg.Enabled {
		return
	}
	moderators, err := models.ModeratorSet(c.Context(), DB)
	if err != nil {
		Logger.Warn(c.Context()).WithFields("error", err).Logs("Failed to load moderators for email alerts")
		return
	}
	for _, m := range moderators {
		utils.SendFlagAlertEmail(c.Context(), EmailCfg, m.Email, m.Username, flag.ContentKind, flag.Reason, flag.ID.String(), Logger)
	}
}

// ListFlags is the moderator review queue, with free-text search and paging.
func ListFlags(c *fiber.Ctx) error {
	page, limit := utils.Pagination(c, 10, 100)
	filter := models.FlagFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
	}

	flags, total, err := models.ListFlags(c.Context(), DB, Registry, filter, page, limit)
	if err != nil {
		return utils.SendError(c, err)
	}
	models.AttachPreviews(c.Context(), Registry, flags)

	return utils.SendSuccess(c, fiber.Map{
		"flags": flags,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// FlagStats returns per-status counts for the dashboard.
func FlagStats(c *fiber.Ctx) error {
	stats, err := models.FlagStats(c.Context(), DB)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, stats)
}

type reviewInput struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

func parseReview(c *fiber.Ctx) (uuid.UUID, string, error) {
	flagID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, "", utils.NewError(utils.ErrBadRequest.Code, "Invalid flag id")
	}
	ri := new(reviewInput)
	if len(c.Body()) > 0 {
		if err := utils.StrictBodyParser(c, ri); err != nil {
			return uuid.Nil, "", utils.NewError(utils.ErrBadRequest.Code, "Invalid request format")
		}
	}
	return flagID, ri.Notes, nil
}

// ApproveFlag closes a flag leaving the content visible.
func ApproveFlag(c *fiber.Ctx) error {
	flagID, notes, err := parseReview(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	moderator := auth.CurrentUser(c)
	flag, err := models.ApproveFlag(c.Context(), DB, flagID, moderator.ID, notes)
	if err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).WithFields("flag_id", flagID, "moderator", moderator.ID).Logs("Flag approved")
	return utils.Success(c).WithMessage("Flag approved. Content remains visible.").WithData(flag).Send()
}

// DismissFlag closes a flag without action.
func DismissFlag(c *fiber.Ctx) error {
	flagID, notes, err := parseReview(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	moderator := auth.CurrentUser(c)
	flag, err := models.DismissFlag(c.Context(), DB, flagID, moderator.ID, notes)
	if err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).WithFields("flag_id", flagID, "moderator", moderator.ID).Logs("Flag dismissed")
	return utils.Success(c).WithMessage("Flag dismissed.").WithData(flag).Send()
}

// DeleteFlaggedContent removes the offending content and closes the flag.
func DeleteFlaggedContent(c *fiber.Ctx) error {
	flagID, notes, err := parseReview(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	moderator := auth.CurrentUser(c)
	flag, err := models.DeleteFlaggedContent(c.Context(), DB, Registry, flagID, moderator.ID, notes)
	if err != nil && flag == nil {
		return utils.SendError(c, err)
	}
	if err != nil {
		// The flag reached its terminal state; only the content removal failed.
		Logger.Error(c.Context()).WithFields("flag_id", flagID, "error", err).Logs("Content delete failed after flag was closed")
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).WithFields("flag_id", flagID, "moderator", moderator.ID).Logs("Flagged content deleted")
	return utils.Success(c).WithMessage("Flagged content has been deleted.").WithData(flag).Send()
}

// EditFlaggedContent applies a moderator edit to the underlying content.
func EditFlaggedContent(c *fiber.Ctx) error {
	flagID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid flag id"))
	}

	type EditInput struct {
		Notes  string            `json:"notes" validate:"omitempty,max=2000"`
		Fields map[string]string `json:"fields" validate:"required"`
	}
	ei := new(EditInput)
	if err := utils.StrictBodyParser(c, ei); err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid request format"))
	}
	if verr := Validator.Validate(ei); verr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": verr,
		})
	}

	moderator := auth.CurrentUser(c)
	flag, err := models.EditFlaggedContent(c.Context(), DB, Registry, flagID, moderator.ID, ei.Notes, ei.Fields)
	if err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).WithFields("flag_id", flagID, "moderator", moderator.ID).Logs("Flagged content edited")
	return utils.Success(c).WithMessage("Content has been edited successfully.").WithData(flag).Send()
}
