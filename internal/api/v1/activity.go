package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/internal/models"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

// ActivityLog returns an organization's audit trail, newest first.
func ActivityLog(c *fiber.Ctx) error {
	organizationID, err := uuid.Parse(c.Params("organization_id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid organization id"))
	}

	page, limit := utils.Pagination(c, 20, 100)
	entries, total, err := models.ActivityLogFor(c.Context(), DB, organizationID, page, limit)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"entries": entries,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
