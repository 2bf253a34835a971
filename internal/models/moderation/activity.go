package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	user "github.com/safeguardhq/trustguard/internal/models/user"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

// Audit action types recorded against a content-owning organization.
const (
	ActionFlagCreated    = "flag_created"
	ActionContentDeleted = "content_deleted"
	ActionContentEdited  = "content_edited"
	ActionUserSuspended  = "user_suspended"
	ActionUserReinstated = "user_reinstated"
)

// ActivityLogEntry is an append-only audit record. Entries carry no foreign
// key to the content they describe, so they survive its deletion.
type ActivityLogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_activity_org_at" json:"created_at"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_org_at" json:"organization_id"`
	ActionType     string    `gorm:"size:50;not null" json:"action_type"`

	// PerformedByID may be nil when the acting account has since been removed.
	PerformedByID *uuid.UUID `gorm:"type:uuid" json:"performed_by_id"`
	PerformedBy   *user.User `gorm:"foreignKey:PerformedByID" json:"performed_by"`

	RelatedKind string     `gorm:"size:50" json:"related_kind,omitempty"`
	RelatedID   *uuid.UUID `gorm:"type:uuid" json:"related_id,omitempty"`

	Description string `gorm:"type:text;not null" json:"description"`
}

func (e *ActivityLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// LogActivity appends one audit entry. The log is observational: callers must
// never roll back or fail a business action because this append failed, so
// they warn on the returned error and move on.
func LogActivity(ctx context.Context, db *gorm.DB, organizationID uuid.UUID, actionType string, performedBy *uuid.UUID, relatedKind string, relatedID *uuid.UUID, description string) error {
	entry := &ActivityLogEntry{
		OrganizationID: organizationID,
		ActionType:     actionType,
		PerformedByID:  performedBy,
		RelatedKind:    relatedKind,
		RelatedID:      relatedID,
		Description:    description,
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to append activity log entry")
	}
	return nil
}

// ActivityLogFor returns an organization's audit entries newest-first.
func ActivityLogFor(ctx context.Context, db *gorm.DB, organizationID uuid.UUID, page, limit int) ([]ActivityLogEntry, int64, error) {
	query := db.WithContext(ctx).Model(&ActivityLogEntry{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count activity log entries")
	}

	var entries []ActivityLogEntry
	err := query.Preload("PerformedBy").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to query activity log")
	}

	return entries, total, nil
}
