package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/internal/content"
	user "github.com/safeguardhq/trustguard/internal/models/user"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

// Flag lifecycle. Pending is the only non-terminal status; every reviewing
// action moves a flag out of Pending exactly once.
const (
	FlagPending   = "pending"
	FlagApproved  = "approved"
	FlagDismissed = "dismissed"
	FlagEdited    = "edited"
	FlagDeleted   = "deleted"
)

// PendingFlagIndex enforces at most one pending flag per (content, flagger)
// pair at the storage level. A precheck alone loses under concurrent submits.
const PendingFlagIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_flags_pending_once ` +
	`ON flagged_contents (content_kind, content_id, flagged_by_id) WHERE status = 'pending'`

type FlaggedContent struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FlaggedAt time.Time `gorm:"autoCreateTime;index:idx_flag_status_at" json:"flagged_at"`

	ContentKind string    `gorm:"size:50;not null;index:idx_flag_content" json:"content_kind" validate:"required"`
	ContentID   uuid.UUID `gorm:"type:uuid;not null;index:idx_flag_content" json:"content_id" validate:"required"`

	FlaggedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"flagged_by_id" validate:"required"`
	FlaggedBy   user.User `gorm:"foreignKey:FlaggedByID" json:"flagged_by" validate:"-"`
	Reason      string    `gorm:"type:text;not null" json:"reason" validate:"required"`

	Status         string     `gorm:"size:20;not null;default:'pending';index:idx_flag_status_at" json:"status"`
	ReviewedByID   *uuid.UUID `gorm:"type:uuid" json:"reviewed_by_id"`
	ReviewedBy     *user.User `gorm:"foreignKey:ReviewedByID" json:"reviewed_by" validate:"-"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	ModeratorNotes string     `gorm:"type:text" json:"moderator_notes"`

	// Filled from the content registry for dashboards; not persisted.
	ContentPreview string `gorm:"-" json:"content_preview,omitempty"`
}

func (f *FlaggedContent) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether the flag has left the pending state.
func (f *FlaggedContent) IsTerminal() bool {
	return f.Status != FlagPending
}

// SubmitFlag records a user's report against a piece of content and fans out
// moderator notifications synchronously before returning. The returned flag is
// valid even when the fan-out fails; callers log and move on.
func SubmitFlag(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, registry *content.Registry, kind string, contentID, flaggerID uuid.UUID, reason string) (*FlaggedContent, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	handle, err := registry.Resolve(ctx, kind, contentID)
	if err != nil {
		return nil, err
	}

	flag := &FlaggedContent{
		ContentKind: kind,
		ContentID:   contentID,
		FlaggedByID: flaggerID,
		Reason:      reason,
		Status:      FlagPending,
	}
	if err := db.WithContext(ctx).Create(flag).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyFlagged
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create flag")
	}

	// Audit trail for the content owner; append is best-effort by design.
	if owner := handle.Owner(); owner != uuid.Nil {
		LogActivity(ctx, db, owner, ActionFlagCreated, &flaggerID, kind, &contentID,
			"Content flagged. Reason: "+utils.Truncate(reason, 100))
	}

	if err := FanOutNotifications(ctx, rclient, db, flag); err != nil {
		return flag, err
	}

	return flag, nil
}

// GetFlagByID loads a single flag with its reporter and reviewer.
func GetFlagByID(ctx context.Context, db *gorm.DB, flagID uuid.UUID) (*FlaggedContent, error) {
	var flag FlaggedContent
	err := db.WithContext(ctx).Preload("FlaggedBy").Preload("ReviewedBy").First(&flag, "id = ?", flagID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlagNotFound
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get flag")
	}
	return &flag, nil
}

// reviewFlag performs the guarded Pending -> terminal transition as a single
// conditional UPDATE. Zero rows affected means the flag is gone or terminal.
func reviewFlag(ctx context.Context, db *gorm.DB, flagID, moderatorID uuid.UUID, notes, newStatus string) (*FlaggedContent, error) {
	now := time.Now()
	res := db.WithContext(ctx).Model(&FlaggedContent{}).
		Where("id = ? AND status = ?", flagID, FlagPending).
		Updates(map[string]interface{}{
			"status":          newStatus,
			"reviewed_by_id":  moderatorID,
			"reviewed_at":     now,
			"moderator_notes": notes,
		})
	if res.Error != nil {
		return nil, utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to review flag")
	}
	if res.RowsAffected == 0 {
		if _, err := GetFlagByID(ctx, db, flagID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidStateTransition
	}
	return GetFlagByID(ctx, db, flagID)
}

// ApproveFlag marks the content as fine and closes the flag.
func ApproveFlag(ctx context.Context, db *gorm.DB, flagID, moderatorID uuid.UUID, notes string) (*FlaggedContent, error) {
	return reviewFlag(ctx, db, flagID, moderatorID, notes, FlagApproved)
}

// DismissFlag closes the flag without action.
func DismissFlag(ctx context.Context, db *gorm.DB, flagID, moderatorID uuid.UUID, notes string) (*FlaggedContent, error) {
	return reviewFlag(ctx, db, flagID, moderatorID, notes, FlagDismissed)
}

// MarkFlagEdited closes the flag after the underlying content was edited.
func MarkFlagEdited(ctx context.Context, db *gorm.DB, flagID, moderatorID uuid.UUID, notes string) (*FlaggedContent, error) {
	return reviewFlag(ctx, db, flagID, moderatorID, notes, FlagEdited)
}

// DeleteFlaggedContent removes the flagged content. The terminal flag state is
// persisted FIRST so the audit record survives even when the content delete
// fails or the content is already gone; already-absent content is not an error.
func DeleteFlaggedContent(ctx context.Context, db *gorm.DB, registry *content.Registry, flagID, moderatorID uuid.UUID, notes string) (*FlaggedContent, error) {
	current, err := GetFlagByID(ctx, db, flagID)
	if err != nil {
		return nil, err
	}

	// Capture the owner for the audit entry while the content may still exist.
	owner := uuid.Nil
	if handle, rerr := registry.Resolve(ctx, current.ContentKind, current.ContentID); rerr == nil {
		owner = handle.Owner()
	}

	flag, err := reviewFlag(ctx, db, flagID, moderatorID, notes, FlagDeleted)
	if err != nil {
		return nil, err
	}

	if err := registry.Delete(ctx, flag.ContentKind, flag.ContentID); err != nil {
		// Flag state is already terminal; surface the delete failure.
		return flag, err
	}

	if owner != uuid.Nil {
		desc := "Content deleted by moderator."
		if notes != "" {
			desc += " Notes: " + utils.Truncate(notes, 100)
		}
		LogActivity(ctx, db, owner, ActionContentDeleted, &moderatorID, flag.ContentKind, &flag.ContentID, desc)
	}

	return flag, nil
}

// EditFlaggedContent applies a moderator edit to the flagged content. The
// pending -> edited transition is claimed FIRST, so a flag a concurrent
// reviewer resolves can never have its content rewritten afterwards; if the
// edit itself then fails, the closed flag is returned alongside the error.
func EditFlaggedContent(ctx context.Context, db *gorm.DB, registry *content.Registry, flagID, moderatorID uuid.UUID, notes string, fields map[string]string) (*FlaggedContent, error) {
	current, err := GetFlagByID(ctx, db, flagID)
	if err != nil {
		return nil, err
	}

	handle, err := registry.Resolve(ctx, current.ContentKind, current.ContentID)
	if err != nil {
		return nil, err
	}

	provider, _ := registry.Provider(current.ContentKind)
	editor, ok := provider.(content.Editor)
	if !ok {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "This content type cannot be edited")
	}

	flag, err := MarkFlagEdited(ctx, db, flagID, moderatorID, notes)
	if err != nil {
		return nil, err
	}

	if err := editor.Edit(ctx, current.ContentID, fields); err != nil {
		return flag, err
	}

	if owner := handle.Owner(); owner != uuid.Nil {
		desc := "Content edited by moderator."
		if notes != "" {
			desc += " Notes: " + utils.Truncate(notes, 100)
		}
		LogActivity(ctx, db, owner, ActionContentEdited, &moderatorID, flag.ContentKind, &flag.ContentID, desc)
	}

	return flag, nil
}

// FlagFilter narrows ListFlags results.
type FlagFilter struct {
	Status string
	Query  string
}

// ListFlags returns flags newest-first with free-text search across the
// reason, the flagger's username, the status, and matching content for kinds
// that expose searchable text.
func ListFlags(ctx context.Context, db *gorm.DB, registry *content.Registry, filter FlagFilter, page, limit int) ([]FlaggedContent, int64, error) {
	query := db.WithContext(ctx).Model(&FlaggedContent{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		cond := db.WithContext(ctx).
			Where("LOWER(reason) LIKE ?", like).
			Or("LOWER(status) LIKE ?", like).
			Or("flagged_by_id IN (?)",
				db.WithContext(ctx).Model(&user.User{}).Select("id").Where("LOWER(username) LIKE ?", like))

		// Union ids from every provider that supports text search into the
		// content-reference filter.
		for _, p := range registry.Providers() {
			searcher, ok := p.(content.Searcher)
			if !ok {
				continue
			}
			ids, err := searcher.SearchIDs(ctx, q)
			if err != nil || len(ids) == 0 {
				continue
			}
			cond = cond.Or("content_kind = ? AND content_id IN ?", p.Kind(), ids)
		}
		query = query.Where(cond)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count flags")
	}

	var flags []FlaggedContent
	err := query.Preload("FlaggedBy").Preload("ReviewedBy").
		Order("flagged_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&flags).Error
	if err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list flags")
	}

	return flags, total, nil
}

// AttachPreviews fills ContentPreview from the registry; flags whose content
// has since been deleted keep an empty preview.
func AttachPreviews(ctx context.Context, registry *content.Registry, flags []FlaggedContent) {
	for i := range flags {
		if handle, err := registry.Resolve(ctx, flags[i].ContentKind, flags[i].ContentID); err == nil {
			flags[i].ContentPreview = handle.Describe()
		}
	}
}

// FlagStats returns per-status counts for the moderation dashboard.
func FlagStats(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := db.WithContext(ctx).Model(&FlaggedContent{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count flags by status")
	}

	stats := map[string]int64{
		FlagPending:   0,
		FlagApproved:  0,
		FlagDismissed: 0,
		FlagEdited:    0,
		FlagDeleted:   0,
	}
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}
