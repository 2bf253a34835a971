package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	user "github.com/safeguardhq/trustguard/internal/models/user"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

// ActiveSuspensionIndex enforces at most one active suspension per user at the
// storage level, closing the check-then-insert race.
const ActiveSuspensionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_suspensions_one_active ` +
	`ON user_suspensions (user_id) WHERE is_active`

type UserSuspension struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SuspendedAt time.Time `gorm:"autoCreateTime" json:"suspended_at"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id" validate:"required"`
	User   user.User `gorm:"foreignKey:UserID" json:"user" validate:"-"`

	SuspendedByID uuid.UUID `gorm:"type:uuid;not null" json:"suspended_by_id"`
	SuspendedBy   user.User `gorm:"foreignKey:SuspendedByID" json:"suspended_by" validate:"-"`

	Reason string `gorm:"type:text;not null" json:"reason" validate:"required"`

	// SuspendedUntil nil means permanent.
	SuspendedUntil *time.Time `json:"suspended_until"`
	IsActive       bool       `gorm:"default:true;index" json:"is_active"`

	ReinstatedByID     *uuid.UUID `gorm:"type:uuid" json:"reinstated_by_id"`
	ReinstatedBy       *user.User `gorm:"foreignKey:ReinstatedByID" json:"reinstated_by" validate:"-"`
	ReinstatedAt       *time.Time `json:"reinstated_at"`
	ReinstatementNotes string     `gorm:"type:text" json:"reinstatement_notes"`
}

func (s *UserSuspension) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether a temporary suspension's end time has passed.
func (s *UserSuspension) IsExpired() bool {
	return s.SuspendedUntil != nil && s.SuspendedUntil.Before(time.Now())
}

// DurationDisplay renders the suspension length for messages and notices.
func (s *UserSuspension) DurationDisplay() string {
	if s.SuspendedUntil == nil {
		return "Suspended permanently"
	}
	return "Suspended until " + s.SuspendedUntil.Format(time.RFC1123)
}

// SuspendUser creates a suspension against a user. Moderators and staff can
// never be suspended. A user with an active, unexpired suspension cannot be
// suspended again; the partial unique index backs this check under concurrency.
func SuspendUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, targetID, moderatorID uuid.UUID, reason string, until *time.Time) (*UserSuspension, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if until != nil && until.Before(time.Now()) {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Suspension end time must be in the future")
	}

	target, err := user.GetUserBy(ctx, rclient, db, "id = ?", []interface{}{targetID}, "Role")
	if err != nil {
		return nil, err
	}
	if target.HasModeratorCapability() {
		return nil, ErrCannotSuspendModerator
	}

	// Let an elapsed temporary suspension lapse before judging "already suspended".
	if _, err := expireElapsedSuspensions(ctx, db, targetID); err != nil {
		return nil, err
	}

	var existing UserSuspension
	err = db.WithContext(ctx).Where("user_id = ? AND is_active = ?", targetID, true).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadySuspended
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check active suspensions")
	}

	suspension := &UserSuspension{
		UserID:         targetID,
		SuspendedByID:  moderatorID,
		Reason:         reason,
		SuspendedUntil: until,
		IsActive:       true,
	}
	if err := db.WithContext(ctx).Create(suspension).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadySuspended
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create suspension")
	}

	LogActivity(ctx, db, targetID, ActionUserSuspended, &moderatorID, "", nil,
		"User suspended. Reason: "+utils.Truncate(reason, 100))

	return suspension, nil
}

// expireElapsedSuspensions flips elapsed temporary suspensions to inactive as
// a single conditional UPDATE and reports how many rows it flipped. Concurrent
// callers observe the flip applied at most once; there is no read-then-write
// window to lose.
func expireElapsedSuspensions(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	res := db.WithContext(ctx).Model(&UserSuspension{}).
		Where("user_id = ? AND is_active = ? AND suspended_until IS NOT NULL AND suspended_until <= ?",
			userID, true, time.Now()).
		Update("is_active", false)
	if res.Error != nil {
		return 0, utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to expire suspension")
	}
	return res.RowsAffected, nil
}

// ActiveSuspension returns the user's current suspension after lazily expiring
// elapsed ones, or nil when the user is not suspended.
func ActiveSuspension(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*UserSuspension, error) {
	if _, err := expireElapsedSuspensions(ctx, db, userID); err != nil {
		return nil, err
	}

	var suspension UserSuspension
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("suspended_at DESC").
		First(&suspension).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to look up suspension")
	}
	return &suspension, nil
}

// IsSuspended answers whether the user is currently suspended. The answer
// reflects the outcome of the atomic expiry step, never a stale precheck.
func IsSuspended(ctx context.Context, db *gorm.DB, userID uuid.UUID) (bool, error) {
	suspension, err := ActiveSuspension(ctx, db, userID)
	if err != nil {
		return false, err
	}
	return suspension != nil, nil
}

// ReinstateUser lifts a suspension exactly once via a conditional UPDATE
// guarded on is_active.
func ReinstateUser(ctx context.Context, db *gorm.DB, suspensionID, moderatorID uuid.UUID, notes string) (*UserSuspension, error) {
	now := time.Now()
	res := db.WithContext(ctx).Model(&UserSuspension{}).
		Where("id = ? AND is_active = ?", suspensionID, true).
		Updates(map[string]interface{}{
			"is_active":           false,
			"reinstated_by_id":    moderatorID,
			"reinstated_at":       now,
			"reinstatement_notes": notes,
		})
	if res.Error != nil {
		return nil, utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to reinstate user")
	}
	if res.RowsAffected == 0 {
		var existing UserSuspension
		err := db.WithContext(ctx).First(&existing, "id = ?", suspensionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSuspensionNotFound
		}
		if err != nil {
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load suspension")
		}
		return nil, ErrAlreadyReinstated
	}

	var suspension UserSuspension
	if err := db.WithContext(ctx).Preload("User").Preload("ReinstatedBy").First(&suspension, "id = ?", suspensionID).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load suspension")
	}

	LogActivity(ctx, db, suspension.UserID, ActionUserReinstated, &moderatorID, "", nil,
		"User reinstated."+notesSuffix(notes))

	return &suspension, nil
}

func notesSuffix(notes string) string {
	if notes == "" {
		return ""
	}
	return " Notes: " + utils.Truncate(notes, 100)
}

// SuspensionHistory lists a user's suspensions, newest first.
func SuspensionHistory(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]UserSuspension, error) {
	var suspensions []UserSuspension
	err := db.WithContext(ctx).
		Preload("SuspendedBy").Preload("ReinstatedBy").
		Where("user_id = ?", userID).
		Order("suspended_at DESC").
		Find(&suspensions).Error
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load suspension history")
	}
	return suspensions, nil
}

// ListActiveSuspensions returns currently active suspensions, newest first.
func ListActiveSuspensions(ctx context.Context, db *gorm.DB, page, limit int) ([]UserSuspension, int64, error) {
	query := db.WithContext(ctx).Model(&UserSuspension{}).Where("is_active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count suspensions")
	}

	var suspensions []UserSuspension
	err := query.Preload("User").Preload("SuspendedBy").
		Order("suspended_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&suspensions).Error
	if err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list suspensions")
	}
	return suspensions, total, nil
}

// SuspensionStats returns dashboard counts for the suspension ledger.
func SuspensionStats(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	stats := map[string]int64{}
	counts := []struct {
		name string
		cond *gorm.DB
	}{
		{"active", db.Where("is_active = ?", true)},
		{"reinstated", db.Where("is_active = ?", false)},
		{"permanent", db.Where("is_active = ? AND suspended_until IS NULL", true)},
		{"temporary", db.Where("is_active = ? AND suspended_until IS NOT NULL", true)},
	}
	for _, c := range counts {
		var n int64
		if err := db.WithContext(ctx).Model(&UserSuspension{}).Where(c.cond).Count(&n).Error; err != nil {
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count suspensions")
		}
		stats[c.name] = n
	}
	return stats, nil
}
