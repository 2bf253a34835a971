package models

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	user "github.com/safeguardhq/trustguard/internal/models/user"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModeratorNotification struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ModeratorID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_notif_moderator_flag" json:"moderator_id"`
	Moderator   user.User      `gorm:"foreignKey:ModeratorID" json:"-"`
	FlagID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_notif_moderator_flag" json:"flag_id"`
	Flag        FlaggedContent `gorm:"foreignKey:FlagID" json:"flag"`
	IsRead      bool           `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (n *ModeratorNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func unreadCountKey(moderatorID uuid.UUID) string {
	return "notifications:unread:" + moderatorID.String()
}

// ModeratorSet returns every user with moderator capability: role moderators
// plus staff, deduplicated by the single query.
func ModeratorSet(ctx context.Context, db *gorm.DB) ([]user.User, error) {
	var moderators []user.User
	err := db.WithContext(ctx).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.is_staff = ? OR roles.name IN ?", true, []string{user.RoleModerator, user.RoleAdmin}).
		Find(&moderators).Error
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load moderator set")
	}
	return moderators, nil
}

// FanOutNotifications creates one notification per moderator for a new flag.
// The insert ignores conflicts on (moderator, flag), so concurrent triggers
// for the same flag produce exactly one row per moderator.
func FanOutNotifications(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, flag *FlaggedContent) error {
	moderators, err := ModeratorSet(ctx, db)
	if err != nil {
		return err
	}
	if len(moderators) == 0 {
		return nil
	}

	rows := make([]ModeratorNotification, 0, len(moderators))
	for _, m := range moderators {
		rows = append(rows, ModeratorNotification{
			ModeratorID: m.ID,
			FlagID:      flag.ID,
		})
	}

	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fan out notifications")
	}

	if rclient != nil {
		for _, m := range moderators {
			rclient.Del(ctx, unreadCountKey(m.ID))
		}
	}

	return nil
}

// MarkNotificationRead marks one notification as read; repeated calls are no-ops.
func MarkNotificationRead(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, notificationID, moderatorID uuid.UUID) error {
	var notif ModeratorNotification
	err := db.WithContext(ctx).First(&notif, "id = ? AND moderator_id = ?", notificationID, moderatorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load notification")
	}

	if notif.IsRead {
		return nil
	}

	err = db.WithContext(ctx).Model(&ModeratorNotification{}).
		Where("id = ?", notificationID).
		Update("is_read", true).Error
	if err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to mark notification read")
	}

	if rclient != nil {
		rclient.Del(ctx, unreadCountKey(moderatorID))
	}
	return nil
}

// UnreadCount returns the moderator's unread notification count, cached briefly.
func UnreadCount(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, moderatorID uuid.UUID) (int64, error) {
	key := unreadCountKey(moderatorID)
	if rclient != nil {
		if cached, err := rclient.Get(ctx, key).Result(); err == nil {
			if n, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
				return n, nil
			}
		}
	}

	var count int64
	err := db.WithContext(ctx).Model(&ModeratorNotification{}).
		Where("moderator_id = ? AND is_read = ?", moderatorID, false).
		Count(&count).Error
	if err != nil {
		return 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count unread notifications")
	}

	if rclient != nil {
		rclient.Set(ctx, key, strconv.FormatInt(count, 10), 30*time.Second)
	}
	return count, nil
}

// ListNotifications returns a moderator's notifications newest-first.
func ListNotifications(ctx context.Context, db *gorm.DB, moderatorID uuid.UUID, page, limit int) ([]ModeratorNotification, int64, error) {
	query := db.WithContext(ctx).Model(&ModeratorNotification{}).Where("moderator_id = ?", moderatorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count notifications")
	}

	var notifications []ModeratorNotification
	err := query.Preload("Flag").Preload("Flag.FlaggedBy").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list notifications")
	}

	return notifications, total, nil
}
