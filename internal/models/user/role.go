package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

// Role names seeded at startup.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	Name        string       `gorm:"size:50;not null;unique" json:"name" validate:"required"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type Permission struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:50;not null;unique" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// SeedRoles initializes default roles and permissions.
func SeedRoles(ctx context.Context, db *gorm.DB, rclient *storage.RedisClient) error {
	roles := []struct {
		Name        string
		Permissions []string
	}{
		{RoleMember, []string{
			"flag_content", "read_own_suspensions",
		}},
		{RoleModerator, []string{
			"flag_content", "review_flags", "edit_any_content", "delete_any_content",
			"suspend_user", "reinstate_user", "read_activity_log", "read_notifications",
		}},
		{RoleAdmin, []string{
			"flag_content", "review_flags", "edit_any_content", "delete_any_content",
			"suspend_user", "reinstate_user", "read_activity_log", "read_notifications",
			"assign_roles", "site_settings",
		}},
	}

	for _, r := range roles {
		var role Role
		if err := db.WithContext(ctx).Where("name = ?", r.Name).FirstOrCreate(&role, Role{Name: r.Name}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to seed role: "+r.Name)
		}

		for _, permName := range r.Permissions {
			var perm Permission
			if err := db.WithContext(ctx).Where("name = ?", permName).FirstOrCreate(&perm, Permission{Name: permName}).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to seed permission: "+permName)
			}
			db.WithContext(ctx).Model(&role).Association("Permissions").Append(&perm)
		}

		// Cache permission names in Redis
		if rclient != nil {
			var perms []Permission
			db.WithContext(ctx).Model(&role).Association("Permissions").Find(&perms)
			names := make([]string, len(perms))
			for i, p := range perms {
				names[i] = p.Name
			}
			permsJSON, _ := json.Marshal(names)
			rclient.Set(ctx, "perms:role:"+r.Name, permsJSON, 10*time.Minute)
		}
	}

	return nil
}
