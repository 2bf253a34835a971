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

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Username string `gorm:"size:255;not null;unique" json:"username" validate:"required,min=3,max=255,alphanum"`
	Email    string `gorm:"size:100;not null;unique" json:"email" validate:"required,email"`
	Password string `gorm:"size:255;not null" json:"-" validate:"required,min=6"`

	// IsStaff marks site staff; staff always carry moderator capability.
	IsStaff bool      `gorm:"default:false" json:"is_staff"`
	RoleID  uuid.UUID `gorm:"type:uuid;not null" json:"role_id"`
	Role    Role      `gorm:"foreignKey:RoleID" json:"role"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasModeratorCapability is the single capability predicate the whole engine
// uses: staff and the moderator/admin roles can moderate, nobody else.
// Requires Role to be preloaded; a zero Role means no role capability.
func (u *User) HasModeratorCapability() bool {
	if u == nil {
		return false
	}
	return u.IsStaff || u.Role.Name == RoleModerator || u.Role.Name == RoleAdmin
}

// UserOption configures a User.
type UserOption func(*User)

// WithStaff marks the new user as site staff.
func WithStaff() UserOption {
	return func(u *User) { u.IsStaff = true }
}

// WithRole assigns a specific role instead of the default member role.
func WithRole(roleID uuid.UUID) UserOption {
	return func(u *User) { u.RoleID = roleID }
}

// NewUser creates a new User with the default member role.
func NewUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, username, email, password string, opts ...UserOption) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "user creation canceled")
	}

	var memberRole Role
	if err := db.WithContext(ctx).Where("name = ?", RoleMember).First(&memberRole).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Default 'member' role not found")
	}

	u := &User{
		Username: username,
		Email:    email,
		Password: password,
		RoleID:   memberRole.ID,
	}

	for _, opt := range opts {
		opt(u)
	}

	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create user in database")
	}

	CacheUser(ctx, rclient, u)

	return u, nil
}

// GetUserBy retrieves a user by an arbitrary condition, with optional preloading.
func GetUserBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}, preload ...string) (*User, error) {
	var u User
	query := db.WithContext(ctx).Where(condition, args...)
	for _, p := range preload {
		if p != "" {
			query = query.Preload(p)
		}
	}
	if err := query.First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "User not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get user")
	}

	return &u, nil
}

// CacheUser stores the user JSON in Redis; failures are silent, the cache is advisory.
func CacheUser(ctx context.Context, rclient *storage.RedisClient, u *User) {
	if rclient == nil {
		return
	}
	userJSON, err := json.Marshal(u)
	if err != nil {
		return
	}
	rclient.Set(ctx, "user:"+u.ID.String(), userJSON, 10*time.Minute)
}
