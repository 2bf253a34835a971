package models

import (
	"github.com/safeguardhq/trustguard/internal/content"
	moderation "github.com/safeguardhq/trustguard/internal/models/moderation"
	user "github.com/safeguardhq/trustguard/internal/models/user"
)

// RegisterModels lists every model AutoMigrate manages.
func RegisterModels() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Role{},
		&user.Permission{},
		&content.Post{},
		&content.Message{},
		&moderation.FlaggedContent{},
		&moderation.ModeratorNotification{},
		&moderation.UserSuspension{},
		&moderation.ActivityLogEntry{},
	}
}

// Indexes that need raw DDL beyond what GORM tags express.
var Indexes = []string{
	moderation.PendingFlagIndex,
	moderation.ActiveSuspensionIndex,
}

const (
	FlagPending   = moderation.FlagPending
	FlagApproved  = moderation.FlagApproved
	FlagDismissed = moderation.FlagDismissed
	FlagEdited    = moderation.FlagEdited
	FlagDeleted   = moderation.FlagDeleted

	RoleMember    = user.RoleMember
	RoleModerator = user.RoleModerator
	RoleAdmin     = user.RoleAdmin
)

type (
	User                  = user.User
	Role                  = user.Role
	Permission            = user.Permission
	FlaggedContent        = moderation.FlaggedContent
	FlagFilter            = moderation.FlagFilter
	ModeratorNotification = moderation.ModeratorNotification
	UserSuspension        = moderation.UserSuspension
	ActivityLogEntry      = moderation.ActivityLogEntry
)

var (
	NewUser   = user.NewUser
	GetUserBy = user.GetUserBy
	CacheUser = user.CacheUser
	SeedRoles = user.SeedRoles
	WithStaff = user.WithStaff
	WithRole  = user.WithRole

	SubmitFlag           = moderation.SubmitFlag
	GetFlagByID          = moderation.GetFlagByID
	ApproveFlag          = moderation.ApproveFlag
	DismissFlag          = moderation.DismissFlag
	MarkFlagEdited       = moderation.MarkFlagEdited
	DeleteFlaggedContent = moderation.DeleteFlaggedContent
	EditFlaggedContent   = moderation.EditFlaggedContent
	ListFlags            = moderation.ListFlags
	AttachPreviews       = moderation.AttachPreviews
	FlagStats            = moderation.FlagStats

	ModeratorSet         = moderation.ModeratorSet
	FanOutNotifications  = moderation.FanOutNotifications
	MarkNotificationRead = moderation.MarkNotificationRead
	UnreadCount          = moderation.UnreadCount
	ListNotifications    = moderation.ListNotifications

	SuspendUser           = moderation.SuspendUser
	ActiveSuspension      = moderation.ActiveSuspension
	IsSuspended           = moderation.IsSuspended
	ReinstateUser         = moderation.ReinstateUser
	SuspensionHistory     = moderation.SuspensionHistory
	ListActiveSuspensions = moderation.ListActiveSuspensions
	SuspensionStats       = moderation.SuspensionStats

	LogActivity    = moderation.LogActivity
	ActivityLogFor = moderation.ActivityLogFor
)
