package models

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/internal/content"
	user "github.com/safeguardhq/trustguard/internal/models/user"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var userSeq int

// newTestDB opens an in-memory sqlite database migrated with the full schema,
// including the partial unique indexes the invariants depend on. A single
// connection keeps concurrent test goroutines on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&user.User{},
		&user.Role{},
		&user.Permission{},
		&content.Post{},
		&content.Message{},
		&FlaggedContent{},
		&ModeratorNotification{},
		&UserSuspension{},
		&ActivityLogEntry{},
	)
	require.NoError(t, err)

	for _, stmt := range []string{PendingFlagIndex, ActiveSuspensionIndex} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	require.NoError(t, user.SeedRoles(context.Background(), db, nil))

	return db
}

func newTestRedis(t *testing.T) *storage.RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := storage.NewRedis(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	return client
}

func newTestRegistry(db *gorm.DB) *content.Registry {
	registry := content.NewRegistry()
	registry.Register(content.NewPostProvider(db))
	registry.Register(content.NewMessageProvider(db))
	return registry
}

func createMember(t *testing.T, db *gorm.DB) *user.User {
	t.Helper()
	userSeq++
	u, err := user.NewUser(context.Background(), nil, db,
		fmt.Sprintf("member%d", userSeq), fmt.Sprintf("member%d@example.com", userSeq), "hashed-password")
	require.NoError(t, err)
	return u
}

func createModerator(t *testing.T, db *gorm.DB) *user.User {
	t.Helper()
	var modRole user.Role
	require.NoError(t, db.Where("name = ?", user.RoleModerator).First(&modRole).Error)

	userSeq++
	u, err := user.NewUser(context.Background(), nil, db,
		fmt.Sprintf("mod%d", userSeq), fmt.Sprintf("mod%d@example.com", userSeq), "hashed-password",
		user.WithRole(modRole.ID))
	require.NoError(t, err)

	loaded, err := user.GetUserBy(context.Background(), nil, db, "id = ?", []interface{}{u.ID}, "Role")
	require.NoError(t, err)
	return loaded
}

func createStaff(t *testing.T, db *gorm.DB) *user.User {
	t.Helper()
	userSeq++
	u, err := user.NewUser(context.Background(), nil, db,
		fmt.Sprintf("staff%d", userSeq), fmt.Sprintf("staff%d@example.com", userSeq), "hashed-password",
		user.WithStaff())
	require.NoError(t, err)
	return u
}

func createPost(t *testing.T, db *gorm.DB, authorID uuid.UUID, title, body string) *content.Post {
	t.Helper()
	post := &content.Post{AuthorID: authorID, Title: title, Body: body}
	require.NoError(t, db.Create(post).Error)
	return post
}

func createMessage(t *testing.T, db *gorm.DB, senderID uuid.UUID, text string) *content.Message {
	t.Helper()
	msg := &content.Message{SenderID: senderID, Content: text}
	require.NoError(t, db.Create(msg).Error)
	return msg
}

func futureTime(d time.Duration) *time.Time {
	ts := time.Now().Add(d)
	return &ts
}
