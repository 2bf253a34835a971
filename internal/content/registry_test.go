package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Post{}, &Message{}))
	return db
}

func newRegistry(db *gorm.DB) *Registry {
	r := NewRegistry()
	r.Register(NewPostProvider(db))
	r.Register(NewMessageProvider(db))
	return r
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newRegistry(db)

	post := &Post{AuthorID: uuid.New(), Title: "A perfectly reasonable title that runs long enough to truncate", Body: "body"}
	require.NoError(t, db.Create(post).Error)

	handle, err := registry.Resolve(ctx, "post", post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.AuthorID, handle.Owner())
	assert.Equal(t, "Post: "+post.Title[:50], handle.Describe())

	_, err = registry.Resolve(ctx, "post", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = registry.Resolve(ctx, "widget", post.ID)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newRegistry(db)

	msg := &Message{SenderID: uuid.New(), Content: "rude message"}
	require.NoError(t, db.Create(msg).Error)

	require.NoError(t, registry.Delete(ctx, "message", msg.ID))

	var count int64
	require.NoError(t, db.Model(&Message{}).Where("id = ?", msg.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// Deleting again, or deleting via an unknown kind, is a no-op.
	assert.NoError(t, registry.Delete(ctx, "message", msg.ID))
	assert.NoError(t, registry.Delete(ctx, "widget", msg.ID))
}

func TestSearchIDs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	author := uuid.New()
	matching := &Post{AuthorID: author, Title: "Free CRYPTO now", Body: "x"}
	other := &Post{AuthorID: author, Title: "Garden tips", Body: "water plants"}
	require.NoError(t, db.Create(matching).Error)
	require.NoError(t, db.Create(other).Error)

	provider := NewPostProvider(db)
	ids, err := provider.SearchIDs(ctx, "crypto")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, matching.ID, ids[0])

	// Body text matches too.
	ids, err = provider.SearchIDs(ctx, "plants")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, other.ID, ids[0])
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	post := &Post{AuthorID: uuid.New(), Title: "Before", Body: "old"}
	require.NoError(t, db.Create(post).Error)

	provider := NewPostProvider(db)
	require.NoError(t, provider.Edit(ctx, post.ID, map[string]string{"title": "After"}))

	var updated Post
	require.NoError(t, db.First(&updated, "id = ?", post.ID).Error)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, "old", updated.Body)

	err := provider.Edit(ctx, post.ID, map[string]string{"author_id": "nope"})
	assert.Error(t, err)

	err = provider.Edit(ctx, uuid.New(), map[string]string{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
