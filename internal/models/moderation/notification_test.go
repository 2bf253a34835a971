package models

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeratorSet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	createMember(t, db)
	moderator := createModerator(t, db)
	staff := createStaff(t, db)

	set, err := ModeratorSet(ctx, db)
	require.NoError(t, err)
	require.Len(t, set, 2)

	ids := map[uuid.UUID]bool{}
	for _, m := range set {
		ids[m.ID] = true
	}
	assert.True(t, ids[moderator.ID])
	assert.True(t, ids[staff.ID])
}

func TestFanOutNotifications(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db)
	rclient := newTestRedis(t)

	author := createMember(t, db)
	flagger := createMember(t, db)
	mod1 := createModerator(t, db)
	mod2 := createModerator(t, db)
	post := createPost(t, db, author.ID, "title", "body")

	flag, err := SubmitFlag(ctx, rclient, db, registry, "post", post.ID, flagger.ID, "report")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&ModeratorNotification{}).Where("flag_id = ?", flag.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// Re-running the fan-out adds nothing: the conflict clause eats duplicates.
	require.NoError(t, FanOutNotifications(ctx, rclient, db, flag))
	require.NoError(t, db.Model(&ModeratorNotification{}).Where("flag_id = ?", flag.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	for _, modID := range []uuid.UUID{mod1.ID, mod2.ID} {
		unread, err := UnreadCount(ctx, rclient, db, modID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, unread)
	}
}

func TestFanOutWithNoModerators(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db)

	author := createMember(t, db)
	flagger := createMember(t, db)
	post := createPost(t, db, author.ID, "title", "body")

	flag, err := SubmitFlag(ctx, nil, db, registry, "post", post.ID, flagger.ID, "report")
	require.NoError(t, err)
	require.NotNil(t, flag)

	var count int64
	require.NoError(t, db.Model(&ModeratorNotification{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestMarkNotificationRead(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db)
	rclient := newTestRedis(t)

	author := createMember(t, db)
	flagger := createMember(t, db)
	moderator := createModerator(t, db)
	post := createPost(t, db, author.ID, "title", "body")

	_, err := SubmitFlag(ctx, rclient, db, registry, "post", post.ID, flagger.ID, "report")
	require.NoError(t, err)

	notifications, total, err := ListNotifications(ctx, db, moderator.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	notif := notifications[0]
	assert.False(t, notif.IsRead)

	require.NoError(t, MarkNotificationRead(ctx, rclient, db, notif.ID, moderator.ID))

	// Idempotent on repeat.
	require.NoError(t, MarkNotificationRead(ctx, rclient, db, notif.ID, moderator.ID))

	unread, err := UnreadCount(ctx, rclient, db, moderator.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	// A moderator cannot touch another moderator's notification.
	other := createModerator(t, db)
	err = MarkNotificationRead(ctx, rclient, db, notif.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestUnreadCountCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db)
	rclient := newTestRedis(t)

	author := createMember(t, db)
	flagger := createMember(t, db)
	moderator := createModerator(t, db)

	p1 := createPost(t, db, author.ID, "one", "a")
	p2 := createPost(t, db, author.ID, "two", "b")

	_, err := SubmitFlag(ctx, rclient, db, registry, "post", p1.ID, flagger.ID, "r1")
	require.NoError(t, err)

	unread, err := UnreadCount(ctx, rclient, db, moderator.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	// A second fan-out invalidates the cached count.
	_, err = SubmitFlag(ctx, rclient, db, registry, "post", p2.ID, flagger.ID, "r2")
	require.NoError(t, err)

	unread, err = UnreadCount(ctx, rclient, db, moderator.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)
}

func TestListNotificationsPaging(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db)

	author := createMember(t, db)
	flagger := createMember(t, db)
	moderator := createModerator(t, db)

	for i := 0; i < 5; i++ {
		post := createPost(t, db, author.ID, "post", "body")
		_, err := SubmitFlag(ctx, nil, db, registry, "post", post.ID, flagger.ID, "report")
		require.NoError(t, err)
	}

	page1, total, err := ListNotifications(ctx, db, moderator.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page1, 2)

	page3, _, err := ListNotifications(ctx, db, moderator.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)
}
