package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	moderation "github.com/safeguardhq/trustguard/internal/models/moderation"
	user "github.com/safeguardhq/trustguard/internal/models/user"
	"github.com/safeguardhq/trustguard/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newGateTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&user.Role{},
		&user.Permission{},
		&moderation.UserSuspension{},
		&moderation.ActivityLogEntry{},
	))
	require.NoError(t, db.Exec(moderation.ActiveSuspensionIndex).Error)
	require.NoError(t, user.SeedRoles(context.Background(), db, nil))
	return db
}

func newGateTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(context.Background(), logger.WithOutputDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(log.Close)
	return log
}

// newGateApp builds a fiber app with the gate installed behind a middleware
// that injects the given user, standing in for RequireAuth.
func newGateApp(opt Options, u *user.User) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if u != nil {
			c.Locals("user", u)
		}
		return c.Next()
	})
	app.Use(SuspensionGate(opt))

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/api/v1/ping", ok)
	app.Get(SuspensionNoticePath, ok)
	app.Get("/admin/dashboard", ok)
	return app
}

func createGateMember(t *testing.T, db *gorm.DB, name string) *user.User {
	t.Helper()
	u, err := user.NewUser(context.Background(), nil, db, name, name+"@example.com", "hashed")
	require.NoError(t, err)
	return u
}

func TestGateBlocksSuspendedUser(t *testing.T) {
	db := newGateTestDB(t)
	log := newGateTestLogger(t)
	opt := Options{DB: db, Logger: log}

	member := createGateMember(t, db, "suspended1")
	moderator := createGateMember(t, db, "gatemod1")
	suspension, err := moderation.SuspendUser(context.Background(), nil, db, member.ID, moderator.ID, "spamming", nil)
	require.NoError(t, err)

	app := newGateApp(opt, member)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, suspension.ID.String(), payload["suspension_id"])
	assert.Equal(t, "spamming", payload["reason"])
}

func TestGatePassesUnsuspendedUser(t *testing.T) {
	db := newGateTestDB(t)
	log := newGateTestLogger(t)
	opt := Options{DB: db, Logger: log}

	member := createGateMember(t, db, "clean1")
	app := newGateApp(opt, member)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGatePassesAnonymous(t *testing.T) {
	db := newGateTestDB(t)
	log := newGateTestLogger(t)
	opt := Options{DB: db, Logger: log}

	app := newGateApp(opt, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateBypassesExemptPaths(t *testing.T) {
	db := newGateTestDB(t)
	log := newGateTestLogger(t)
	opt := Options{DB: db, Logger: log}

	member := createGateMember(t, db, "suspended2")
	moderator := createGateMember(t, db, "gatemod2")
	_, err := moderation.SuspendUser(context.Background(), nil, db, member.ID, moderator.ID, "spamming", nil)
	require.NoError(t, err)

	app := newGateApp(opt, member)

	// A suspended user can still read their own notice.
	resp, err := app.Test(httptest.NewRequest("GET", SuspensionNoticePath, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/admin/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGatePassesModerators(t *testing.T) {
	db := newGateTestDB(t)
	log := newGateTestLogger(t)
	opt := Options{DB: db, Logger: log}

	var modRole user.Role
	require.NoError(t, db.Where("name = ?", user.RoleModerator).First(&modRole).Error)
	moderator, err := user.NewUser(context.Background(), nil, db, "gatemod3", "gatemod3@example.com", "hashed", user.WithRole(modRole.ID))
	require.NoError(t, err)
	loaded, err := user.GetUserBy(context.Background(), nil, db, "id = ?", []interface{}{moderator.ID}, "Role")
	require.NoError(t, err)

	app := newGateApp(opt, loaded)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateExpiredSuspensionPasses(t *testing.T) {
	db := newGateTestDB(t)
	log := newGateTestLogger(t)
	opt := Options{DB: db, Logger: log}

	member := createGateMember(t, db, "expired1")
	moderator := createGateMember(t, db, "gatemod4")

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(&moderation.UserSuspension{
		UserID:         member.ID,
		SuspendedByID:  moderator.ID,
		Reason:         "short ban",
		SuspendedUntil: &past,
		IsActive:       true,
	}).Error)

	app := newGateApp(opt, member)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateFailsOpenOnLookupError(t *testing.T) {
	db := newGateTestDB(t)
	log := newGateTestLogger(t)

	member := createGateMember(t, db, "unlucky1")

	// A broken database must not lock everyone out.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	opt := Options{DB: db, Logger: log}
	app := newGateApp(opt, member)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
