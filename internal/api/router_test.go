package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/safeguardhq/trustguard/internal/auth"
	"github.com/safeguardhq/trustguard/internal/config"
	"github.com/safeguardhq/trustguard/internal/content"
	"github.com/safeguardhq/trustguard/internal/models"
	user "github.com/safeguardhq/trustguard/internal/models/user"
	"github.com/safeguardhq/trustguard/pkg/logger"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type routerTestEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func newRouterTestEnv(t *testing.T) *routerTestEnv {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.RegisterModels()...))
	for _, stmt := range models.Indexes {
		require.NoError(t, db.Exec(stmt).Error)
	}
	require.NoError(t, models.SeedRoles(ctx, db, nil))

	mr := miniredis.RunT(t)
	rclient, err := storage.NewRedis(ctx, mr.Addr(), "")
	require.NoError(t, err)

	log, err := logger.NewLogger(ctx, logger.WithOutputDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(log.Close)

	registry := content.NewRegistry()
	registry.Register(content.NewPostProvider(db))
	registry.Register(content.NewMessageProvider(db))

	auth.SetSecret("router-test-secret")

	cfg := &config.Config{AppURL: "http://localhost:3000"}
	app := fiber.New()
	NewRoutes(app, cfg, db, log, rclient, registry)

	return &routerTestEnv{app: app, db: db}
}

func (e *routerTestEnv) createMember(t *testing.T, name string) *user.User {
	t.Helper()
	u, err := models.NewUser(context.Background(), nil, e.db, name, name+"@example.com", "hashed")
	require.NoError(t, err)
	return u
}

func (e *routerTestEnv) createModerator(t *testing.T, name string) *user.User {
	t.Helper()
	var modRole user.Role
	require.NoError(t, e.db.Where("name = ?", user.RoleModerator).First(&modRole).Error)
	u, err := models.NewUser(context.Background(), nil, e.db, name, name+"@example.com", "hashed", user.WithRole(modRole.ID))
	require.NoError(t, err)
	return u
}

func (e *routerTestEnv) get(t *testing.T, u *user.User, path string) *http.Response {
	t.Helper()
	token, err := auth.GenerateAccessToken(u.ID.String(), u.RoleID.String())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestActivityLogRequiresModerator(t *testing.T) {
	env := newRouterTestEnv(t)

	owner := env.createMember(t, "routerowner")
	member := env.createMember(t, "routermember")
	moderator := env.createModerator(t, "routermod")

	path := "/api/v1/organizations/" + owner.ID.String() + "/activity"

	// The audit trail is a moderator surface; ordinary accounts are refused.
	resp := env.get(t, member, path)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.get(t, moderator, path)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestModeratorRoutesRefuseMembers(t *testing.T) {
	env := newRouterTestEnv(t)
	member := env.createMember(t, "routermember2")

	for _, path := range []string{
		"/api/v1/flags",
		"/api/v1/flags/stats",
		"/api/v1/suspensions",
		"/api/v1/notifications",
	} {
		resp := env.get(t, member, path)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "path %s", path)
	}

	// Member-reachable surfaces still work for the same account.
	resp := env.get(t, member, "/api/v1/suspensions/notice")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
