package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	v1 "github.com/safeguardhq/trustguard/internal/api/v1"
	"github.com/safeguardhq/trustguard/internal/auth"
	"github.com/safeguardhq/trustguard/internal/config"
	"github.com/safeguardhq/trustguard/internal/content"
	"github.com/safeguardhq/trustguard/pkg/logger"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/safeguardhq/trustguard/pkg/utils"
	"gorm.io/gorm"
)

func NewRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB, log *logger.Logger, rclient *storage.RedisClient, registry *content.Registry) {
	app.Use(
		logger.SetupLogger(log),
		recover.New(),
		cors.New(
			cors.Config{
				AllowOrigins:     cfg.AppURL,
				AllowCredentials: true,
				AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			},
		),
		compress.New(
			compress.Config{
				Level: compress.LevelBestCompression,
			},
		),
		limiter.New(
			limiter.Config{
				Expiration: 1 * time.Minute,
				Max:        60,
				KeyGenerator: func(c *fiber.Ctx) string {
					return c.IP()
				},
			},
		),
	)
	app.Use(log.Middleware())

	v1.Init(db, rclient, log, registry, utils.EmailConfig{
		Enabled:      cfg.SMTPEnabled,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		AppURL:       cfg.AppURL,
		FromEmail:    cfg.FromEmail,
	})

	opt := auth.Options{DB: db, Rclient: rclient, Logger: log}

	api := app.Group("/api/v1")
	api.Post("/register", v1.Register)
	api.Post("/login", v1.Login)
	api.Post("/logout", v1.Logout)

	// Every authenticated route sits behind the suspension gate; suspended
	// users get a 403 with their notice instead of the handler.
	authed := api.Group("", auth.RequireAuth(opt), auth.SuspensionGate(opt))
	authed.Post("/flags", v1.SubmitFlag)
	authed.Get("/suspensions/notice", v1.SuspensionNotice)

	mod := authed.Group("", auth.RequireModerator(opt))
	mod.Get("/organizations/:organization_id/activity", v1.ActivityLog)
	mod.Get("/flags", v1.ListFlags)
	mod.Get("/flags/stats", v1.FlagStats)
	mod.Post("/flags/:id/approve", v1.ApproveFlag)
	mod.Post("/flags/:id/dismiss", v1.DismissFlag)
	mod.Post("/flags/:id/delete", v1.DeleteFlaggedContent)
	mod.Put("/flags/:id/content", v1.EditFlaggedContent)

	mod.Post("/users/:user_id/suspend", v1.SuspendUser)
	mod.Get("/suspensions", v1.ListActiveSuspensions)
	mod.Get("/suspensions/stats", v1.SuspensionStats)
	mod.Post("/suspensions/:id/reinstate", v1.ReinstateUser)
	mod.Get("/users/:user_id/suspensions", v1.SuspensionHistory)

	mod.Get("/notifications", v1.ListNotifications)
	mod.Get("/notifications/unread-count", v1.UnreadCount)
	mod.Post("/notifications/:id/read", v1.MarkNotificationRead)
}
