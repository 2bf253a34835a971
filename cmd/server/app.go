package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	routes "github.com/safeguardhq/trustguard/internal/api"
	"github.com/safeguardhq/trustguard/internal/auth"
	"github.com/safeguardhq/trustguard/internal/config"
	"github.com/safeguardhq/trustguard/internal/content"
	"github.com/safeguardhq/trustguard/internal/db"
	"github.com/safeguardhq/trustguard/internal/models"
	"github.com/safeguardhq/trustguard/pkg/logger"
	storage "github.com/safeguardhq/trustguard/pkg/redis"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	auth.SetSecret(cfg.JWTSecret)

	log, err := logger.NewLogger(ctx)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	redisClient, err := storage.NewRedis(ctx, cfg.RedisAddr, "")
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize Redis")
		panic(err)
	}
	defer redisClient.Close(log)

	gormDB, err := db.NewDB(
		ctx,
		cfg.DSN(),
		models.RegisterModels(),
		db.WithLogger(log),
		db.WithIndexes(models.Indexes...),
	)
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize PostgreSQL database")
		panic("DB init failed")
	}
	defer db.CloseDB(log)

	if err := models.SeedRoles(ctx, gormDB, redisClient); err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to seed roles")
		panic("Role seeding failed")
	}

	registry := content.NewRegistry()
	registry.Register(content.NewPostProvider(gormDB))
	registry.Register(content.NewMessageProvider(gormDB))

	app := fiber.New()
	routes.NewRoutes(app, cfg, gormDB, log, redisClient, registry)

	// Shutdown order matters: stop accepting requests first, then let the
	// deferred closes above release the logger, redis and database once.
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Error(context.Background()).WithMeta(utils.Map{"error": err.Error()}).Logs("Server shutdown failed")
		}
	}()

	log.Info(ctx).WithMeta(utils.Map{"addr": cfg.ServerAddr}).Logs("TrustGuard listening")
	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Error(context.Background()).WithMeta(utils.Map{"error": err.Error()}).Logs("Server stopped")
	}
}
