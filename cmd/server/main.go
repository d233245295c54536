package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/wdv96wdv/Doclimb/internal/config"
	"github.com/wdv96wdv/Doclimb/internal/database"
	"github.com/wdv96wdv/Doclimb/internal/routes"
	"github.com/wdv96wdv/Doclimb/internal/services"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Postgres and Redis
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(ctx, cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	if err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer database.CloseRedis()

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{BodyLimit: 12 << 20})

	// Middleware
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	runtime, err := routes.RegisterRoutes(app, cfg, database.DB, database.Rdb)
	if err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	// 4. Background work
	runtime.Sessions.Start()
	defer runtime.Sessions.Close()

	if err := runtime.Gyms.Load(ctx); err != nil {
		log.Fatalf("Failed to load gyms: %v", err)
	}
	if cfg.DefaultAdminEmail != "" {
		if err := runtime.Auth.EnsureAdmin(ctx, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword); err != nil {
			slog.Error("ensure_admin_failed", "error", err, "email", cfg.DefaultAdminEmail)
		}
	}

	go runtime.Hub.Run(ctx)
	go func() {
		err := database.Listen(ctx, database.DB, services.GymUpdatesChannel, runtime.Gyms.HandleNotification)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("gym_listener_stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTTL)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("server_shutdown_failed", "error", err)
		}
	}()

	// 5. Start Server
	slog.Info("server_starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.AppEnv == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
