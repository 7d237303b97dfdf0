package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/cache"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/config"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/database"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/logging"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/render"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/routes"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/storage"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logOpts := logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.StorageSigningKey == "" {
		slog.Error("STORAGE_SIGNING_KEY environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, logOpts),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Blob storage
	signer := storage.NewURLSigner(cfg.StorageSigningKey, cfg.PublicBaseURL)
	var store storage.Storage
	switch cfg.StorageDriver {
	case "memory":
		slog.Warn("using in-memory storage, signed agreements will not survive a restart")
		store = storage.NewMemoryStorage(signer)
	default:
		local, err := storage.NewLocalStorage(cfg.StorageDir, signer)
		if err != nil {
			slog.Error("storage init failed", "dir", cfg.StorageDir, "error", err)
			os.Exit(1)
		}
		store = local
	}

	// Settings cache (optional)
	var settingsCache cache.SettingsCache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			slog.Warn("redis unavailable, settings cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			settingsCache = cache.NewRedisSettingsCache(client, cfg.SettingsCacheTTL)
			defer client.Close()
		}
	}

	registry := tenant.NewRegistry(database.DB)
	validate := validation.New()

	// Services
	guard := services.NewDailyLimitGuard(cfg.Location())
	workOrderService := services.NewWorkOrderService(database.DB, guard)
	noteService := services.NewNoteService(database.DB)
	templateService := services.NewTemplateService(database.DB)
	settingsService := services.NewSettingsService(database.DB, settingsCache)
	agreementService := services.NewAgreementService(database.DB, store, render.NewPDFRenderer(), cfg)

	// Handlers
	healthHandler := handlers.NewHealthHandler(store)
	submissionHandler := handlers.NewSubmissionHandler(workOrderService, validate)
	legalHandler := handlers.NewLegalHandler(database.DB, templateService)
	agreementHandler := handlers.NewAgreementHandler(agreementService, validate)
	workOrderHandler := handlers.NewWorkOrderHandler(workOrderService, validate)
	noteHandler := handlers.NewNoteHandler(noteService, validate)
	templateHandler := handlers.NewTemplateHandler(templateService, validate)
	settingsHandler := handlers.NewSettingsHandler(settingsService, validate)
	fileHandler := handlers.NewFileHandler(store, signer, cfg.StorageTimeout)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app. Signatures arrive as base64 data URLs.
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, registry,
		healthHandler, submissionHandler, legalHandler, agreementHandler,
		workOrderHandler, noteHandler, templateHandler, settingsHandler, fileHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "storage", cfg.StorageDriver, "timezone", cfg.ShopTimezone)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
