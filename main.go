package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/leonixyz/oncalendar/internal/api"
	"github.com/leonixyz/oncalendar/internal/config"
	"github.com/leonixyz/oncalendar/internal/database"
	"github.com/leonixyz/oncalendar/internal/handlers"
	"github.com/leonixyz/oncalendar/internal/logging"
	"github.com/leonixyz/oncalendar/internal/middleware"
	"github.com/leonixyz/oncalendar/internal/repository"
	"github.com/leonixyz/oncalendar/internal/scheduler"
	"github.com/leonixyz/oncalendar/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// NOTE: At least one .sql file must exist in migrations/ for embedding to work.
// Make sure to build from the project root so the path is correct.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

func runMigrations(cfg *config.Config) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", cfg.Database.ToDBConfig().DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	fmt.Println("Migrations applied successfully.")
	return nil
}

func main() {
	// CLI flags
	configPath := pflag.StringP("config", "c", "config.yaml", "Path to config file")
	runMigrate := pflag.BoolP("migrate", "m", false, "Run database migrations and exit")
	version := pflag.BoolP("version", "v", false, "Print version and exit")
	port := pflag.IntP("port", "p", 8080, "HTTP server listen port")
	logLevel := pflag.StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")
	masterToken := pflag.String("master-token", "", "Override master token from config")
	jwtSecret := pflag.String("jwt-secret", "", "Override JWT secret from config")

	pflag.Parse()

	if *version {
		fmt.Println("oncalendard version 1.0.0")
		os.Exit(0)
	}

	cfg, err := config.LoadWithPath(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if *runMigrate {
		if err := runMigrations(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Override config with CLI flags if set
	if pflag.Lookup("port").Changed {
		cfg.Server.Port = *port
	}
	if pflag.Lookup("log-level").Changed {
		cfg.Logging.Level = *logLevel
	}
	if pflag.Lookup("master-token").Changed && *masterToken != "" {
		cfg.Auth.MasterToken = *masterToken
	}
	if pflag.Lookup("jwt-secret").Changed && *jwtSecret != "" {
		cfg.Auth.JWTSecret = *jwtSecret
	}

	// Initialize logger
	logger, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Configuration loaded", zap.Int("port", cfg.Server.Port))

	durations, err := cfg.ParseRetentionDurations()
	if err != nil {
		logger.Fatal("Failed to parse retention durations", zap.Error(err))
	}

	lookbackHorizon, err := cfg.Auditor.LookbackHorizonDuration()
	if err != nil {
		logger.Fatal("Failed to parse lookback horizon", zap.Error(err))
	}

	defaultLocation, err := time.LoadLocation(cfg.Auditor.Timezone)
	if err != nil {
		logger.Fatal("Unknown auditor timezone", zap.String("timezone", cfg.Auditor.Timezone), zap.Error(err))
	}

	// Initialize database connection
	db, err := database.NewPostgresDB(cfg.Database.ToDBConfig())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Initialize repositories
	scheduleRepo := repository.NewScheduleRepository(db, logger, redisClient, "")
	occurrenceRepo := repository.NewOccurrenceRepository(db)

	// Initialize services
	tokenService := services.NewTokenService(cfg.Auth.MasterToken, cfg.Auth.JWTSecret)
	hmacService := services.NewHMACService(cfg.HMAC.DefaultSecret)

	// Initialize the catch-up pipeline
	recorder := scheduler.NewRecorder(redisClient, logger, "")
	auditor := scheduler.NewAuditor(
		scheduleRepo,
		occurrenceRepo,
		recorder,
		cfg.Auditor.ScanInterval,
		cfg.Auditor.LookbackCount,
		lookbackHorizon,
		defaultLocation,
		logger,
	)
	notifier := scheduler.NewNotifier(recorder, occurrenceRepo, hmacService, logger)
	janitor := scheduler.NewJanitor(db, redisClient, scheduleRepo, occurrenceRepo, durations, logger)

	// Initialize handlers
	scheduleHandler := handlers.NewScheduleHandler(scheduleRepo)
	occurrenceHandler := handlers.NewOccurrenceHandler(scheduleRepo, occurrenceRepo)
	previewHandler := handlers.NewPreviewHandler()
	tokenHandler := handlers.NewTokenHandler(tokenService)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, logger, scheduleHandler, occurrenceHandler, previewHandler, tokenHandler, tokenService, rateLimiter, cfg.Auth.MasterToken)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := auditor.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Auditor error", zap.Error(err))
		}
	}()

	go func() {
		if err := notifier.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Notifier error", zap.Error(err))
		}
	}()

	go func() {
		if err := janitor.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Janitor error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Shutting down server...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Fatal("Server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("Starting server", zap.Int("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}
}
