package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/boardroom/internal/adapter/handler"
	"github.com/johnquangdev/boardroom/internal/adapter/repository"
	"github.com/johnquangdev/boardroom/internal/infrastructure/cache"
	"github.com/johnquangdev/boardroom/internal/infrastructure/database"
	"github.com/johnquangdev/boardroom/internal/infrastructure/storage"
	"github.com/johnquangdev/boardroom/internal/usecase/deliberation"
	"github.com/johnquangdev/boardroom/internal/usecase/diagnostics"
	"github.com/johnquangdev/boardroom/internal/usecase/usage"
	pkgai "github.com/johnquangdev/boardroom/pkg/ai"
	"github.com/johnquangdev/boardroom/pkg/config"
	"github.com/johnquangdev/boardroom/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/boardroom/pkg/validator"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Schema is normally managed with cmd/migrate
	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			logger.Fatal("DB_AUTO_MIGRATE is enabled in production; run cmd/migrate instead")
		}
		if _, err := database.Migrate(db, migrate.Up, 0, logger); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	probes := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	var locker cache.Locker
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(cfg, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient, logger)
		probes["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		memory := cache.NewMemoryStore()
		defer memory.Close()
		locker = memory
		logger.Warn("REDIS_HOST is empty; meeting locks are process-local")
	}

	var store deliberation.ObjectStore
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinIOClient(&cfg.Storage)
		if err != nil {
			logger.Fatal("failed to initialize attachment storage", zap.Error(err))
		}
		store = minioClient
		probes["storage"] = minioClient
	}

	client, err := pkgai.NewOpenAIClient(&cfg.LLM)
	if err != nil {
		logger.Fatal("failed to initialize reasoning client", zap.Error(err))
	}

	settings, err := deliberation.NewSettingsStore(deliberation.SettingsFromConfig(cfg.Deliberation, cfg.LLM))
	if err != nil {
		logger.Fatal("invalid deliberation settings", zap.Error(err))
	}

	service := deliberation.NewService(deliberation.Dependencies{
		Meetings:  repository.NewMeetingRepository(db),
		Agents:    repository.NewAgentRepository(db),
		Documents: repository.NewCompanyFileRepository(db),
		Client:    client,
		Settings:  settings,
		Locker:    locker,
		Store:     store,
		Recorder:  diagnostics.NewRecorder(logger),
		Usage:     usage.NewStoreReporter(repository.NewUsageRepository(db), logger),
		Logger:    logger,
		LockTTL:   cfg.Redis.LockTTL,
	})
	defer service.Close()

	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)
	router := handler.NewRouter(cfg, jwtManager, handler.NewMeetingHandler(service, logger), probes)
	router.Setup(e)

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("server stopped gracefully")
}
