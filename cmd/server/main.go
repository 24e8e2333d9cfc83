package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/fantasy-marathon/cache"
	"github.com/Dosada05/fantasy-marathon/config"
	"github.com/Dosada05/fantasy-marathon/db"
	"github.com/Dosada05/fantasy-marathon/handlers"
	"github.com/Dosada05/fantasy-marathon/live"
	"github.com/Dosada05/fantasy-marathon/records"
	"github.com/Dosada05/fantasy-marathon/repositories"
	api "github.com/Dosada05/fantasy-marathon/routes"
	"github.com/Dosada05/fantasy-marathon/rulesets"
	"github.com/Dosada05/fantasy-marathon/services"
	"github.com/Dosada05/fantasy-marathon/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("rulesets_dir", cfg.RuleSetsDir))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	if err := db.EnsureSchema(startupCtx, dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Версии правил подсчёта
	catalog, err := rulesets.LoadDir(cfg.RuleSetsDir)
	if err != nil {
		logger.Error("failed to load scoring rule sets", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("scoring rule sets loaded", slog.Any("versions", catalog.Versions()))

	standingsCache, err := cache.NewStandingsCache(cfg.CacheOptions())
	if err != nil {
		logger.Error("invalid cache configuration", slog.Any("error", err))
		os.Exit(1)
	}
	registry := records.NewRegistry()

	// Архив итоговых таблиц (Cloudflare R2) подключается только при наличии ключей
	var archiver *storage.SnapshotArchiver
	if cfg.ArchiveEnabled() {
		store, err := storage.NewCloudflareR2Store(startupCtx, storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewSnapshotArchiver(store)
		logger.Info("Cloudflare R2 archive enabled", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 credentials not configured, final standings will not be archived")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	defer wsHub.Stop()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	rosterRepo := repositories.NewPostgresRosterRepository(dbConn)
	recordRepo := repositories.NewPostgresRecordRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	recordService := services.NewRecordService(recordRepo, registry, standingsCache, wsHub, logger)
	resultService := services.NewResultService(gameRepo, resultRepo, recordRepo, registry, standingsCache, wsHub, logger)
	gameService := services.NewGameService(gameRepo, rosterRepo, catalog, standingsCache, logger)
	standingsService := services.NewStandingsService(
		gameRepo,
		resultRepo,
		rosterRepo,
		registry,
		catalog,
		standingsCache,
		archiver,
		wsHub,
		logger,
	)
	logger.Info("Services initialized")

	if err := recordService.Warm(startupCtx); err != nil {
		logger.Error("failed to load race records", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация обработчиков HTTP
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Standings: handlers.NewStandingsHandler(standingsService),
		Results:   handlers.NewResultHandler(resultService),
		Records:   handlers.NewRecordHandler(recordService),
		Games:     handlers.NewGameHandler(gameService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins),
	}, []byte(cfg.JWTSecretKey), cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

	// WriteTimeout не задан: WebSocket-соединения живут дольше любого запроса,
	// обычные маршруты ограничены chi Timeout.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		// Фоновые перерасчёты кэша дописывают значения, дожидаемся их.
		standingsCache.Wait()
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
