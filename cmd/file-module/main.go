// Точка входа File Module — модуль метаданных файлов сервиса GoDrive.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт клиента media storage, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/godrive/file-module/internal/api/handlers"
	"github.com/bigkaa/godrive/file-module/internal/api/middleware"
	"github.com/bigkaa/godrive/file-module/internal/config"
	"github.com/bigkaa/godrive/file-module/internal/database"
	"github.com/bigkaa/godrive/file-module/internal/repository"
	"github.com/bigkaa/godrive/file-module/internal/server"
	"github.com/bigkaa/godrive/file-module/internal/service"
	"github.com/bigkaa/godrive/file-module/internal/storageclient"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("File Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждение о дефолтном значении topologymetrics
	if os.Getenv("FM_DEPHEALTH_GROUP") == "" {
		logger.Warn("FM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент media storage
	storageClient, err := storageclient.New(
		cfg.StorageURL,
		cfg.StoragePrivateKey,
		cfg.StorageCACertPath,
		cfg.StorageTimeout,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания клиента media storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Клиент media storage создан", slog.String("url", cfg.StorageURL))

	// 6. Repository и кэш метаданных
	fileRepo := repository.NewFileRepository(pool)
	cacheSvc := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)

	// 7. Services
	fileSvc := service.NewFileService(fileRepo, cacheSvc, logger)
	deleteSvc := service.NewDeleteService(
		fileRepo, storageClient, cacheSvc,
		cfg.StorageTimeout, cfg.TrashDeleteConcurrency,
		logger,
	)

	// 8. Readiness checkers (PostgreSQL + media storage)
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, storageClient)

	// 9. API handler
	apiHandler := handlers.NewAPIHandler(healthHandler, fileSvc, deleteSvc, logger)

	// 10. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWKSURL,
		cfg.JWKSCACertPath,
		cfg.JWTIssuer,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jwtAuth.Close()
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL + media storage)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"file-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseDSN(),
		cfg.StorageURL,
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 12. Создание и запуск HTTP-сервера.
	// Порядок middleware: метрики → логирование → JWT
	// (health и metrics проходят без авторизации).
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		server.JWTAuthWithExclusions(jwtAuth.Middleware(), "/health/", "/metrics"),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("File Module остановлен")
}
