// Точка входа Mailroom Module — backend учёта корреспонденции
// коворкинга Botánico. Загружает конфигурацию, применяет миграции,
// подключается к PostgreSQL, инициализирует клиенты IdP, blob-хранилища
// и email-провайдера, опционально поднимает realtime-ленту через Redis,
// собирает сервисный слой и запускает HTTP-сервер с JWT middleware
// и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botanico/correspondencia/mailroom-module/internal/api/handlers"
	"github.com/botanico/correspondencia/mailroom-module/internal/api/middleware"
	"github.com/botanico/correspondencia/mailroom-module/internal/blobstore"
	"github.com/botanico/correspondencia/mailroom-module/internal/config"
	"github.com/botanico/correspondencia/mailroom-module/internal/database"
	"github.com/botanico/correspondencia/mailroom-module/internal/feed"
	"github.com/botanico/correspondencia/mailroom-module/internal/idp"
	"github.com/botanico/correspondencia/mailroom-module/internal/mailer"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
	"github.com/botanico/correspondencia/mailroom-module/internal/server"
	"github.com/botanico/correspondencia/mailroom-module/internal/service"
)

const (
	// Интервал фонового обновления JWKS.
	jwksRefreshInterval = 1 * time.Hour
	// Допуск рассинхронизации часов при проверке JWT.
	jwtLeeway = 30 * time.Second
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
	logger.Info("Mailroom Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

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

	// 5. Внешние клиенты: IdP, blob-хранилище, email-провайдер
	idpClient := idp.New(cfg.IDPURL, cfg.IDPServiceKey, nil, logger)
	blobClient := blobstore.New(cfg.StorageURL, cfg.StorageKey, nil, logger)
	mailClient := mailer.New(cfg.MailerAPIKey, cfg.MailerFrom,
		&http.Client{Timeout: cfg.MailerTimeout}, logger)

	// 6. Repositories
	profileRepo := repository.NewProfileRepository(pool)
	correspondenceRepo := repository.NewCorrespondenceRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	storageConfigRepo := repository.NewStorageConfigRepository(pool)

	// 7. Realtime-лента (опционально, если MR_REDIS_ADDR задан)
	var (
		auditPublisher        service.AuditPublisher
		notificationPublisher service.NotificationPublisher
		feedSubscriber        *feed.Subscriber
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		publisher := feed.NewPublisher(rdb, logger)
		if pingErr := publisher.Ping(ctx); pingErr != nil {
			logger.Warn("Redis недоступен при старте, лента продолжит попытки подключения",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", pingErr.Error()),
			)
		}
		auditPublisher = publisher
		notificationPublisher = publisher

		feedSubscriber = feed.NewSubscriber(rdb, logger)
		go func() {
			if runErr := feedSubscriber.Run(ctx); runErr != nil {
				logger.Error("Подписка realtime-ленты завершилась с ошибкой",
					slog.String("error", runErr.Error()),
				)
			}
		}()
		logger.Info("Realtime-лента включена", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Realtime-лента отключена (MR_REDIS_ADDR не задан)")
	}

	// 8. Services
	auditSvc := service.NewAuditService(auditRepo, auditPublisher, logger)
	identitySvc := service.NewIdentityService(idpClient, profileRepo, auditSvc, logger)
	correspondenceSvc := service.NewCorrespondenceService(
		correspondenceRepo, attachmentRepo, profileRepo,
		blobClient, auditSvc,
		cfg.StorageBucketFiles,
		logger,
	)
	attachmentSvc := service.NewAttachmentService(
		attachmentRepo, correspondenceRepo,
		blobClient, auditSvc,
		cfg.StorageBucketFiles, cfg.MaxAttachmentSize, cfg.SignedURLTTL,
		logger,
	)
	notifySvc := service.NewNotifyService(
		correspondenceRepo, profileRepo, notificationRepo,
		mailClient, auditSvc,
		cfg.DashboardURL,
		logger,
	)
	userSvc := service.NewUserService(
		profileRepo, correspondenceRepo, attachmentRepo, notificationRepo,
		idpClient, blobClient, auditSvc,
		cfg.StorageBucketFiles, cfg.StorageBucketAvatars,
		logger,
	)
	dashboardSvc := service.NewDashboardService(
		correspondenceRepo, attachmentRepo, storageConfigRepo, logger)
	storageConfigSvc := service.NewStorageConfigService(storageConfigRepo, auditSvc, logger)
	notificationSvc := service.NewNotificationService(notificationRepo, notificationPublisher, logger)

	// 9. Readiness checkers (PostgreSQL + IdP)
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, idpClient)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		identitySvc,
		correspondenceSvc,
		attachmentSvc,
		notifySvc,
		userSvc,
		dashboardSvc,
		storageConfigSvc,
		auditSvc,
		notificationSvc,
		logger,
	)
	if feedSubscriber != nil {
		apiHandler.SetFeed(feedSubscriber)
	}

	// 11. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.JWTIssuer,
		jwksRefreshInterval,
		jwtLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Mailroom Module остановлен")
}
