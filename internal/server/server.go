// Пакет server — HTTP-сервер Mailroom Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на входном прокси.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/botanico/correspondencia/mailroom-module/internal/api/handlers"
	"github.com/botanico/correspondencia/mailroom-module/internal/api/middleware"
	"github.com/botanico/correspondencia/mailroom-module/internal/config"
)

// Server — HTTP-сервер Mailroom Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// JWT middleware с исключениями для публичных endpoints.
	if jwtAuth != nil {
		router.Use(jwtAuthWithExclusions(jwtAuth,
			"/health/", "/metrics",
			"/api/v1/auth/login", "/api/v1/auth/refresh", "/api/v1/auth/recover",
		))
	}

	registerRoutes(router, handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// registerRoutes привязывает все маршруты API к обработчику.
func registerRoutes(router chi.Router, h *handlers.APIHandler) {
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Post("/refresh", h.Refresh)
			r.Post("/recover", h.Recover)
			r.Post("/password", h.ChangePassword)
			r.Get("/me", h.Me)
		})

		r.Get("/profile", h.GetProfile)
		r.Patch("/profile", h.UpdateProfile)

		r.Route("/correspondence", func(r chi.Router) {
			r.Get("/", h.ListCorrespondence)
			r.Post("/", h.CreateCorrespondence)
			r.Get("/search-recipients", h.SearchRecipients)
			r.Get("/{id}", h.GetCorrespondence)
			r.Patch("/{id}", h.UpdateCorrespondence)
			r.Delete("/{id}", h.DeleteCorrespondence)
			r.Post("/{id}/deliver", h.DeliverCorrespondence)
			r.Post("/{id}/notify", h.NotifyCorrespondence)
			r.Get("/{id}/attachments", h.ListAttachments)
			r.Post("/{id}/attachments", h.UploadAttachment)
		})

		r.Route("/attachments", func(r chi.Router) {
			r.Delete("/{id}", h.DeleteAttachment)
			r.Get("/{id}/signed-url", h.AttachmentSignedURL)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Patch("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
			r.Get("/{id}/history", h.UserHistory)
		})

		r.Get("/dashboard/stats", h.DashboardStats)

		r.Get("/storage-config", h.GetStorageConfig)
		r.Put("/storage-config", h.UpdateStorageConfig)

		r.Get("/audit-logs", h.ListAuditLogs)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/read-all", h.MarkAllNotificationsRead)
			r.Post("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/audit", h.FeedAudit)
			r.Get("/notifications", h.FeedNotifications)
		})
	})
}

// jwtAuthWithExclusions оборачивает JWTAuth.Middleware(), пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без JWT.
func jwtAuthWithExclusions(jwtAuth *middleware.JWTAuth, excludePrefixes ...string) func(http.Handler) http.Handler {
	jwtMiddleware := jwtAuth.Middleware()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			jwtMiddleware(next).ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
