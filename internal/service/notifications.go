// notifications.go — сервис внутрисистемных уведомлений пользователя.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// NotificationPublisher — доставка уведомлений в realtime-канал.
// Может быть nil, если realtime не настроен.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n model.Notification)
}

// NotificationService — сервис внутрисистемных уведомлений.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher NotificationPublisher
	logger    *slog.Logger
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo repository.NotificationRepository, publisher NotificationPublisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "notification_service")),
	}
}

// List возвращает последние 20 уведомлений пользователя.
func (s *NotificationService) List(ctx context.Context, actor *model.Profile) ([]model.Notification, error) {
	list, err := s.repo.ListByUser(ctx, actor.ID, 20)
	if err != nil {
		return nil, fmt.Errorf("выборка уведомлений: %w", err)
	}
	return list, nil
}

// Create добавляет уведомление и публикует его в realtime-канал.
func (s *NotificationService) Create(ctx context.Context, n model.Notification) (*model.Notification, error) {
	saved, err := s.repo.Insert(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("создание уведомления: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishNotification(ctx, *saved)
	}
	return saved, nil
}

// MarkRead отмечает уведомление пользователя прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, actor *model.Profile, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("отметка уведомления: %w", err)
	}
	return nil
}

// MarkAllRead отмечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *model.Profile) error {
	if err := s.repo.MarkAllRead(ctx, actor.ID); err != nil {
		return fmt.Errorf("отметка уведомлений: %w", err)
	}
	return nil
}

// Delete удаляет уведомление пользователя.
func (s *NotificationService) Delete(ctx context.Context, actor *model.Profile, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление уведомления: %w", err)
	}
	return nil
}
