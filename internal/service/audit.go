// audit.go — сервис журнала аудита.
// Записи добавляются после успешного завершения основной операции;
// сбой записи в журнал логируется, но не отменяет операцию.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// AuditPublisher — доставка записей журнала в realtime-канал.
// Может быть nil, если realtime не настроен.
type AuditPublisher interface {
	PublishAudit(ctx context.Context, e model.AuditLogEntry)
}

// AuditService — сервис журнала аудита.
type AuditService struct {
	repo      repository.AuditLogRepository
	publisher AuditPublisher
	logger    *slog.Logger
}

// NewAuditService создаёт сервис журнала аудита.
func NewAuditService(repo repository.AuditLogRepository, publisher AuditPublisher, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "audit_service")),
	}
}

// Record добавляет запись журнала. Ошибка записи логируется и не
// возвращается: журнал не должен ронять основную операцию.
func (s *AuditService) Record(ctx context.Context, actor *model.Profile, eventType model.EventType,
	resourceType model.ResourceType, resourceID *uuid.UUID, details string, status model.AuditStatus) {

	e := model.AuditLogEntry{
		EventType:    eventType,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		Status:       status,
	}
	if actor != nil {
		e.UserID = &actor.ID
		e.UserName = actor.FullName
	} else {
		e.UserName = "Sistema"
	}

	saved, err := s.repo.Insert(ctx, e)
	if err != nil {
		s.logger.Error("Не удалось записать событие в журнал аудита",
			slog.String("event_type", string(eventType)),
			slog.String("details", details),
			slog.String("error", err.Error()),
		)
		return
	}

	if s.publisher != nil {
		s.publisher.PublishAudit(ctx, *saved)
	}
}

// List возвращает страницу журнала. Доступно только super_admin.
func (s *AuditService) List(ctx context.Context, actor *model.Profile, f model.AuditLogFilter) ([]model.AuditLogEntry, int, error) {
	if !rbac.CanViewAuditLog(actor.Role) {
		return nil, 0, ErrPermissionDenied
	}

	entries, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка журнала аудита: %w", err)
	}
	return entries, total, nil
}
