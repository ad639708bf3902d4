// notify.go — диспетчер email-уведомлений о поступившей корреспонденции.
// Адрес выбирается по приоритету: notification_email профиля → email
// профиля → recipient_email самой записи. email_status меняется на
// Enviado только после подтверждения провайдера, никогда заранее.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/mailer"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// Sender — контракт почтового провайдера.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

// NotifyService — диспетчер email-уведомлений.
type NotifyService struct {
	correspondence repository.CorrespondenceRepository
	profiles       repository.ProfileRepository
	notifications  repository.NotificationRepository
	sender         Sender
	audit          *AuditService
	dashboardURL   string
	logger         *slog.Logger
}

// NewNotifyService создаёт диспетчер уведомлений.
func NewNotifyService(
	correspondence repository.CorrespondenceRepository,
	profiles repository.ProfileRepository,
	notifications repository.NotificationRepository,
	sender Sender,
	audit *AuditService,
	dashboardURL string,
	logger *slog.Logger,
) *NotifyService {
	return &NotifyService{
		correspondence: correspondence,
		profiles:       profiles,
		notifications:  notifications,
		sender:         sender,
		audit:          audit,
		dashboardURL:   dashboardURL,
		logger:         logger.With(slog.String("component", "notify_service")),
	}
}

// Notify отправляет получателю email о поступившей корреспонденции.
func (s *NotifyService) Notify(ctx context.Context, actor *model.Profile, id uuid.UUID) (*model.Correspondence, error) {
	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}

	item, err := s.correspondence.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	to, err := s.resolveDestination(ctx, item)
	if err != nil {
		return nil, err
	}

	html, err := mailer.ArrivalHTML(item.RecipientName, item.Sender, string(item.Type),
		item.Date, item.Time, s.dashboardURL)
	if err != nil {
		return nil, fmt.Errorf("подготовка письма: %w", err)
	}

	_, sendErr := s.sender.Send(ctx, mailer.Message{
		To:      to,
		Subject: mailer.Subject(item.Sender),
		HTML:    html,
	})
	if sendErr != nil {
		// Неудачная попытка фиксируется в записи и журнале
		if err := s.correspondence.SetEmailStatus(ctx, id, model.EmailFailed); err != nil {
			s.logger.Error("Не удалось зафиксировать неудачную отправку",
				slog.String("id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		s.audit.Record(ctx, actor, model.EventNotify, model.ResourceCorrespondence, &id,
			fmt.Sprintf("Error al notificar a %s (%s): %v", item.RecipientName, to, sendErr),
			model.AuditFailed)

		var se *mailer.SendError
		transient := errors.As(sendErr, &se) && se.Transient
		return nil, &DependencyError{Provider: "mailer", Transient: transient, Err: sendErr}
	}

	if err := s.correspondence.SetEmailStatus(ctx, id, model.EmailSent); err != nil {
		return nil, fmt.Errorf("обновление статуса уведомления: %w", err)
	}

	s.audit.Record(ctx, actor, model.EventNotify, model.ResourceCorrespondence, &id,
		fmt.Sprintf("Notificó a %s (%s) sobre %s de %s", item.RecipientName, to, item.Type, item.Sender),
		model.AuditSuccess)

	s.createInAppNotice(ctx, item)

	return s.correspondence.GetByID(ctx, id)
}

// resolveDestination выбирает адрес по приоритету. Выключенные
// email-уведомления в настройках профиля блокируют отправку целиком.
func (s *NotifyService) resolveDestination(ctx context.Context, item *model.Correspondence) (string, error) {
	if item.RecipientID == nil {
		if item.RecipientEmail == "" {
			return "", ErrNoEmailAddress
		}
		return item.RecipientEmail, nil
	}

	profile, err := s.profiles.GetByID(ctx, *item.RecipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Профиль удалён после регистрации записи
			if item.RecipientEmail == "" {
				return "", ErrNoEmailAddress
			}
			return item.RecipientEmail, nil
		}
		return "", fmt.Errorf("получение профиля получателя: %w", err)
	}

	if !profile.EmailNotifications {
		return "", ErrNotificationsDisabled
	}

	if to := profile.NotifyEmail(); to != "" {
		return to, nil
	}
	if item.RecipientEmail != "" {
		return item.RecipientEmail, nil
	}
	return "", ErrNoEmailAddress
}

// createInAppNotice добавляет внутрисистемное уведомление получателю
// с аккаунтом. Сбой логируется и не влияет на результат отправки.
func (s *NotifyService) createInAppNotice(ctx context.Context, item *model.Correspondence) {
	if item.RecipientID == nil {
		return
	}

	_, err := s.notifications.Insert(ctx, model.Notification{
		UserID:  *item.RecipientID,
		Title:   "Nueva correspondencia",
		Message: fmt.Sprintf("Has recibido %s de %s", item.Type, item.Sender),
		Type:    model.NotifyInfo,
		Link:    &item.ID,
	})
	if err != nil {
		s.logger.Warn("Не удалось создать внутрисистемное уведомление",
			slog.String("correspondence_id", item.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
