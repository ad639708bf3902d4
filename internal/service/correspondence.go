// correspondence.go — сервис учёта корреспонденции.
// Регистрация поступлений, выдача, ручная правка статусов, удаление
// с каскадом вложений, выборки с учётом роли.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/status"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// BlobRemover — минимальный контракт blob-хранилища для каскадных удалений.
type BlobRemover interface {
	Remove(ctx context.Context, bucket string, paths []string) error
}

// CorrespondenceService — сервис учёта корреспонденции.
type CorrespondenceService struct {
	repo        repository.CorrespondenceRepository
	attachments repository.AttachmentRepository
	profiles    repository.ProfileRepository
	blobs       BlobRemover
	audit       *AuditService
	filesBucket string
	logger      *slog.Logger

	// now подменяется в тестах.
	now func() time.Time
}

// NewCorrespondenceService создаёт сервис корреспонденции.
func NewCorrespondenceService(
	repo repository.CorrespondenceRepository,
	attachments repository.AttachmentRepository,
	profiles repository.ProfileRepository,
	blobs BlobRemover,
	audit *AuditService,
	filesBucket string,
	logger *slog.Logger,
) *CorrespondenceService {
	return &CorrespondenceService{
		repo:        repo,
		attachments: attachments,
		profiles:    profiles,
		blobs:       blobs,
		audit:       audit,
		filesBucket: filesBucket,
		logger:      logger.With(slog.String("component", "correspondence_service")),
		now:         time.Now,
	}
}

// CreateInput — данные регистрации поступления.
type CreateInput struct {
	RecipientID    *uuid.UUID
	RecipientName  string
	RecipientEmail string
	Sender         string
	Type           string
	TrackingNumber *string
}

// UpdateInput — частичная правка записи (nil — поле не трогаем).
type UpdateInput struct {
	RecipientID              *uuid.UUID
	RecipientName            *string
	RecipientEmail           *string
	Sender                   *string
	Type                     *string
	Status                   *string
	TrackingNumber           *string
	Price                    *float64
	SupplierInfo             *string
	InternalOperationalNotes *string
}

// List возвращает записи, видимые пользователю: персонал видит всё
// (с очисткой служебных полей для recepcionista), cliente — только свои,
// строго по подтверждённому email из токена.
func (s *CorrespondenceService) List(ctx context.Context, actor *model.Profile) ([]model.Correspondence, error) {
	var items []model.Correspondence
	var err error

	if rbac.IsStaff(actor.Role) {
		items, err = s.repo.GetAll(ctx)
	} else {
		items, err = s.repo.GetByRecipientEmail(ctx, actor.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("выборка корреспонденции: %w", err)
	}

	scrubRestricted(items, actor.Role)
	return items, nil
}

// Get возвращает запись, если она видима пользователю.
func (s *CorrespondenceService) Get(ctx context.Context, actor *model.Profile, id uuid.UUID) (*model.Correspondence, error) {
	item, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	one := []model.Correspondence{*item}
	scrubRestricted(one, actor.Role)
	return &one[0], nil
}

// getVisible загружает запись и проверяет область видимости без очистки полей.
func (s *CorrespondenceService) getVisible(ctx context.Context, actor *model.Profile, id uuid.UUID) (*model.Correspondence, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	if !rbac.IsStaff(actor.Role) && !sameEmail(item.RecipientEmail, actor.Email) {
		// Для cliente чужая запись неотличима от несуществующей
		return nil, ErrNotFound
	}
	return item, nil
}

// Create регистрирует поступление. Дата и время проставляются сервером
// в момент вызова, клиентские значения не принимаются.
func (s *CorrespondenceService) Create(ctx context.Context, actor *model.Profile, in CreateInput) (*model.Correspondence, error) {
	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}
	if in.RecipientName == "" || in.RecipientEmail == "" || in.Sender == "" {
		return nil, fmt.Errorf("%w: destinatario, correo y remitente son obligatorios", ErrValidation)
	}
	if !model.IsValidType(in.Type) {
		return nil, fmt.Errorf("%w: tipo de correspondencia desconocido: %s", ErrValidation, in.Type)
	}

	now := s.now()
	item, err := s.repo.Create(ctx, repository.CorrespondenceCreate{
		RecipientID:    in.RecipientID,
		RecipientName:  in.RecipientName,
		RecipientEmail: in.RecipientEmail,
		Sender:         in.Sender,
		Type:           model.CorrespondenceType(in.Type),
		TrackingNumber: in.TrackingNumber,
		Date:           now.Format("2006-01-02"),
		Time:           now.Format("15:04"),
	})
	if err != nil {
		return nil, fmt.Errorf("регистрация корреспонденции: %w", err)
	}

	s.audit.Record(ctx, actor, model.EventCreate, model.ResourceCorrespondence, &item.ID,
		fmt.Sprintf("Registró %s de %s para %s", in.Type, in.Sender, in.RecipientName),
		model.AuditSuccess)

	s.logger.Info("Корреспонденция зарегистрирована",
		slog.String("id", item.ID.String()),
		slog.String("type", in.Type),
	)
	return item, nil
}

// Update применяет правку персонала, включая ручную смену статуса.
// Любая запись статуса Entregado проставляет атрибуцию выдачи, если её
// ещё нет. Выход из Entregado разрешён только admin/super_admin.
func (s *CorrespondenceService) Update(ctx context.Context, actor *model.Profile, id uuid.UUID, in UpdateInput) (*model.Correspondence, error) {
	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}
	if (in.Price != nil || in.SupplierInfo != nil || in.InternalOperationalNotes != nil) &&
		!rbac.CanViewRestrictedFields(actor.Role) {
		return nil, ErrPermissionDenied
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	upd := repository.CorrespondenceUpdate{
		RecipientID:              in.RecipientID,
		RecipientName:            in.RecipientName,
		RecipientEmail:           in.RecipientEmail,
		Sender:                   in.Sender,
		TrackingNumber:           in.TrackingNumber,
		Price:                    in.Price,
		SupplierInfo:             in.SupplierInfo,
		InternalOperationalNotes: in.InternalOperationalNotes,
	}
	if in.Type != nil {
		if !model.IsValidType(*in.Type) {
			return nil, fmt.Errorf("%w: tipo de correspondencia desconocido: %s", ErrValidation, *in.Type)
		}
		t := model.CorrespondenceType(*in.Type)
		upd.Type = &t
	}

	var auditEvent model.EventType
	var auditDetail string
	if in.Status != nil {
		newStatus, err := status.Parse(*in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}

		if newStatus != current.Status {
			if status.IsRegression(current.Status, newStatus) && !rbac.CanDeleteCorrespondence(actor.Role) {
				return nil, ErrPermissionDenied
			}

			now := s.now()
			upd.Status = &newStatus
			switch newStatus {
			case model.StatusDelivered:
				upd.DeliveredBy = &actor.ID
				upd.DeliveredAt = &now
			case model.StatusScanned:
				upd.DigitizedAt = &now
			}

			auditEvent = status.EventFor(newStatus, false)
			auditDetail = fmt.Sprintf("Cambió el estado de la correspondencia de %s a %s (%s de %s)",
				current.Status, newStatus, current.Type, current.Sender)
			if newStatus == model.StatusDelivered {
				auditDetail = fmt.Sprintf("Entregó %s de %s a %s",
					current.Type, current.Sender, current.RecipientName)
			}
		}
	}

	if err := s.repo.Update(ctx, id, upd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление записи: %w", err)
	}

	if auditEvent != "" {
		s.audit.Record(ctx, actor, auditEvent, model.ResourceCorrespondence, &id,
			auditDetail, model.AuditSuccess)
	} else {
		s.audit.Record(ctx, actor, model.EventUpdate, model.ResourceCorrespondence, &id,
			fmt.Sprintf("Actualizó la correspondencia de %s para %s",
				current.Sender, current.RecipientName),
			model.AuditSuccess)
	}

	return s.repo.GetByID(ctx, id)
}

// Deliver отмечает выдачу. Повторный вызов для уже выданной записи —
// no-op без новой записи в журнале.
func (s *CorrespondenceService) Deliver(ctx context.Context, actor *model.Profile, id uuid.UUID) (*model.Correspondence, error) {
	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	stamped, err := s.repo.MarkDelivered(ctx, id, actor.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("отметка выдачи: %w", err)
	}

	if stamped {
		s.audit.Record(ctx, actor, model.EventDeliver, model.ResourceCorrespondence, &id,
			fmt.Sprintf("Entregó %s de %s a %s", item.Type, item.Sender, item.RecipientName),
			model.AuditSuccess)
	}

	return s.repo.GetByID(ctx, id)
}

// Delete удаляет запись вместе с вложениями. Сначала снимаются blob'ы и
// строки вложений, затем сама запись. Осиротевшие blob'ы при сбое
// хранилища — логируемая частичная неудача, запись всё равно удаляется.
func (s *CorrespondenceService) Delete(ctx context.Context, actor *model.Profile, id uuid.UUID) error {
	if !rbac.CanDeleteCorrespondence(actor.Role) {
		return ErrPermissionDenied
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("получение записи: %w", err)
	}

	paths, err := s.attachments.DeleteByCorrespondence(ctx, id)
	if err != nil {
		return fmt.Errorf("удаление вложений записи: %w", err)
	}

	var blobErr error
	if len(paths) > 0 {
		if blobErr = s.blobs.Remove(ctx, s.filesBucket, paths); blobErr != nil {
			s.logger.Error("Не удалось удалить файлы вложений из хранилища",
				slog.String("correspondence_id", id.String()),
				slog.Int("paths", len(paths)),
				slog.String("error", blobErr.Error()),
			)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление записи: %w", err)
	}

	s.audit.Record(ctx, actor, model.EventDelete, model.ResourceCorrespondence, &id,
		fmt.Sprintf("Eliminó la correspondencia de %s para %s", item.Sender, item.RecipientName),
		model.AuditSuccess)

	if blobErr != nil {
		return &PartialFailure{
			Message: "La correspondencia fue eliminada, pero algunos archivos adjuntos no pudieron borrarse del almacenamiento",
			Failed:  []string{"blobstore"},
			Err:     blobErr,
		}
	}
	return nil
}

// SearchRecipients ищет кандидатов-получателей по подстроке имени или email.
func (s *CorrespondenceService) SearchRecipients(ctx context.Context, actor *model.Profile, query string) ([]model.Profile, error) {
	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}
	if query == "" {
		return nil, nil
	}

	found, err := s.profiles.Search(ctx, query, 5)
	if err != nil {
		return nil, fmt.Errorf("поиск получателей: %w", err)
	}
	return found, nil
}

// History возвращает корреспонденцию, связанную с пользователем
// (как получателем или выдавшим). Доступно самому пользователю и персоналу.
func (s *CorrespondenceService) History(ctx context.Context, actor *model.Profile, userID uuid.UUID) ([]model.Correspondence, error) {
	if actor.ID != userID && !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}

	target, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение профиля: %w", err)
	}

	items, err := s.repo.ListForUser(ctx, userID, target.Email)
	if err != nil {
		return nil, fmt.Errorf("выборка истории: %w", err)
	}

	scrubRestricted(items, actor.Role)
	return items, nil
}

// scrubRestricted обнуляет служебные поля для ролей ниже admin.
func scrubRestricted(items []model.Correspondence, role string) {
	if rbac.CanViewRestrictedFields(role) {
		return
	}
	for i := range items {
		items[i].Price = nil
		items[i].SupplierInfo = nil
		items[i].InternalOperationalNotes = nil
	}
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(a, b)
}
