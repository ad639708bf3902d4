// users.go — сервис жизненного цикла пользователей.
// Создание аккаунта IdP + профиля как одна логическая операция,
// каскадное удаление с отвязкой корреспонденции.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/blobstore"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// AccountProvider — контракт Identity Provider для управления аккаунтами.
type AccountProvider interface {
	CreateAccount(ctx context.Context, email, password, fullName string) (string, error)
	DeleteAccount(ctx context.Context, accountID string) error
}

// BlobAdmin — контракт blob-хранилища для каскадных удалений пользователя.
type BlobAdmin interface {
	Remove(ctx context.Context, bucket string, paths []string) error
	List(ctx context.Context, bucket, prefix string, limit int) ([]blobstore.ObjectInfo, error)
}

// UserService — сервис управления пользователями.
type UserService struct {
	profiles       repository.ProfileRepository
	correspondence repository.CorrespondenceRepository
	attachments    repository.AttachmentRepository
	notifications  repository.NotificationRepository
	accounts       AccountProvider
	blobs          BlobAdmin
	audit          *AuditService
	filesBucket    string
	avatarsBucket  string
	logger         *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(
	profiles repository.ProfileRepository,
	correspondence repository.CorrespondenceRepository,
	attachments repository.AttachmentRepository,
	notifications repository.NotificationRepository,
	accounts AccountProvider,
	blobs BlobAdmin,
	audit *AuditService,
	filesBucket, avatarsBucket string,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		profiles:       profiles,
		correspondence: correspondence,
		attachments:    attachments,
		notifications:  notifications,
		accounts:       accounts,
		blobs:          blobs,
		audit:          audit,
		filesBucket:    filesBucket,
		avatarsBucket:  avatarsBucket,
		logger:         logger.With(slog.String("component", "user_service")),
	}
}

// List возвращает все профили. Доступно персоналу.
func (s *UserService) List(ctx context.Context, actor *model.Profile) ([]model.Profile, error) {
	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}

	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("выборка пользователей: %w", err)
	}
	return profiles, nil
}

// CreateUserInput — данные создания пользователя.
type CreateUserInput struct {
	Email       string
	Password    string
	FullName    string
	Role        string
	PhoneNumber *string
}

// Create создаёт аккаунт IdP и профиль. Если профиль не удалось
// сохранить после создания аккаунта, аккаунт откатывается; при сбое
// отката несогласованность логируется для ручной сверки.
func (s *UserService) Create(ctx context.Context, actor *model.Profile, in CreateUserInput) (*model.Profile, error) {
	if !rbac.IsValidRole(in.Role) {
		return nil, fmt.Errorf("%w: rol desconocido: %s", ErrValidation, in.Role)
	}
	if !rbac.CanManage(actor.Role, in.Role) {
		return nil, fmt.Errorf("%w: no puedes crear usuarios con rol %s", ErrPermissionDenied, in.Role)
	}
	if in.Email == "" || in.FullName == "" {
		return nil, fmt.Errorf("%w: correo y nombre son obligatorios", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos 8 caracteres", ErrValidation)
	}

	accountID, err := s.accounts.CreateAccount(ctx, in.Email, in.Password, in.FullName)
	if err != nil {
		return nil, &DependencyError{Provider: "idp", Transient: true, Err: err}
	}

	userID, err := uuid.Parse(accountID)
	if err != nil {
		_ = s.accounts.DeleteAccount(ctx, accountID)
		return nil, fmt.Errorf("IdP вернул некорректный id аккаунта %q: %w", accountID, err)
	}

	profile, err := s.profiles.Create(ctx, model.Profile{
		ID:                 userID,
		FullName:           in.FullName,
		Email:              in.Email,
		Role:               in.Role,
		Status:             model.AccountActive,
		PhoneNumber:        in.PhoneNumber,
		EmailNotifications: true,
		AlertSounds:        true,
		CreatedBy:          &actor.ID,
	})
	if err != nil {
		// Откат аккаунта IdP, иначе останется половинчатое состояние
		if rbErr := s.accounts.DeleteAccount(ctx, accountID); rbErr != nil {
			s.logger.Error("Аккаунт IdP создан, профиль — нет, откат не удался: требуется ручная сверка",
				slog.String("account_id", accountID),
				slog.String("email", in.Email),
				slog.String("error", rbErr.Error()),
			)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: ya existe un usuario con el correo %s", ErrConflict, in.Email)
		}
		return nil, fmt.Errorf("создание профиля: %w", err)
	}

	s.audit.Record(ctx, actor, model.EventCreate, model.ResourceUser, &profile.ID,
		fmt.Sprintf("Creó el usuario %s (%s) con rol %s", in.FullName, in.Email, in.Role),
		model.AuditSuccess)

	s.logger.Info("Пользователь создан",
		slog.String("user_id", profile.ID.String()),
		slog.String("role", in.Role),
	)
	return profile, nil
}

// Update изменяет профиль. Свой профиль каждый правит сам (имя, телефон,
// настройки уведомлений); роль и статус меняет только старший по иерархии.
func (s *UserService) Update(ctx context.Context, actor *model.Profile, targetID uuid.UUID, upd model.ProfileUpdate) (*model.Profile, error) {
	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение профиля: %w", err)
	}

	self := actor.ID == targetID
	managing := rbac.CanManage(actor.Role, target.Role)
	if !self && !managing {
		return nil, ErrPermissionDenied
	}

	if upd.Role != nil || upd.Status != nil {
		if !managing {
			return nil, ErrPermissionDenied
		}
		if upd.Role != nil {
			if !rbac.IsValidRole(*upd.Role) {
				return nil, fmt.Errorf("%w: rol desconocido: %s", ErrValidation, *upd.Role)
			}
			if !rbac.CanManage(actor.Role, *upd.Role) {
				return nil, fmt.Errorf("%w: no puedes asignar el rol %s", ErrPermissionDenied, *upd.Role)
			}
		}
	}

	updated, err := s.profiles.Update(ctx, targetID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление профиля: %w", err)
	}

	detail := fmt.Sprintf("Actualizó el perfil de %s", target.FullName)
	if self {
		detail = fmt.Sprintf("%s actualizó su perfil", actor.FullName)
	}
	s.audit.Record(ctx, actor, model.EventUpdate, model.ResourceUser, &targetID,
		detail, model.AuditSuccess)

	return updated, nil
}

// Delete удаляет пользователя с каскадом. super_admin может удалять любой
// не-super_admin аккаунт; admin/recepcionista — только управляемые роли
// без связанной корреспонденции. Корреспонденция не удаляется — ссылки
// на пользователя обнуляются.
func (s *UserService) Delete(ctx context.Context, actor *model.Profile, targetID uuid.UUID) error {
	if actor.ID == targetID {
		return fmt.Errorf("%w: no puedes eliminar tu propia cuenta", ErrPermissionDenied)
	}

	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("получение профиля: %w", err)
	}

	if !rbac.CanManage(actor.Role, target.Role) {
		return ErrPermissionDenied
	}

	linked, err := s.correspondence.CountForUser(ctx, targetID)
	if err != nil {
		return fmt.Errorf("подсчёт связанной корреспонденции: %w", err)
	}
	if linked > 0 && actor.Role != rbac.RoleSuperAdmin {
		return fmt.Errorf("%w: el usuario tiene %d registros de correspondencia asociados; contacta a un super administrador para eliminarlo",
			ErrPermissionDenied, linked)
	}

	s.removeAvatars(ctx, target)
	s.removeReceivedAttachments(ctx, targetID)

	if n, err := s.correspondence.UnlinkRecipient(ctx, targetID); err != nil {
		return fmt.Errorf("отвязка получателя: %w", err)
	} else if n > 0 {
		s.logger.Info("Корреспонденция отвязана от получателя",
			slog.String("user_id", targetID.String()),
			slog.Int64("count", n),
		)
	}
	if _, err := s.correspondence.UnlinkDeliverer(ctx, targetID); err != nil {
		return fmt.Errorf("отвязка выдавшего: %w", err)
	}

	if err := s.notifications.DeleteByUser(ctx, targetID); err != nil {
		s.logger.Warn("Не удалось удалить уведомления пользователя",
			slog.String("user_id", targetID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.audit.Record(ctx, actor, model.EventDelete, model.ResourceUser, &targetID,
		fmt.Sprintf("Eliminó el usuario %s (%s) con %d registros de correspondencia asociados",
			target.FullName, target.Email, linked),
		model.AuditSuccess)

	if err := s.profiles.Delete(ctx, targetID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("удаление профиля: %w", err)
	}

	// Аккаунт IdP удаляется последним. Его сбой — не провал операции:
	// профиль уже удалён и войти пользователь не сможет.
	if err := s.accounts.DeleteAccount(ctx, targetID.String()); err != nil {
		s.logger.Error("Профиль удалён, аккаунт IdP остался: требуется ручная очистка",
			slog.String("user_id", targetID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Пользователь удалён",
		slog.String("user_id", targetID.String()),
		slog.Int("linked_correspondence", linked),
	)
	return nil
}

// removeAvatars снимает файлы аватара пользователя. Best-effort.
func (s *UserService) removeAvatars(ctx context.Context, target *model.Profile) {
	objects, err := s.blobs.List(ctx, s.avatarsBucket, target.ID.String(), 100)
	if err != nil {
		s.logger.Warn("Не удалось получить список аватаров",
			slog.String("user_id", target.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(objects) == 0 {
		return
	}

	paths := make([]string, 0, len(objects))
	for _, o := range objects {
		paths = append(paths, target.ID.String()+"/"+o.Name)
	}
	if err := s.blobs.Remove(ctx, s.avatarsBucket, paths); err != nil {
		s.logger.Warn("Не удалось удалить аватары",
			slog.String("user_id", target.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// removeReceivedAttachments удаляет вложения корреспонденции, где
// пользователь — получатель: blob'ы и строки метаданных. Best-effort.
func (s *UserService) removeReceivedAttachments(ctx context.Context, targetID uuid.UUID) {
	ids, err := s.correspondence.ListIDsByRecipient(ctx, targetID)
	if err != nil {
		s.logger.Warn("Не удалось получить корреспонденцию получателя",
			slog.String("user_id", targetID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	var allPaths []string
	for _, id := range ids {
		paths, err := s.attachments.DeleteByCorrespondence(ctx, id)
		if err != nil {
			s.logger.Warn("Не удалось удалить метаданные вложений",
				slog.String("correspondence_id", id.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		allPaths = append(allPaths, paths...)
	}

	if len(allPaths) == 0 {
		return
	}
	if err := s.blobs.Remove(ctx, s.filesBucket, allPaths); err != nil {
		s.logger.Warn("Не удалось удалить файлы вложений",
			slog.String("user_id", targetID.String()),
			slog.Int("paths", len(allPaths)),
			slog.String("error", err.Error()),
		)
	}
}
