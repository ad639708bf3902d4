// attachments.go — сервис вложений (оцифрованных файлов).
// Загрузка в blob-хранилище + метаданные в БД, автопродвижение статуса
// при первом вложении, подписанные URL для просмотра.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/status"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// BlobStore — контракт blob-хранилища для вложений.
type BlobStore interface {
	Put(ctx context.Context, bucket, path, contentType string, data []byte) error
	Remove(ctx context.Context, bucket string, paths []string) error
	CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

// AttachmentService — сервис вложений.
type AttachmentService struct {
	attachments    repository.AttachmentRepository
	correspondence repository.CorrespondenceRepository
	blobs          BlobStore
	audit          *AuditService
	bucket         string
	maxSize        int64
	signedTTL      time.Duration
	logger         *slog.Logger

	now func() time.Time
}

// NewAttachmentService создаёт сервис вложений.
func NewAttachmentService(
	attachments repository.AttachmentRepository,
	correspondence repository.CorrespondenceRepository,
	blobs BlobStore,
	audit *AuditService,
	bucket string,
	maxSize int64,
	signedTTL time.Duration,
	logger *slog.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachments:    attachments,
		correspondence: correspondence,
		blobs:          blobs,
		audit:          audit,
		bucket:         bucket,
		maxSize:        maxSize,
		signedTTL:      signedTTL,
		logger:         logger.With(slog.String("component", "attachment_service")),
		now:            time.Now,
	}
}

// List возвращает вложения записи. cliente видит только вложения
// своей корреспонденции.
func (s *AttachmentService) List(ctx context.Context, actor *model.Profile, correspondenceID uuid.UUID) ([]model.Attachment, error) {
	item, err := s.correspondence.GetByID(ctx, correspondenceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}
	if !rbac.IsStaff(actor.Role) && !sameEmail(item.RecipientEmail, actor.Email) {
		return nil, ErrNotFound
	}

	list, err := s.attachments.ListByCorrespondence(ctx, correspondenceID)
	if err != nil {
		return nil, fmt.Errorf("выборка вложений: %w", err)
	}
	return list, nil
}

// Upload загружает файл вложения. Размер проверяется до обращения к
// хранилищу. Первое вложение продвигает статус Recibido/Notificado в
// Escaneado; повторные загрузки статус не трогают.
func (s *AttachmentService) Upload(ctx context.Context, actor *model.Profile,
	correspondenceID uuid.UUID, fileName, contentType string, data []byte) (*model.Attachment, error) {

	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}
	if fileName == "" || len(data) == 0 {
		return nil, fmt.Errorf("%w: el archivo está vacío", ErrValidation)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: el archivo supera el límite de %d MB",
			ErrValidation, s.maxSize/(1024*1024))
	}

	item, err := s.correspondence.GetByID(ctx, correspondenceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	// Пути неймспейсятся по id записи
	blobPath := path.Join(correspondenceID.String(),
		fmt.Sprintf("%d_%s", s.now().UnixNano(), fileName))

	if err := s.blobs.Put(ctx, s.bucket, blobPath, contentType, data); err != nil {
		return nil, &DependencyError{Provider: "blobstore", Transient: true, Err: err}
	}

	saved, err := s.attachments.Insert(ctx, model.Attachment{
		CorrespondenceID: correspondenceID,
		FilePath:         blobPath,
		FileName:         fileName,
		FileType:         contentType,
		FileSize:         int64(len(data)),
	})
	if err != nil {
		// Blob записан, метаданных нет: пробуем убрать, иначе — сирота
		if rmErr := s.blobs.Remove(ctx, s.bucket, []string{blobPath}); rmErr != nil {
			s.logger.Error("Осиротевший blob после сбоя вставки метаданных",
				slog.String("path", blobPath),
				slog.String("error", rmErr.Error()),
			)
			return nil, &PartialFailure{
				Message: "El archivo se subió pero no pudo registrarse; contacta al administrador",
				Failed:  []string{"metadata", "blob_cleanup"},
				Err:     err,
			}
		}
		return nil, fmt.Errorf("регистрация вложения: %w", err)
	}

	s.promoteIfFirstScan(ctx, actor, item)

	s.logger.Info("Вложение загружено",
		slog.String("correspondence_id", correspondenceID.String()),
		slog.String("file", fileName),
		slog.Int("size", len(data)),
	)
	return saved, nil
}

// promoteIfFirstScan продвигает статус в Escaneado при первой оцифровке.
// Повторные вызовы безопасны: защита на уровне репозитория.
func (s *AttachmentService) promoteIfFirstScan(ctx context.Context, actor *model.Profile, item *model.Correspondence) {
	if !status.CanAutoPromote(item.Status) {
		return
	}

	promoted, err := s.correspondence.PromoteScanned(ctx, item.ID, s.now())
	if err != nil {
		s.logger.Error("Не удалось продвинуть статус после оцифровки",
			slog.String("correspondence_id", item.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if !promoted {
		return
	}

	s.audit.Record(ctx, actor, model.EventDigitize, model.ResourceCorrespondence, &item.ID,
		fmt.Sprintf("Digitalizó %s de %s para %s", item.Type, item.Sender, item.RecipientName),
		model.AuditSuccess)
}

// Delete удаляет вложение: blob и строку метаданных. Обе подоперации
// выполняются независимо; сбой любой из них отражается в результате.
func (s *AttachmentService) Delete(ctx context.Context, actor *model.Profile, attachmentID uuid.UUID) error {
	if !rbac.IsStaff(actor.Role) {
		return ErrPermissionDenied
	}

	att, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("получение вложения: %w", err)
	}

	var failed []string
	blobErr := s.blobs.Remove(ctx, s.bucket, []string{att.FilePath})
	if blobErr != nil {
		failed = append(failed, "blobstore")
		s.logger.Error("Не удалось удалить файл вложения из хранилища",
			slog.String("path", att.FilePath),
			slog.String("error", blobErr.Error()),
		)
	}

	rowErr := s.attachments.Delete(ctx, attachmentID)
	if rowErr != nil && !errors.Is(rowErr, repository.ErrNotFound) {
		failed = append(failed, "metadata")
	}

	if len(failed) > 0 {
		return &PartialFailure{
			Message: "El adjunto no pudo eliminarse por completo",
			Failed:  failed,
			Err:     errors.Join(blobErr, rowErr),
		}
	}
	return nil
}

// SignedURL возвращает временную ссылку на просмотр вложения.
// Пустая строка без ошибки означает «отобразить нельзя».
func (s *AttachmentService) SignedURL(ctx context.Context, actor *model.Profile, attachmentID uuid.UUID) (string, error) {
	att, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("получение вложения: %w", err)
	}

	// cliente может смотреть только вложения своей корреспонденции
	if !rbac.IsStaff(actor.Role) {
		item, err := s.correspondence.GetByID(ctx, att.CorrespondenceID)
		if err != nil || !sameEmail(item.RecipientEmail, actor.Email) {
			return "", ErrNotFound
		}
	}

	url, err := s.blobs.CreateSignedURL(ctx, s.bucket, att.FilePath, s.signedTTL)
	if err != nil {
		s.logger.Warn("Не удалось получить подписанный URL",
			slog.String("path", att.FilePath),
			slog.String("error", err.Error()),
		)
		return "", &DependencyError{Provider: "blobstore", Transient: true, Err: err}
	}
	return url, nil
}
