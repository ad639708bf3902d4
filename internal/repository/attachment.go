package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// AttachmentRepository — операции над таблицей correspondence_attachments.
type AttachmentRepository interface {
	// GetByID возвращает вложение по id. Если не найдено — ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	// ListByCorrespondence возвращает вложения записи, старые первыми.
	ListByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) ([]model.Attachment, error)
	// CountByCorrespondence считает вложения записи.
	CountByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) (int, error)
	// Insert добавляет метаданные вложения.
	Insert(ctx context.Context, a model.Attachment) (*model.Attachment, error)
	// Delete удаляет метаданные вложения. Если не найдено — ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByCorrespondence удаляет все вложения записи, возвращает
	// их пути для очистки blob-хранилища.
	DeleteByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) ([]string, error)
	// CountDistinctCorrespondence считает записи с хотя бы одним вложением.
	CountDistinctCorrespondence(ctx context.Context) (int, error)
}

// attachmentRepo — реализация AttachmentRepository.
type attachmentRepo struct {
	db DBTX
}

// NewAttachmentRepository создаёт репозиторий вложений.
func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepo{db: db}
}

// GetByID возвращает вложение по id.
func (r *attachmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	query := `
		SELECT id, correspondence_id, file_path, file_name, file_type, file_size, created_at
		FROM correspondence_attachments
		WHERE id = $1`

	a := &model.Attachment{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.CorrespondenceID, &a.FilePath, &a.FileName, &a.FileType, &a.FileSize, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения вложения[%s]: %w", id, err)
	}
	return a, nil
}

// ListByCorrespondence возвращает вложения записи.
func (r *attachmentRepo) ListByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) ([]model.Attachment, error) {
	query := `
		SELECT id, correspondence_id, file_path, file_name, file_type, file_size, created_at
		FROM correspondence_attachments
		WHERE correspondence_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, correspondenceID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки вложений: %w", err)
	}
	defer rows.Close()

	var result []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.CorrespondenceID, &a.FilePath, &a.FileName, &a.FileType, &a.FileSize, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования вложения: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CountByCorrespondence считает вложения записи.
func (r *attachmentRepo) CountByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM correspondence_attachments WHERE correspondence_id = $1`,
		correspondenceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта вложений: %w", err)
	}
	return count, nil
}

// Insert добавляет метаданные вложения.
func (r *attachmentRepo) Insert(ctx context.Context, a model.Attachment) (*model.Attachment, error) {
	query := `
		INSERT INTO correspondence_attachments
			(correspondence_id, file_path, file_name, file_type, file_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		a.CorrespondenceID, a.FilePath, a.FileName, a.FileType, a.FileSize,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка вставки вложения: %w", err)
	}
	return &a, nil
}

// Delete удаляет метаданные вложения.
func (r *attachmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM correspondence_attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления вложения[%s]: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByCorrespondence удаляет все вложения записи и возвращает пути файлов.
func (r *attachmentRepo) DeleteByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) ([]string, error) {
	query := `
		DELETE FROM correspondence_attachments
		WHERE correspondence_id = $1
		RETURNING file_path`

	rows, err := r.db.Query(ctx, query, correspondenceID)
	if err != nil {
		return nil, fmt.Errorf("ошибка каскадного удаления вложений: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// CountDistinctCorrespondence считает оцифрованные записи.
func (r *attachmentRepo) CountDistinctCorrespondence(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT correspondence_id) FROM correspondence_attachments`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта оцифрованных записей: %w", err)
	}
	return count, nil
}
