package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// storageConfigID — id единственной строки конфигурации хранилища.
const storageConfigID = "00000000-0000-0000-0000-000000000001"

// StorageConfigRepository — доступ к конфигурации лимитов хранилища.
type StorageConfigRepository interface {
	// Get возвращает конфигурацию. Если строка отсутствует — ErrNotFound.
	Get(ctx context.Context) (*model.StorageConfig, error)
	// Update перезаписывает лимиты и пороги.
	Update(ctx context.Context, c model.StorageConfig) (*model.StorageConfig, error)
}

type storageConfigRepo struct {
	db DBTX
}

// NewStorageConfigRepository создаёт репозиторий конфигурации хранилища.
func NewStorageConfigRepository(db DBTX) StorageConfigRepository {
	return &storageConfigRepo{db: db}
}

// Get возвращает конфигурацию.
func (r *storageConfigRepo) Get(ctx context.Context) (*model.StorageConfig, error) {
	c := &model.StorageConfig{}
	err := r.db.QueryRow(ctx, `
		SELECT max_packages, max_letters,
			packages_warning_threshold, packages_critical_threshold,
			letters_warning_threshold, letters_critical_threshold,
			updated_at, updated_by
		FROM storage_config
		WHERE id = $1`, storageConfigID,
	).Scan(&c.MaxPackages, &c.MaxLetters,
		&c.PackagesWarningThreshold, &c.PackagesCriticalThreshold,
		&c.LettersWarningThreshold, &c.LettersCriticalThreshold,
		&c.UpdatedAt, &c.UpdatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения конфигурации хранилища: %w", err)
	}
	return c, nil
}

// Update перезаписывает конфигурацию.
func (r *storageConfigRepo) Update(ctx context.Context, c model.StorageConfig) (*model.StorageConfig, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE storage_config
		SET max_packages = $2, max_letters = $3,
			packages_warning_threshold = $4, packages_critical_threshold = $5,
			letters_warning_threshold = $6, letters_critical_threshold = $7,
			updated_by = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		storageConfigID, c.MaxPackages, c.MaxLetters,
		c.PackagesWarningThreshold, c.PackagesCriticalThreshold,
		c.LettersWarningThreshold, c.LettersCriticalThreshold,
		c.UpdatedBy,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления конфигурации хранилища: %w", err)
	}
	return &c, nil
}
