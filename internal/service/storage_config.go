// storage_config.go — сервис конфигурации вместимости зон хранения.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// StorageConfigService — сервис конфигурации хранилища.
type StorageConfigService struct {
	repo   repository.StorageConfigRepository
	audit  *AuditService
	logger *slog.Logger
}

// NewStorageConfigService создаёт сервис конфигурации хранилища.
func NewStorageConfigService(repo repository.StorageConfigRepository, audit *AuditService, logger *slog.Logger) *StorageConfigService {
	return &StorageConfigService{
		repo:   repo,
		audit:  audit,
		logger: logger.With(slog.String("component", "storage_config_service")),
	}
}

// Get возвращает конфигурацию. Доступно персоналу; отсутствие записи
// заменяется значениями по умолчанию.
func (s *StorageConfigService) Get(ctx context.Context, actor *model.Profile) (*model.StorageConfig, error) {
	if !rbac.CanViewStorageConfig(actor.Role) {
		return nil, ErrPermissionDenied
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Конфигурация хранилища отсутствует, применены значения по умолчанию")
			def := model.DefaultStorageConfig()
			return &def, nil
		}
		return nil, fmt.Errorf("чтение конфигурации хранилища: %w", err)
	}
	return cfg, nil
}

// StorageConfigInput — новые лимиты и пороги.
type StorageConfigInput struct {
	MaxPackages               int
	MaxLetters                int
	PackagesWarningThreshold  int
	PackagesCriticalThreshold int
	LettersWarningThreshold   int
	LettersCriticalThreshold  int
}

// Update перезаписывает конфигурацию. Доступно admin/super_admin.
func (s *StorageConfigService) Update(ctx context.Context, actor *model.Profile, in StorageConfigInput) (*model.StorageConfig, error) {
	if !rbac.CanEditStorageConfig(actor.Role) {
		return nil, ErrPermissionDenied
	}
	if in.MaxPackages <= 0 || in.MaxLetters <= 0 {
		return nil, fmt.Errorf("%w: las capacidades deben ser positivas", ErrValidation)
	}
	for _, th := range []int{in.PackagesWarningThreshold, in.PackagesCriticalThreshold,
		in.LettersWarningThreshold, in.LettersCriticalThreshold} {
		if th < 0 || th > 100 {
			return nil, fmt.Errorf("%w: los umbrales deben estar entre 0 y 100", ErrValidation)
		}
	}
	if in.PackagesWarningThreshold > in.PackagesCriticalThreshold ||
		in.LettersWarningThreshold > in.LettersCriticalThreshold {
		return nil, fmt.Errorf("%w: el umbral de aviso no puede superar al crítico", ErrValidation)
	}

	cfg, err := s.repo.Update(ctx, model.StorageConfig{
		MaxPackages:               in.MaxPackages,
		MaxLetters:                in.MaxLetters,
		PackagesWarningThreshold:  in.PackagesWarningThreshold,
		PackagesCriticalThreshold: in.PackagesCriticalThreshold,
		LettersWarningThreshold:   in.LettersWarningThreshold,
		LettersCriticalThreshold:  in.LettersCriticalThreshold,
		UpdatedBy:                 actor.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("обновление конфигурации хранилища: %w", err)
	}

	s.audit.Record(ctx, actor, model.EventUpdate, model.ResourceConfig, nil,
		fmt.Sprintf("Actualizó la configuración de almacenamiento (paquetes %d, cartas %d)",
			in.MaxPackages, in.MaxLetters),
		model.AuditSuccess)

	return cfg, nil
}
