// dashboard.go — агрегаты панели управления.
// Все показатели вычисляются на момент вызова, без накопительных счётчиков.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// DashboardService — сервис агрегатов панели управления.
type DashboardService struct {
	correspondence repository.CorrespondenceRepository
	attachments    repository.AttachmentRepository
	storageConfig  repository.StorageConfigRepository
	logger         *slog.Logger

	now func() time.Time
}

// NewDashboardService создаёт сервис панели управления.
func NewDashboardService(
	correspondence repository.CorrespondenceRepository,
	attachments repository.AttachmentRepository,
	storageConfig repository.StorageConfigRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		correspondence: correspondence,
		attachments:    attachments,
		storageConfig:  storageConfig,
		logger:         logger.With(slog.String("component", "dashboard_service")),
		now:            time.Now,
	}
}

// Stats возвращает агрегаты панели. Доступно персоналу.
func (s *DashboardService) Stats(ctx context.Context, actor *model.Profile) (*model.DashboardStats, error) {
	if !rbac.IsStaff(actor.Role) {
		return nil, ErrPermissionDenied
	}

	now := s.now()
	stats := &model.DashboardStats{}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthly, err := s.correspondence.CountCreatedSince(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("подсчёт поступлений за месяц: %w", err)
	}
	stats.MonthlyInbound = monthly

	pending, err := s.correspondence.CountNotDelivered(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт невыданных: %w", err)
	}
	stats.PendingPickup = pending

	digitized, err := s.attachments.CountDistinctCorrespondence(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт оцифрованных: %w", err)
	}
	stats.TotalDigitized = digitized

	activity, err := s.activityByDay(ctx, now)
	if err != nil {
		return nil, err
	}
	stats.ActivityByDay = activity

	efficiency, err := s.notificationEfficiency(ctx)
	if err != nil {
		return nil, err
	}
	stats.NotificationEfficiency = efficiency

	cfg := s.loadConfigOrDefault(ctx)

	packagesUsed, err := s.correspondence.CountPendingByTypes(ctx,
		[]model.CorrespondenceType{model.TypePackage})
	if err != nil {
		return nil, fmt.Errorf("подсчёт невыданных посылок: %w", err)
	}
	stats.Packages = bucketUsage(packagesUsed, cfg.MaxPackages,
		cfg.PackagesWarningThreshold, cfg.PackagesCriticalThreshold)

	lettersUsed, err := s.correspondence.CountPendingByTypes(ctx,
		[]model.CorrespondenceType{model.TypeLetter, model.TypeCertified})
	if err != nil {
		return nil, fmt.Errorf("подсчёт невыданных писем: %w", err)
	}
	stats.Letters = bucketUsage(lettersUsed, cfg.MaxLetters,
		cfg.LettersWarningThreshold, cfg.LettersCriticalThreshold)

	return stats, nil
}

// activityByDay раскладывает поступления последних 7 суток по дням,
// старые первыми.
func (s *DashboardService) activityByDay(ctx context.Context, now time.Time) ([7]int, error) {
	var activity [7]int

	windowStart := now.AddDate(0, 0, -6)
	windowStart = time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(),
		0, 0, 0, 0, now.Location())

	createdAt, err := s.correspondence.CreatedAtSince(ctx, windowStart)
	if err != nil {
		return activity, fmt.Errorf("выборка активности: %w", err)
	}

	for _, ts := range createdAt {
		day := int(ts.In(now.Location()).Sub(windowStart).Hours() / 24)
		if day >= 0 && day < 7 {
			activity[day]++
		}
	}
	return activity, nil
}

// notificationEfficiency — доля успешных отправок в процентах.
// 100, пока попыток не было.
func (s *DashboardService) notificationEfficiency(ctx context.Context) (int, error) {
	sent, err := s.correspondence.CountByEmailStatus(ctx, model.EmailSent)
	if err != nil {
		return 0, fmt.Errorf("подсчёт отправленных уведомлений: %w", err)
	}
	failed, err := s.correspondence.CountByEmailStatus(ctx, model.EmailFailed)
	if err != nil {
		return 0, fmt.Errorf("подсчёт неудачных уведомлений: %w", err)
	}

	if sent+failed == 0 {
		return 100, nil
	}
	return int(math.Round(float64(sent) / float64(sent+failed) * 100)), nil
}

// loadConfigOrDefault возвращает конфигурацию хранилища либо значения
// по умолчанию, если записи нет. Подстановка — warning, не ошибка.
func (s *DashboardService) loadConfigOrDefault(ctx context.Context) model.StorageConfig {
	cfg, err := s.storageConfig.Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Не удалось прочитать конфигурацию хранилища, применены значения по умолчанию",
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Warn("Конфигурация хранилища отсутствует, применены значения по умолчанию")
		}
		return model.DefaultStorageConfig()
	}
	return *cfg
}

// bucketUsage собирает показатели занятости одной зоны хранения.
func bucketUsage(used, max, warning, critical int) model.StorageBucketUsage {
	percentage := 0
	if max > 0 {
		percentage = int(math.Round(float64(used) / float64(max) * 100))
	}
	return model.StorageBucketUsage{
		Used:              used,
		Max:               max,
		Percentage:        percentage,
		WarningThreshold:  warning,
		CriticalThreshold: critical,
	}
}
