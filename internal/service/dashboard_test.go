package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

func newDashboardService() (*DashboardService, *fakeCorrespondenceRepo, *fakeAttachmentRepo, *fakeStorageConfigRepo) {
	corrRepo := newFakeCorrespondenceRepo()
	attRepo := newFakeAttachmentRepo()
	cfgRepo := &fakeStorageConfigRepo{}

	svc := NewDashboardService(corrRepo, attRepo, cfgRepo, testLogger())
	return svc, corrRepo, attRepo, cfgRepo
}

func TestDashboardEfficiencyWithZeroAttempts(t *testing.T) {
	svc, _, _, _ := newDashboardService()

	stats, err := svc.Stats(context.Background(), staffProfile("admin"))
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}
	if stats.NotificationEfficiency != 100 {
		t.Errorf("NotificationEfficiency = %d без попыток, ожидалось 100", stats.NotificationEfficiency)
	}
}

func TestDashboardEfficiencyComputed(t *testing.T) {
	svc, corrRepo, _, _ := newDashboardService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		item, _ := corrRepo.Create(ctx, fakeCreateInput("e@x.com"))
		_ = corrRepo.SetEmailStatus(ctx, item.ID, model.EmailSent)
	}
	failed, _ := corrRepo.Create(ctx, fakeCreateInput("f@x.com"))
	_ = corrRepo.SetEmailStatus(ctx, failed.ID, model.EmailFailed)

	stats, err := svc.Stats(ctx, staffProfile("admin"))
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}
	// 3 из 4 = 75%
	if stats.NotificationEfficiency != 75 {
		t.Errorf("NotificationEfficiency = %d, ожидалось 75", stats.NotificationEfficiency)
	}
}

func TestDashboardDefaultStorageConfig(t *testing.T) {
	svc, corrRepo, _, _ := newDashboardService()
	ctx := context.Background()

	// Конфигурации нет — подставляются значения по умолчанию
	_, _ = corrRepo.Create(ctx, fakeCreateInput("p@x.com")) // Paquete, не выдан

	stats, err := svc.Stats(ctx, staffProfile("recepcionista"))
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}
	if stats.Packages.Max != 50 || stats.Letters.Max != 200 {
		t.Errorf("Лимиты по умолчанию = %d/%d, ожидалось 50/200", stats.Packages.Max, stats.Letters.Max)
	}
	if stats.Packages.Used != 1 {
		t.Errorf("Packages.Used = %d, ожидалось 1", stats.Packages.Used)
	}
	if stats.Packages.Percentage != 2 { // 1/50
		t.Errorf("Packages.Percentage = %d, ожидалось 2", stats.Packages.Percentage)
	}
	if stats.Packages.WarningThreshold != 70 || stats.Packages.CriticalThreshold != 90 {
		t.Errorf("Пороги по умолчанию = %d/%d", stats.Packages.WarningThreshold, stats.Packages.CriticalThreshold)
	}
}

func TestDashboardBucketsByType(t *testing.T) {
	svc, corrRepo, _, cfgRepo := newDashboardService()
	ctx := context.Background()

	cfg := model.DefaultStorageConfig()
	cfg.MaxPackages = 10
	_, _ = cfgRepo.Update(ctx, cfg)

	pkg := fakeCreateInput("a@x.com")
	pkg.Type = model.TypePackage
	_, _ = corrRepo.Create(ctx, pkg)

	letter := fakeCreateInput("b@x.com")
	letter.Type = model.TypeLetter
	_, _ = corrRepo.Create(ctx, letter)

	cert := fakeCreateInput("c@x.com")
	cert.Type = model.TypeCertified
	_, _ = corrRepo.Create(ctx, cert)

	// Выданные записи не занимают место
	delivered := fakeCreateInput("d@x.com")
	delivered.Type = model.TypePackage
	item, _ := corrRepo.Create(ctx, delivered)
	_, _ = corrRepo.MarkDelivered(ctx, item.ID, staffProfile("admin").ID, time.Now())

	stats, err := svc.Stats(ctx, staffProfile("admin"))
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}
	if stats.Packages.Used != 1 {
		t.Errorf("Packages.Used = %d, ожидалось 1", stats.Packages.Used)
	}
	// Carta и Certificado делят одну зону
	if stats.Letters.Used != 2 {
		t.Errorf("Letters.Used = %d, ожидалось 2", stats.Letters.Used)
	}
	if stats.Packages.Max != 10 {
		t.Errorf("Packages.Max = %d из конфигурации", stats.Packages.Max)
	}
	if stats.PendingPickup != 3 {
		t.Errorf("PendingPickup = %d, ожидалось 3", stats.PendingPickup)
	}
}

func TestDashboardDigitizedCount(t *testing.T) {
	svc, corrRepo, attRepo, _ := newDashboardService()
	ctx := context.Background()

	item, _ := corrRepo.Create(ctx, fakeCreateInput("dig@x.com"))
	// Две загрузки одной записи считаются один раз
	for i := 0; i < 2; i++ {
		_, _ = attRepo.Insert(ctx, model.Attachment{
			CorrespondenceID: item.ID,
			FilePath:         "p", FileName: "f",
		})
	}
	_, _ = corrRepo.Create(ctx, fakeCreateInput("nodigital@x.com"))

	stats, err := svc.Stats(ctx, staffProfile("admin"))
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}
	if stats.TotalDigitized != 1 {
		t.Errorf("TotalDigitized = %d, ожидалось 1", stats.TotalDigitized)
	}
}

func TestDashboardDeniedForCliente(t *testing.T) {
	svc, _, _, _ := newDashboardService()

	_, err := svc.Stats(context.Background(), staffProfile("cliente"))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Stats() cliente: ошибка = %v, ожидалась ErrPermissionDenied", err)
	}
}
