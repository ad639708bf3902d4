package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
)

func newIdentityService() (*IdentityService, *fakeProfileRepo, *fakeAuditRepo) {
	profiles := newFakeProfileRepo()
	audit, auditRepo := newAuditService()
	// IdP-клиент не нужен для Resolve/recordLogin.
	svc := NewIdentityService(nil, profiles, audit, testLogger())
	return svc, profiles, auditRepo
}

func TestResolveKnownProfile(t *testing.T) {
	svc, profiles, _ := newIdentityService()

	stored := profiles.put(model.Profile{
		ID:       uuid.New(),
		FullName: "Ana Torres",
		Email:    "ana@botanico.test",
		Role:     rbac.RoleRecepcion,
		Status:   model.AccountActive,
	})

	got, err := svc.Resolve(context.Background(), stored.ID, stored.Email, "sess-1")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got.FullName != "Ana Torres" || got.Role != rbac.RoleRecepcion {
		t.Errorf("профиль не совпадает: %+v", got)
	}
}

func TestResolveUnknownProfileFallsBackToCliente(t *testing.T) {
	svc, _, _ := newIdentityService()

	userID := uuid.New()
	got, err := svc.Resolve(context.Background(), userID, "carlos.ruiz@correo.test", "sess-1")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got.Role != rbac.RoleCliente {
		t.Errorf("ожидалась роль cliente, получена %s", got.Role)
	}
	if got.FullName != "carlos.ruiz" {
		t.Errorf("имя должно браться из локальной части email, получено %q", got.FullName)
	}
	if got.ID != userID {
		t.Error("временный профиль должен сохранять идентификатор аккаунта")
	}
}

func TestResolveStoreErrorFallsBackToCliente(t *testing.T) {
	svc, profiles, _ := newIdentityService()

	stored := profiles.put(model.Profile{
		ID:     uuid.New(),
		Email:  "ana@botanico.test",
		Role:   rbac.RoleAdmin,
		Status: model.AccountActive,
	})
	profiles.getErr = errors.New("соединение с БД потеряно")

	// Недоступность хранилища не должна блокировать сессию.
	got, err := svc.Resolve(context.Background(), stored.ID, stored.Email, "sess-1")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got.Role != rbac.RoleCliente {
		t.Errorf("при сбое хранилища ожидалась роль cliente, получена %s", got.Role)
	}
	if got.ID != stored.ID || got.Email != stored.Email {
		t.Errorf("временный профиль должен сохранять данные токена: %+v", got)
	}
}

func TestResolveRecordsLoginOncePerSession(t *testing.T) {
	svc, profiles, auditRepo := newIdentityService()

	stored := profiles.put(model.Profile{
		ID:     uuid.New(),
		Email:  "ana@botanico.test",
		Role:   rbac.RoleRecepcion,
		Status: model.AccountActive,
	})

	ctx := context.Background()
	for range 3 {
		if _, err := svc.Resolve(ctx, stored.ID, stored.Email, "sess-1"); err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
	}
	if got := len(auditRepo.byEvent(model.EventLogin)); got != 1 {
		t.Errorf("вход должен записываться один раз на сессию, записей: %d", got)
	}

	if _, err := svc.Resolve(ctx, stored.ID, stored.Email, "sess-2"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got := len(auditRepo.byEvent(model.EventLogin)); got != 2 {
		t.Errorf("новая сессия должна дать новую запись, записей: %d", got)
	}
}

func TestResolveWithoutSessionSkipsAudit(t *testing.T) {
	svc, profiles, auditRepo := newIdentityService()

	stored := profiles.put(model.Profile{
		ID:     uuid.New(),
		Email:  "ana@botanico.test",
		Role:   rbac.RoleRecepcion,
		Status: model.AccountActive,
	})

	if _, err := svc.Resolve(context.Background(), stored.ID, stored.Email, ""); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got := len(auditRepo.byEvent(model.EventLogin)); got != 0 {
		t.Errorf("без session_id запись входа не делается, записей: %d", got)
	}
}

func TestChangePasswordTooShort(t *testing.T) {
	svc, _, _ := newIdentityService()

	err := svc.ChangePassword(context.Background(), staffProfile(rbac.RoleCliente), "corta")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено %v", err)
	}
}
