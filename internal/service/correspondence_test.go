package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

func newCorrespondenceService() (*CorrespondenceService, *fakeCorrespondenceRepo, *fakeAttachmentRepo, *fakeProfileRepo, *fakeBlobStore, *fakeAuditRepo) {
	corrRepo := newFakeCorrespondenceRepo()
	attRepo := newFakeAttachmentRepo()
	profRepo := newFakeProfileRepo()
	blobs := newFakeBlobStore()
	audit, auditRepo := newAuditService()

	svc := NewCorrespondenceService(corrRepo, attRepo, profRepo, blobs, audit,
		"digitized-files", testLogger())
	return svc, corrRepo, attRepo, profRepo, blobs, auditRepo
}

func TestCreateStampsServerDateTime(t *testing.T) {
	svc, _, _, _, _, auditRepo := newCorrespondenceService()
	actor := staffProfile("recepcionista")

	item, err := svc.Create(context.Background(), actor, CreateInput{
		RecipientName:  "Juan Pérez",
		RecipientEmail: "juan@x.com",
		Sender:         "Amazon",
		Type:           "Paquete",
	})
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	if item.Status != model.StatusReceived {
		t.Errorf("Status = %q, ожидался Recibido", item.Status)
	}
	if item.EmailStatus != model.EmailPending {
		t.Errorf("EmailStatus = %q, ожидался Pendiente", item.EmailStatus)
	}
	if item.Date == "" || item.Time == "" {
		t.Error("Дата/время не проставлены сервером")
	}

	created := auditRepo.byEvent(model.EventCreate)
	if len(created) != 1 {
		t.Fatalf("Записей CREATE в журнале: %d, ожидалась 1", len(created))
	}
	if created[0].Status != model.AuditSuccess {
		t.Errorf("Статус записи журнала = %q", created[0].Status)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _, _, _ := newCorrespondenceService()
	actor := staffProfile("recepcionista")

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"без получателя", CreateInput{RecipientEmail: "a@b.c", Sender: "X", Type: "Carta"}},
		{"без email", CreateInput{RecipientName: "A", Sender: "X", Type: "Carta"}},
		{"без отправителя", CreateInput{RecipientName: "A", RecipientEmail: "a@b.c", Type: "Carta"}},
		{"неизвестный тип", CreateInput{RecipientName: "A", RecipientEmail: "a@b.c", Sender: "X", Type: "Postal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), actor, tt.in); !errors.Is(err, ErrValidation) {
				t.Errorf("Create() ошибка = %v, ожидалась ErrValidation", err)
			}
		})
	}
}

func TestCreateDeniedForCliente(t *testing.T) {
	svc, _, _, _, _, _ := newCorrespondenceService()

	_, err := svc.Create(context.Background(), staffProfile("cliente"), CreateInput{
		RecipientName: "A", RecipientEmail: "a@b.c", Sender: "X", Type: "Carta",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Create() от cliente: ошибка = %v, ожидалась ErrPermissionDenied", err)
	}
}

func TestListScrubsRestrictedFields(t *testing.T) {
	svc, corrRepo, _, _, _, _ := newCorrespondenceService()

	price := 12.50
	supplier := "proveedor interno"
	notes := "nota operativa"
	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("r@x.com"))
	_ = corrRepo.Update(context.Background(), created.ID, updateWithRestricted(price, supplier, notes))

	// recepcionista не видит служебных полей
	items, err := svc.List(context.Background(), staffProfile("recepcionista"))
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("List() вернул %d записей", len(items))
	}
	if items[0].Price != nil || items[0].SupplierInfo != nil || items[0].InternalOperationalNotes != nil {
		t.Error("Служебные поля не очищены для recepcionista")
	}

	// admin видит
	items, err = svc.List(context.Background(), staffProfile("admin"))
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if items[0].Price == nil || *items[0].Price != price {
		t.Error("Служебные поля очищены для admin")
	}
}

func TestListClienteScopedByVerifiedEmail(t *testing.T) {
	svc, corrRepo, _, _, _, _ := newCorrespondenceService()

	_, _ = corrRepo.Create(context.Background(), fakeCreateInput("mio@x.com"))
	_, _ = corrRepo.Create(context.Background(), fakeCreateInput("ajeno@x.com"))

	cliente := staffProfile("cliente")
	cliente.Email = "MIO@x.com" // регистр не важен

	items, err := svc.List(context.Background(), cliente)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("cliente видит %d записей, ожидалась 1", len(items))
	}
	if items[0].RecipientEmail != "mio@x.com" {
		t.Errorf("cliente видит чужую запись: %s", items[0].RecipientEmail)
	}
}

func TestDeliverIdempotent(t *testing.T) {
	svc, corrRepo, _, _, _, auditRepo := newCorrespondenceService()
	actor := staffProfile("recepcionista")

	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("d@x.com"))

	first, err := svc.Deliver(context.Background(), actor, created.ID)
	if err != nil {
		t.Fatalf("Deliver() ошибка: %v", err)
	}
	if first.Status != model.StatusDelivered {
		t.Errorf("Status = %q", first.Status)
	}
	if first.DeliveredBy == nil || *first.DeliveredBy != actor.ID {
		t.Fatal("DeliveredBy не проставлен")
	}
	firstAt := *first.DeliveredAt

	// Повторная выдача другим сотрудником — no-op
	other := staffProfile("admin")
	second, err := svc.Deliver(context.Background(), other, created.ID)
	if err != nil {
		t.Fatalf("Повторный Deliver() ошибка: %v", err)
	}
	if *second.DeliveredBy != actor.ID || !second.DeliveredAt.Equal(firstAt) {
		t.Error("Повторная выдача перезаписала атрибуцию")
	}

	if n := len(auditRepo.byEvent(model.EventDeliver)); n != 1 {
		t.Errorf("Записей DELIVER в журнале: %d, ожидалась 1", n)
	}
}

func TestManualOverrideToDeliveredStampsAttribution(t *testing.T) {
	svc, corrRepo, _, _, _, _ := newCorrespondenceService()
	actor := staffProfile("admin")

	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("m@x.com"))

	st := "Entregado"
	updated, err := svc.Update(context.Background(), actor, created.ID, UpdateInput{Status: &st})
	if err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	if updated.Status != model.StatusDelivered {
		t.Errorf("Status = %q", updated.Status)
	}
	if updated.DeliveredBy == nil || updated.DeliveredAt == nil {
		t.Error("Ручной перевод в Entregado без атрибуции выдачи")
	}
}

func TestUpdateRejectsUnknownType(t *testing.T) {
	svc, corrRepo, _, _, _, _ := newCorrespondenceService()

	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("r@x.com"))

	bad := "Postal"
	_, err := svc.Update(context.Background(), staffProfile("recepcionista"), created.ID, UpdateInput{Type: &bad})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Update() с неизвестным типом: ошибка = %v, ожидалась ErrValidation", err)
	}

	ok := "Certificado"
	updated, err := svc.Update(context.Background(), staffProfile("recepcionista"), created.ID, UpdateInput{Type: &ok})
	if err != nil {
		t.Fatalf("Update(Certificado) ошибка: %v", err)
	}
	if updated.Type != model.TypeCertified {
		t.Errorf("Type = %q, ожидалось Certificado", updated.Type)
	}
}

func TestRegressionFromDeliveredRequiresAdmin(t *testing.T) {
	svc, corrRepo, _, _, _, _ := newCorrespondenceService()

	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("r@x.com"))
	admin := staffProfile("admin")

	st := "Entregado"
	if _, err := svc.Update(context.Background(), admin, created.ID, UpdateInput{Status: &st}); err != nil {
		t.Fatalf("Update(Entregado) ошибка: %v", err)
	}

	back := "Recibido"
	// recepcionista не может вернуть выданную запись
	_, err := svc.Update(context.Background(), staffProfile("recepcionista"), created.ID, UpdateInput{Status: &back})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Возврат статуса recepcionista: ошибка = %v, ожидалась ErrPermissionDenied", err)
	}

	// admin — может, это осознанный механизм исправления ошибок
	updated, err := svc.Update(context.Background(), admin, created.ID, UpdateInput{Status: &back})
	if err != nil {
		t.Fatalf("Возврат статуса admin: ошибка: %v", err)
	}
	if updated.Status != model.StatusReceived {
		t.Errorf("Status = %q после возврата", updated.Status)
	}
}

func TestDeleteCascadesAttachments(t *testing.T) {
	svc, corrRepo, attRepo, _, blobs, auditRepo := newCorrespondenceService()
	actor := staffProfile("admin")

	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("del@x.com"))
	_, _ = attRepo.Insert(context.Background(), model.Attachment{
		CorrespondenceID: created.ID,
		FilePath:         created.ID.String() + "/scan.pdf",
		FileName:         "scan.pdf",
	})
	_ = blobs.Put(context.Background(), "digitized-files", created.ID.String()+"/scan.pdf", "application/pdf", []byte("x"))

	if err := svc.Delete(context.Background(), actor, created.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}

	if _, err := corrRepo.GetByID(context.Background(), created.ID); err == nil {
		t.Error("Запись не удалена")
	}
	if n, _ := attRepo.CountByCorrespondence(context.Background(), created.ID); n != 0 {
		t.Errorf("Осталось %d строк вложений", n)
	}
	if len(blobs.removed) != 1 {
		t.Errorf("Удалено %d blob'ов, ожидался 1", len(blobs.removed))
	}
	if n := len(auditRepo.byEvent(model.EventDelete)); n != 1 {
		t.Errorf("Записей DELETE в журнале: %d", n)
	}
}

func TestDeleteSurfacesBlobPartialFailure(t *testing.T) {
	svc, corrRepo, attRepo, _, blobs, _ := newCorrespondenceService()
	actor := staffProfile("admin")

	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("pf@x.com"))
	_, _ = attRepo.Insert(context.Background(), model.Attachment{
		CorrespondenceID: created.ID,
		FilePath:         created.ID.String() + "/scan.pdf",
		FileName:         "scan.pdf",
	})
	blobs.removeErr = errors.New("storage down")

	err := svc.Delete(context.Background(), actor, created.ID)
	var pf *PartialFailure
	if !errors.As(err, &pf) {
		t.Fatalf("Ошибка не *PartialFailure: %v", err)
	}

	// Запись всё равно удалена
	if _, err := corrRepo.GetByID(context.Background(), created.ID); err == nil {
		t.Error("Запись осталась после частичной неудачи")
	}
}

func TestDeleteDeniedForRecepcionista(t *testing.T) {
	svc, corrRepo, _, _, _, _ := newCorrespondenceService()

	created, _ := corrRepo.Create(context.Background(), fakeCreateInput("x@x.com"))
	err := svc.Delete(context.Background(), staffProfile("recepcionista"), created.ID)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Delete() recepcionista: ошибка = %v, ожидалась ErrPermissionDenied", err)
	}
}

func TestSearchRecipientsCapped(t *testing.T) {
	svc, _, _, profRepo, _, _ := newCorrespondenceService()

	for i := 0; i < 8; i++ {
		profRepo.put(model.Profile{
			ID:       uuid.New(),
			FullName: "Cliente Común",
			Email:    uuid.NewString() + "@x.com",
			Role:     "cliente",
		})
	}

	found, err := svc.SearchRecipients(context.Background(), staffProfile("recepcionista"), "común")
	if err != nil {
		t.Fatalf("SearchRecipients() ошибка: %v", err)
	}
	if len(found) > 5 {
		t.Errorf("SearchRecipients() вернул %d кандидатов, максимум 5", len(found))
	}
}

// --- Вспомогательные конструкторы ---

func fakeCreateInput(email string) repository.CorrespondenceCreate {
	return repository.CorrespondenceCreate{
		RecipientName:  "Destinatario",
		RecipientEmail: email,
		Sender:         "Amazon",
		Type:           model.TypePackage,
		Date:           "2026-08-28",
		Time:           "10:00",
	}
}

func updateWithRestricted(price float64, supplier, notes string) repository.CorrespondenceUpdate {
	return repository.CorrespondenceUpdate{
		Price:                    &price,
		SupplierInfo:             &supplier,
		InternalOperationalNotes: &notes,
	}
}
