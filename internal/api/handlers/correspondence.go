// correspondence.go — обработчики жизненного цикла корреспонденции:
// регистрация, правка, выдача, email-уведомление, удаление, поиск
// получателей и история пользователя.
package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/service"
)

// correspondenceCreateRequest — тело POST /correspondence.
// Дата и время регистрации проставляются сервером.
type correspondenceCreateRequest struct {
	RecipientID    *uuid.UUID `json:"recipientId"`
	RecipientName  string     `json:"recipientName"`
	RecipientEmail string     `json:"recipientEmail"`
	Sender         string     `json:"sender"`
	Type           string     `json:"type"`
	TrackingNumber *string    `json:"trackingNumber"`
}

// correspondenceUpdateRequest — тело PATCH /correspondence/{id}.
// nil — поле не трогаем.
type correspondenceUpdateRequest struct {
	RecipientID              *uuid.UUID `json:"recipientId"`
	RecipientName            *string    `json:"recipientName"`
	RecipientEmail           *string    `json:"recipientEmail"`
	Sender                   *string    `json:"sender"`
	Type                     *string    `json:"type"`
	Status                   *string    `json:"status"`
	TrackingNumber           *string    `json:"trackingNumber"`
	Price                    *float64   `json:"price"`
	SupplierInfo             *string    `json:"supplierInfo"`
	InternalOperationalNotes *string    `json:"internalOperationalNotes"`
}

// ListCorrespondence — GET /correspondence.
// Персонал видит всё, cliente — только свою корреспонденцию.
func (h *APIHandler) ListCorrespondence(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	items, err := h.correspondence.List(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCorrespondenceDTOs(items))
}

// GetCorrespondence — GET /correspondence/{id}.
func (h *APIHandler) GetCorrespondence(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.correspondence.Get(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCorrespondenceDTO(*item))
}

// CreateCorrespondence — POST /correspondence. Только персонал.
func (h *APIHandler) CreateCorrespondence(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	var req correspondenceCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.correspondence.Create(r.Context(), actor, service.CreateInput{
		RecipientID:    req.RecipientID,
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		Sender:         req.Sender,
		Type:           req.Type,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCorrespondenceDTO(*item))
}

// UpdateCorrespondence — PATCH /correspondence/{id}. Только персонал;
// служебные поля и откат из Entregado требуют admin/super_admin.
func (h *APIHandler) UpdateCorrespondence(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req correspondenceUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.correspondence.Update(r.Context(), actor, id, service.UpdateInput{
		RecipientID:              req.RecipientID,
		RecipientName:            req.RecipientName,
		RecipientEmail:           req.RecipientEmail,
		Sender:                   req.Sender,
		Type:                     req.Type,
		Status:                   req.Status,
		TrackingNumber:           req.TrackingNumber,
		Price:                    req.Price,
		SupplierInfo:             req.SupplierInfo,
		InternalOperationalNotes: req.InternalOperationalNotes,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCorrespondenceDTO(*item))
}

// DeliverCorrespondence — POST /correspondence/{id}/deliver.
// Идемпотентна: повторная выдача не меняет атрибуцию.
func (h *APIHandler) DeliverCorrespondence(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.correspondence.Deliver(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCorrespondenceDTO(*item))
}

// NotifyCorrespondence — POST /correspondence/{id}/notify.
// Отправляет email-уведомление получателю.
func (h *APIHandler) NotifyCorrespondence(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.notify.Notify(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCorrespondenceDTO(*item))
}

// DeleteCorrespondence — DELETE /correspondence/{id}. Только admin/super_admin;
// каскадно удаляет вложения и их файлы.
func (h *APIHandler) DeleteCorrespondence(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.correspondence.Delete(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchRecipients — GET /correspondence/search-recipients?q=…
// Подсказки получателей при регистрации. Только персонал.
func (h *APIHandler) SearchRecipients(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	profiles, err := h.correspondence.SearchRecipients(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTOs(profiles))
}

// UserHistory — GET /users/{id}/history. История корреспонденции
// пользователя: сам пользователь или персонал.
func (h *APIHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.correspondence.History(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCorrespondenceDTOs(items))
}
