// notifications.go — обработчики внутристраничных уведомлений.
package handlers

import "net/http"

// ListNotifications — GET /notifications. Последние уведомления
// текущего пользователя.
func (h *APIHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	items, err := h.notifications.List(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]notificationDTO, 0, len(items))
	for _, n := range items {
		dtos = append(dtos, toNotificationDTO(n))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkNotificationRead — POST /notifications/{id}/read.
func (h *APIHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead — POST /notifications/read-all.
func (h *APIHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), actor); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotification — DELETE /notifications/{id}.
func (h *APIHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.Delete(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
