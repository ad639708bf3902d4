// feed.go — endpoints realtime-ленты: слепки in-memory представлений,
// которые подписчик Redis поддерживает в актуальном состоянии.
package handlers

import (
	"net/http"

	apierrors "github.com/botanico/correspondencia/mailroom-module/internal/api/errors"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
)

// FeedAudit возвращает слепок realtime-ленты журнала аудита.
// Доступно только super_admin, как и сам журнал.
func (h *APIHandler) FeedAudit(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	if !rbac.CanViewAuditLog(actor.Role) {
		apierrors.Forbidden(w, "Acceso denegado al registro de auditoría")
		return
	}
	if h.feed == nil {
		apierrors.NotFound(w, "El feed en tiempo real no está habilitado")
		return
	}

	entries := h.feed.Audit().Snapshot()
	dtos := make([]auditLogDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toAuditLogDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// FeedNotifications возвращает слепок realtime-ленты уведомлений,
// отфильтрованный по текущему пользователю.
func (h *APIHandler) FeedNotifications(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	if h.feed == nil {
		apierrors.NotFound(w, "El feed en tiempo real no está habilitado")
		return
	}

	all := h.feed.Notifications().Snapshot()
	dtos := make([]notificationDTO, 0, len(all))
	for _, n := range all {
		if n.UserID != actor.ID {
			continue
		}
		dtos = append(dtos, toNotificationDTO(n))
	}
	writeJSON(w, http.StatusOK, dtos)
}
