// audit.go — обработчик выборки журнала аудита с фильтрами и пагинацией.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/botanico/correspondencia/mailroom-module/internal/api/errors"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// auditLogResponse — страница журнала аудита с точным total.
type auditLogResponse struct {
	Entries []auditLogDTO `json:"entries"`
	Total   int           `json:"total"`
}

// ListAuditLogs — GET /audit-logs. Только admin/super_admin.
// Фильтры: eventType, resourceType, userId, status, startDate, endDate;
// пагинация: limit, offset.
func (h *APIHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	filter, ok := parseAuditFilter(w, r)
	if !ok {
		return
	}

	entries, total, err := h.audit.List(r.Context(), actor, filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]auditLogDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toAuditLogDTO(e))
	}
	writeJSON(w, http.StatusOK, auditLogResponse{Entries: dtos, Total: total})
}

// parseAuditFilter разбирает query-параметры фильтра журнала.
// При ошибке пишет 400 и возвращает false.
func parseAuditFilter(w http.ResponseWriter, r *http.Request) (model.AuditLogFilter, bool) {
	var f model.AuditLogFilter
	q := r.URL.Query()

	if v := q.Get("eventType"); v != "" {
		et := model.EventType(v)
		f.EventType = &et
	}
	if v := q.Get("resourceType"); v != "" {
		rt := model.ResourceType(v)
		f.ResourceType = &rt
	}
	if v := q.Get("status"); v != "" {
		st := model.AuditStatus(v)
		f.Status = &st
	}
	if v := q.Get("userId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			apierrors.ValidationError(w, "userId inválido: "+v)
			return f, false
		}
		f.UserID = &id
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apierrors.ValidationError(w, "startDate inválida, se espera RFC3339: "+v)
			return f, false
		}
		f.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apierrors.ValidationError(w, "endDate inválida, se espera RFC3339: "+v)
			return f, false
		}
		f.EndDate = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			apierrors.ValidationError(w, "limit inválido: "+v)
			return f, false
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			apierrors.ValidationError(w, "offset inválido: "+v)
			return f, false
		}
		f.Offset = n
	}

	return f, true
}
