// handler.go — основной обработчик API Mailroom Module.
// Объединяет все доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/botanico/correspondencia/mailroom-module/internal/api/errors"
	"github.com/botanico/correspondencia/mailroom-module/internal/api/middleware"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/feed"
	"github.com/botanico/correspondencia/mailroom-module/internal/service"
)

// APIHandler — основной обработчик API Mailroom Module.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health         *HealthHandler
	identity       *service.IdentityService
	correspondence *service.CorrespondenceService
	attachments    *service.AttachmentService
	notify         *service.NotifyService
	users          *service.UserService
	dashboard      *service.DashboardService
	storageConfig  *service.StorageConfigService
	audit          *service.AuditService
	notifications  *service.NotificationService
	feed           *feed.Subscriber
	logger         *slog.Logger
}

// SetFeed подключает realtime-ленту (Redis pub/sub). Без неё
// endpoints /feed/* отвечают 404.
func (h *APIHandler) SetFeed(sub *feed.Subscriber) {
	h.feed = sub
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	identity *service.IdentityService,
	correspondence *service.CorrespondenceService,
	attachments *service.AttachmentService,
	notify *service.NotifyService,
	users *service.UserService,
	dashboard *service.DashboardService,
	storageConfig *service.StorageConfigService,
	audit *service.AuditService,
	notifications *service.NotificationService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:         health,
		identity:       identity,
		correspondence: correspondence,
		attachments:    attachments,
		notify:         notify,
		users:          users,
		dashboard:      dashboard,
		storageConfig:  storageConfig,
		audit:          audit,
		notifications:  notifications,
		logger:         logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса; при ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Cuerpo de la solicitud inválido: "+err.Error())
		return false
	}
	return true
}

// pathUUID извлекает UUID-параметр пути; при ошибке пишет 400 и возвращает false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		apierrors.ValidationError(w, "Identificador inválido: "+chi.URLParam(r, name))
		return uuid.Nil, false
	}
	return id, true
}

// actor разрешает профиль текущего пользователя из claims в контексте.
// При отсутствии claims или сбое разрешения пишет ошибку и возвращает nil.
func (h *APIHandler) actor(w http.ResponseWriter, r *http.Request) *model.Profile {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Se requiere autenticación")
		return nil
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		apierrors.Unauthorized(w, "Sub del token inválido")
		return nil
	}

	profile, err := h.identity.Resolve(r.Context(), userID, claims.Email, claims.SessionID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return nil
	}
	return profile
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Сообщения sentinel-ошибок показываются пользователю как есть;
// неожиданные ошибки логируются и скрываются за 500.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var depErr *service.DependencyError
	var partial *service.PartialFailure

	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrNotificationsDisabled):
		apierrors.NotificationsDisabled(w, err.Error())
	case errors.Is(err, service.ErrNoEmailAddress):
		apierrors.NoEmailAddress(w, err.Error())
	case errors.As(err, &depErr):
		apierrors.DependencyFailure(w, "Servicio externo no disponible: "+depErr.Provider)
	case errors.As(err, &partial):
		apierrors.PartialFailure(w, partial.Message)
	default:
		h.logger.Error("Необработанная ошибка сервисного слоя",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Error interno del servidor")
	}
}
