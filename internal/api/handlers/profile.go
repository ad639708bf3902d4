// profile.go — обработчики профиля текущего пользователя.
package handlers

import (
	"net/http"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// profileUpdateRequest — тело PATCH /profile. nil — поле не трогаем.
// Роль и статус через этот endpoint не меняются.
type profileUpdateRequest struct {
	FullName           *string `json:"fullName"`
	PhoneNumber        *string `json:"phoneNumber"`
	NotificationEmail  *string `json:"notificationEmail"`
	AvatarURL          *string `json:"avatarUrl"`
	EmailNotifications *bool   `json:"emailNotifications"`
	WeeklyReport       *bool   `json:"weeklyReport"`
	AlertSounds        *bool   `json:"alertSounds"`
}

// GetProfile — GET /profile.
func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*actor))
}

// UpdateProfile — PATCH /profile. Самообслуживание: пользователь меняет
// свои контактные данные и настройки уведомлений.
func (h *APIHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.Update(r.Context(), actor, actor.ID, model.ProfileUpdate{
		FullName:           req.FullName,
		PhoneNumber:        req.PhoneNumber,
		NotificationEmail:  req.NotificationEmail,
		AvatarURL:          req.AvatarURL,
		EmailNotifications: req.EmailNotifications,
		WeeklyReport:       req.WeeklyReport,
		AlertSounds:        req.AlertSounds,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*updated))
}
