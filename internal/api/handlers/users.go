// users.go — обработчики управления пользователями.
package handlers

import (
	"net/http"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/service"
)

// userCreateRequest — тело POST /users.
type userCreateRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FullName    string  `json:"fullName"`
	Role        string  `json:"role"`
	PhoneNumber *string `json:"phoneNumber"`
}

// userUpdateRequest — тело PATCH /users/{id}. nil — поле не трогаем.
// Роль и статус может менять только управляющий ролью.
type userUpdateRequest struct {
	FullName           *string `json:"fullName"`
	PhoneNumber        *string `json:"phoneNumber"`
	NotificationEmail  *string `json:"notificationEmail"`
	AvatarURL          *string `json:"avatarUrl"`
	EmailNotifications *bool   `json:"emailNotifications"`
	WeeklyReport       *bool   `json:"weeklyReport"`
	AlertSounds        *bool   `json:"alertSounds"`
	Role               *string `json:"role"`
	Status             *string `json:"status"`
}

// ListUsers — GET /users. Только персонал.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	profiles, err := h.users.List(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTOs(profiles))
}

// CreateUser — POST /users. Создаёт аккаунт IdP и профиль;
// создающий должен управлять назначаемой ролью.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	var req userCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.users.Create(r.Context(), actor, service.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Role:        req.Role,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(*profile))
}

// UpdateUser — PATCH /users/{id}.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req userUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upd := model.ProfileUpdate{
		FullName:           req.FullName,
		PhoneNumber:        req.PhoneNumber,
		NotificationEmail:  req.NotificationEmail,
		AvatarURL:          req.AvatarURL,
		EmailNotifications: req.EmailNotifications,
		WeeklyReport:       req.WeeklyReport,
		AlertSounds:        req.AlertSounds,
		Role:               req.Role,
	}
	if req.Status != nil {
		status := model.AccountStatus(*req.Status)
		upd.Status = &status
	}

	profile, err := h.users.Update(r.Context(), actor, id, upd)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*profile))
}

// DeleteUser — DELETE /users/{id}. Каскад: аватары, вложения полученной
// корреспонденции, отвязка записей, уведомления, профиль, аккаунт IdP.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
