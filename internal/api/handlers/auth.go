// auth.go — обработчики аутентификации: вход, выход, обновление токенов,
// восстановление и смена пароля, текущий профиль.
package handlers

import (
	"net/http"

	"github.com/botanico/correspondencia/mailroom-module/internal/api/middleware"
	"github.com/botanico/correspondencia/mailroom-module/internal/idp"
)

// loginRequest — тело POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest — тело POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// recoverRequest — тело POST /auth/recover.
type recoverRequest struct {
	Email string `json:"email"`
}

// changePasswordRequest — тело POST /auth/password.
type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// tokenResponse — ответ login/refresh.
type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
	RefreshToken string `json:"refreshToken"`
}

func toTokenResponse(t *idp.TokenResponse) tokenResponse {
	return tokenResponse{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		RefreshToken: t.RefreshToken,
	}
}

// Login — POST /auth/login. Публичный endpoint.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(token))
}

// Refresh — POST /auth/refresh. Публичный endpoint.
func (h *APIHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(token))
}

// Logout — POST /auth/logout. Выход идемпотентен: сбой отзыва сессии
// в IdP не считается ошибкой.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	h.identity.Logout(r.Context(), actor, claims.Token, claims.SessionID)
	w.WriteHeader(http.StatusNoContent)
}

// Recover — POST /auth/recover. Публичный endpoint; ответ одинаков
// для существующих и несуществующих адресов.
func (h *APIHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.identity.SendPasswordReset(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Si la dirección existe, recibirás un correo de recuperación",
	})
}

// ChangePassword — POST /auth/password. Меняет пароль текущего пользователя.
func (h *APIHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.identity.ChangePassword(r.Context(), actor, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me — GET /auth/me. Возвращает разрешённый профиль текущего пользователя.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*actor))
}
