// Пакет errors — конструкторы стандартных ошибок HTTP API Mailroom Module.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок API.
const (
	CodeValidationError       = "VALIDATION_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeConflict              = "CONFLICT"
	CodeNotificationsDisabled = "NOTIFICATIONS_DISABLED"
	CodeNoEmailAddress        = "NO_EMAIL_ADDRESS"
	CodeDependencyFailure     = "DEPENDENCY_FAILURE"
	CodePartialFailure        = "PARTIAL_FAILURE"
	CodeInternalError         = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// Conflict — 409 конфликт (дублирующийся ресурс).
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// NotificationsDisabled — 409 получатель отключил email-уведомления.
func NotificationsDisabled(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeNotificationsDisabled, message)
}

// NoEmailAddress — 422 у получателя нет ни одного email-адреса.
func NoEmailAddress(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeNoEmailAddress, message)
}

// DependencyFailure — 502 внешний сервис недоступен или ответил ошибкой.
func DependencyFailure(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, CodeDependencyFailure, message)
}

// PartialFailure — 207 операция выполнена частично.
func PartialFailure(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusMultiStatus, CodePartialFailure, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
