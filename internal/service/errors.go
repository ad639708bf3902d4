// errors.go — ошибки бизнес-логики сервисного слоя.
// Тексты пользовательских ошибок — на языке продукта.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("recurso no encontrado")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("datos inválidos")
	// ErrPermissionDenied — действие запрещено ролью или областью видимости.
	ErrPermissionDenied = errors.New("no tienes permisos para realizar esta acción")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("el recurso ya existe")
	// ErrNotificationsDisabled — получатель отключил email-уведомления.
	ErrNotificationsDisabled = errors.New("el destinatario tiene las notificaciones por correo desactivadas")
	// ErrNoEmailAddress — у получателя нет ни одного email-адреса.
	ErrNoEmailAddress = errors.New("el destinatario no tiene dirección de correo")
	// ErrInvalidCredentials — неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("credenciales inválidas")
)

// DependencyError — сбой внешней зависимости (IdP, хранилище, почта).
// Transient=true означает, что повтор операции имеет смысл.
type DependencyError struct {
	Provider  string // "idp", "blobstore", "mailer"
	Transient bool
	Err       error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("зависимость %s: %v", e.Provider, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// PartialFailure — операция выполнена не полностью: часть шагов прошла,
// часть — нет. Возвращается вместо полной ошибки, когда откат невозможен.
type PartialFailure struct {
	// Message — описание для пользователя на языке продукта.
	Message string
	// Failed — имена шагов, которые не прошли.
	Failed []string
	Err    error
}

func (e *PartialFailure) Error() string {
	return e.Message
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}
