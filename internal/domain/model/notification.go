package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType — визуальная категория внутристраничного уведомления.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Notification — внутристраничное уведомление пользователя
// (отдельная сущность от email-уведомлений).
type Notification struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Title   string
	Message string
	Type    NotificationType
	Read    bool
	// Link — необязательная ссылка на запись корреспонденции.
	Link      *uuid.UUID
	CreatedAt time.Time
}
