package feed

import (
	"time"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// Каналы Redis pub/sub.
const (
	ChannelAudit         = "audit_logs"
	ChannelNotifications = "notifications"
)

// auditEvent — JSON-представление записи журнала аудита в канале.
type auditEvent struct {
	ID           uuid.UUID  `json:"id"`
	EventType    string     `json:"event_type"`
	ResourceType string     `json:"resource_type"`
	ResourceID   *uuid.UUID `json:"resource_id,omitempty"`
	Details      string     `json:"details"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	UserName     string     `json:"user_name"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toAuditEvent(e model.AuditLogEntry) auditEvent {
	return auditEvent{
		ID:           e.ID,
		EventType:    string(e.EventType),
		ResourceType: string(e.ResourceType),
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		UserID:       e.UserID,
		UserName:     e.UserName,
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt,
	}
}

func (e auditEvent) toModel() model.AuditLogEntry {
	return model.AuditLogEntry{
		ID:           e.ID,
		EventType:    model.EventType(e.EventType),
		ResourceType: model.ResourceType(e.ResourceType),
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		UserID:       e.UserID,
		UserName:     e.UserName,
		Status:       model.AuditStatus(e.Status),
		CreatedAt:    e.CreatedAt,
	}
}

// notificationEvent — JSON-представление внутристраничного уведомления.
type notificationEvent struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Read      bool       `json:"read"`
	Link      *uuid.UUID `json:"link,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toNotificationEvent(n model.Notification) notificationEvent {
	return notificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Read:      n.Read,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}

func (e notificationEvent) toModel() model.Notification {
	return model.Notification{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Message:   e.Message,
		Type:      model.NotificationType(e.Type),
		Read:      e.Read,
		Link:      e.Link,
		CreatedAt: e.CreatedAt,
	}
}
