package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType — тип события в журнале аудита.
type EventType string

const (
	EventCreate       EventType = "CREATE"
	EventUpdate       EventType = "UPDATE"
	EventDelete       EventType = "DELETE"
	EventNotify       EventType = "NOTIFY"
	EventDeliver      EventType = "DELIVER"
	EventDigitize     EventType = "DIGITIZE"
	EventStatusChange EventType = "STATUS_CHANGE"
	EventLogin        EventType = "LOGIN"
)

// ResourceType — тип ресурса, к которому относится событие.
type ResourceType string

const (
	ResourceCorrespondence ResourceType = "CORRESPONDENCE"
	ResourceUser           ResourceType = "USER"
	ResourceAuth           ResourceType = "AUTH"
	ResourceConfig         ResourceType = "CONFIG"
)

// AuditStatus — исход записанного действия. Значения отображаются в UI.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "Exitoso"
	AuditFailed  AuditStatus = "Fallido"
	AuditInfo    AuditStatus = "Informativo"
)

// AuditLogEntry — неизменяемая запись журнала аудита.
// Приложение никогда не обновляет и не удаляет записи.
type AuditLogEntry struct {
	ID           uuid.UUID
	EventType    EventType
	ResourceType ResourceType
	ResourceID   *uuid.UUID
	// Details — человекочитаемое описание на рабочем языке системы.
	Details   string
	UserID    *uuid.UUID
	UserName  string
	Status    AuditStatus
	CreatedAt time.Time
}

// AuditLogFilter — фильтры выборки журнала аудита.
type AuditLogFilter struct {
	EventType    *EventType
	ResourceType *ResourceType
	UserID       *uuid.UUID
	Status       *AuditStatus
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
