package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus — статус учётной записи.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Profile — профиль пользователя, привязанный к аккаунту Identity Provider.
type Profile struct {
	// ID — совпадает с subject аккаунта в Identity Provider.
	ID       uuid.UUID
	FullName string
	Email    string
	Role     string
	Status   AccountStatus

	PhoneNumber *string
	// NotificationEmail — переопределяет Email для исходящих уведомлений.
	NotificationEmail *string
	AvatarURL         *string

	// --- Настройки уведомлений ---

	// EmailNotifications — false полностью блокирует отправку email получателю.
	EmailNotifications bool
	WeeklyReport       bool
	AlertSounds        bool

	// CreatedBy — кто создал аккаунт (nil для первых super_admin).
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// NotifyEmail возвращает адрес для исходящих уведомлений по приоритету:
// notification_email → email аккаунта. Пустая строка — адреса нет.
func (p *Profile) NotifyEmail() string {
	if p.NotificationEmail != nil && *p.NotificationEmail != "" {
		return *p.NotificationEmail
	}
	return p.Email
}

// ProfileUpdate — частичное обновление профиля (nil — поле не трогаем).
type ProfileUpdate struct {
	FullName           *string
	PhoneNumber        *string
	NotificationEmail  *string
	AvatarURL          *string
	EmailNotifications *bool
	WeeklyReport       *bool
	AlertSounds        *bool
	Role               *string
	Status             *AccountStatus
}
