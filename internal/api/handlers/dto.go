// dto.go — JSON-представления доменных структур для HTTP API.
// Имена полей соответствуют контракту фронтенда (camelCase).
package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// correspondenceDTO — запись корреспонденции в ответах API.
// Служебные поля (price, supplierInfo, internalOperationalNotes)
// обнуляются сервисным слоем для ролей ниже admin.
type correspondenceDTO struct {
	ID             uuid.UUID  `json:"id"`
	RecipientID    *uuid.UUID `json:"recipientId,omitempty"`
	RecipientName  string     `json:"recipientName"`
	RecipientEmail string     `json:"recipientEmail"`
	Sender         string     `json:"sender"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	EmailStatus    string     `json:"emailStatus"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	TrackingNumber *string    `json:"trackingNumber,omitempty"`

	Price                    *float64 `json:"price,omitempty"`
	SupplierInfo             *string  `json:"supplierInfo,omitempty"`
	InternalOperationalNotes *string  `json:"internalOperationalNotes,omitempty"`

	DeliveredBy     *uuid.UUID `json:"deliveredBy,omitempty"`
	DeliveredByName *string    `json:"deliveredByName,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	DigitizedAt     *time.Time `json:"digitizedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toCorrespondenceDTO(c model.Correspondence) correspondenceDTO {
	return correspondenceDTO{
		ID:                       c.ID,
		RecipientID:              c.RecipientID,
		RecipientName:            c.RecipientName,
		RecipientEmail:           c.RecipientEmail,
		Sender:                   c.Sender,
		Type:                     string(c.Type),
		Status:                   string(c.Status),
		EmailStatus:              string(c.EmailStatus),
		Date:                     c.Date,
		Time:                     c.Time,
		TrackingNumber:           c.TrackingNumber,
		Price:                    c.Price,
		SupplierInfo:             c.SupplierInfo,
		InternalOperationalNotes: c.InternalOperationalNotes,
		DeliveredBy:              c.DeliveredBy,
		DeliveredByName:          c.DeliveredByName,
		DeliveredAt:              c.DeliveredAt,
		DigitizedAt:              c.DigitizedAt,
		CreatedAt:                c.CreatedAt,
	}
}

func toCorrespondenceDTOs(items []model.Correspondence) []correspondenceDTO {
	out := make([]correspondenceDTO, 0, len(items))
	for _, c := range items {
		out = append(out, toCorrespondenceDTO(c))
	}
	return out
}

// attachmentDTO — вложение в ответах API. FilePath наружу не отдаётся:
// доступ к файлу только через подписанные URL.
type attachmentDTO struct {
	ID               uuid.UUID `json:"id"`
	CorrespondenceID uuid.UUID `json:"correspondenceId"`
	FileName         string    `json:"fileName"`
	FileType         string    `json:"fileType"`
	FileSize         int64     `json:"fileSize"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toAttachmentDTO(a model.Attachment) attachmentDTO {
	return attachmentDTO{
		ID:               a.ID,
		CorrespondenceID: a.CorrespondenceID,
		FileName:         a.FileName,
		FileType:         a.FileType,
		FileSize:         a.FileSize,
		CreatedAt:        a.CreatedAt,
	}
}

func toAttachmentDTOs(items []model.Attachment) []attachmentDTO {
	out := make([]attachmentDTO, 0, len(items))
	for _, a := range items {
		out = append(out, toAttachmentDTO(a))
	}
	return out
}

// profileDTO — профиль пользователя в ответах API.
type profileDTO struct {
	ID                 uuid.UUID  `json:"id"`
	FullName           string     `json:"fullName"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	Status             string     `json:"status"`
	PhoneNumber        *string    `json:"phoneNumber,omitempty"`
	NotificationEmail  *string    `json:"notificationEmail,omitempty"`
	AvatarURL          *string    `json:"avatarUrl,omitempty"`
	EmailNotifications bool       `json:"emailNotifications"`
	WeeklyReport       bool       `json:"weeklyReport"`
	AlertSounds        bool       `json:"alertSounds"`
	CreatedBy          *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func toProfileDTO(p model.Profile) profileDTO {
	return profileDTO{
		ID:                 p.ID,
		FullName:           p.FullName,
		Email:              p.Email,
		Role:               p.Role,
		Status:             string(p.Status),
		PhoneNumber:        p.PhoneNumber,
		NotificationEmail:  p.NotificationEmail,
		AvatarURL:          p.AvatarURL,
		EmailNotifications: p.EmailNotifications,
		WeeklyReport:       p.WeeklyReport,
		AlertSounds:        p.AlertSounds,
		CreatedBy:          p.CreatedBy,
		CreatedAt:          p.CreatedAt,
	}
}

func toProfileDTOs(items []model.Profile) []profileDTO {
	out := make([]profileDTO, 0, len(items))
	for _, p := range items {
		out = append(out, toProfileDTO(p))
	}
	return out
}

// auditLogDTO — запись журнала аудита в ответах API.
type auditLogDTO struct {
	ID           uuid.UUID  `json:"id"`
	EventType    string     `json:"eventType"`
	ResourceType string     `json:"resourceType"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	Details      string     `json:"details"`
	UserID       *uuid.UUID `json:"userId,omitempty"`
	UserName     string     `json:"userName"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toAuditLogDTO(e model.AuditLogEntry) auditLogDTO {
	return auditLogDTO{
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

// notificationDTO — внутристраничное уведомление в ответах API.
type notificationDTO struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Read      bool       `json:"read"`
	Link      *uuid.UUID `json:"link,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toNotificationDTO(n model.Notification) notificationDTO {
	return notificationDTO{
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

// storageConfigDTO — конфигурация зон хранения в ответах API.
type storageConfigDTO struct {
	MaxPackages               int       `json:"maxPackages"`
	MaxLetters                int       `json:"maxLetters"`
	PackagesWarningThreshold  int       `json:"packagesWarningThreshold"`
	PackagesCriticalThreshold int       `json:"packagesCriticalThreshold"`
	LettersWarningThreshold   int       `json:"lettersWarningThreshold"`
	LettersCriticalThreshold  int       `json:"lettersCriticalThreshold"`
	UpdatedAt                 time.Time `json:"updatedAt"`
	UpdatedBy                 string    `json:"updatedBy,omitempty"`
}

func toStorageConfigDTO(c model.StorageConfig) storageConfigDTO {
	return storageConfigDTO{
		MaxPackages:               c.MaxPackages,
		MaxLetters:                c.MaxLetters,
		PackagesWarningThreshold:  c.PackagesWarningThreshold,
		PackagesCriticalThreshold: c.PackagesCriticalThreshold,
		LettersWarningThreshold:   c.LettersWarningThreshold,
		LettersCriticalThreshold:  c.LettersCriticalThreshold,
		UpdatedAt:                 c.UpdatedAt,
		UpdatedBy:                 c.UpdatedBy,
	}
}
