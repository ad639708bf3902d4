// Пакет model — доменные структуры Mailroom Module.
// Чистые данные без бизнес-логики; строковые значения статусов и типов
// совпадают с отображаемыми в продукте (испанский — рабочий язык системы).
package model

import (
	"time"

	"github.com/google/uuid"
)

// Status — статус жизненного цикла корреспонденции.
type Status string

const (
	// StatusReceived — принято на стойке регистрации.
	StatusReceived Status = "Recibido"
	// StatusNotified — получатель уведомлён по email.
	StatusNotified Status = "Notificado"
	// StatusScanned — оцифровано (есть хотя бы одно вложение).
	StatusScanned Status = "Escaneado"
	// StatusDelivered — выдано получателю.
	StatusDelivered Status = "Entregado"
)

// EmailStatus — статус email-уведомления по записи.
type EmailStatus string

const (
	EmailPending EmailStatus = "Pendiente"
	EmailSent    EmailStatus = "Enviado"
	EmailFailed  EmailStatus = "Fallido"
	EmailNA      EmailStatus = "N/A"
)

// CorrespondenceType — тип отправления.
type CorrespondenceType string

const (
	TypePackage   CorrespondenceType = "Paquete"
	TypeLetter    CorrespondenceType = "Carta"
	TypeCertified CorrespondenceType = "Certificado"
)

// IsValidType проверяет, является ли строка допустимым типом отправления.
func IsValidType(t string) bool {
	switch CorrespondenceType(t) {
	case TypePackage, TypeLetter, TypeCertified:
		return true
	default:
		return false
	}
}

// Correspondence — запись о входящей корреспонденции.
// recipient_email хранится независимой копией: запись должна оставаться
// пригодной к использованию, даже если аккаунт получателя удалён.
type Correspondence struct {
	ID uuid.UUID

	// --- Получатель ---

	// RecipientID — слабая ссылка на профиль (может быть nil).
	RecipientID    *uuid.UUID
	RecipientName  string
	RecipientEmail string

	// --- Происхождение ---

	Sender string
	Type   CorrespondenceType

	// --- Жизненный цикл ---

	Status      Status
	EmailStatus EmailStatus

	// Date/Time — отображаемые дата и время, зафиксированные при регистрации.
	Date string
	Time string

	TrackingNumber *string

	// --- Поля с ограниченной видимостью (admin/super_admin) ---

	Price                    *float64
	SupplierInfo             *string
	InternalOperationalNotes *string

	// --- Атрибуция выдачи ---

	// DeliveredBy — слабая ссылка на профиль сотрудника (nil до выдачи).
	DeliveredBy *uuid.UUID
	// DeliveredByName — отображаемое имя выдавшего (join с profiles).
	DeliveredByName *string
	DeliveredAt     *time.Time

	DigitizedAt *time.Time
	CreatedAt   time.Time

	// Attachments — вложения записи (владение исключительное:
	// удаление записи каскадно удаляет вложения).
	Attachments []Attachment
}

// Attachment — оцифрованный файл, принадлежащий ровно одной записи.
type Attachment struct {
	ID               uuid.UUID
	CorrespondenceID uuid.UUID
	// FilePath — контентный адрес в blob-хранилище.
	FilePath  string
	FileName  string
	FileType  string
	FileSize  int64
	CreatedAt time.Time
}
