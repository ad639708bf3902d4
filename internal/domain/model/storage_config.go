package model

import "time"

// StorageConfig — конфигурация вместимости зон хранения.
// Единственная запись; пороги заданы в процентах от максимума.
type StorageConfig struct {
	MaxPackages int
	MaxLetters  int

	PackagesWarningThreshold  int
	PackagesCriticalThreshold int
	LettersWarningThreshold   int
	LettersCriticalThreshold  int

	UpdatedAt time.Time
	UpdatedBy string
}

// DefaultStorageConfig — значения по умолчанию при отсутствии записи в БД.
// Подстановка логируется как warning, но не считается ошибкой.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		MaxPackages:               50,
		MaxLetters:                200,
		PackagesWarningThreshold:  70,
		PackagesCriticalThreshold: 90,
		LettersWarningThreshold:   70,
		LettersCriticalThreshold:  90,
	}
}

// StorageBucketUsage — занятость одной зоны хранения.
type StorageBucketUsage struct {
	Used              int `json:"used"`
	Max               int `json:"max"`
	Percentage        int `json:"percentage"`
	WarningThreshold  int `json:"warningThreshold"`
	CriticalThreshold int `json:"criticalThreshold"`
}

// DashboardStats — агрегаты для панели управления, вычисляются на момент вызова.
type DashboardStats struct {
	// MonthlyInbound — записей создано в текущем календарном месяце.
	MonthlyInbound int `json:"monthlyInbound"`
	// PendingPickup — записей ещё не выдано.
	PendingPickup int `json:"pendingPickup"`
	// TotalDigitized — записей с хотя бы одним вложением.
	TotalDigitized int `json:"totalDigitized"`
	// ActivityByDay — создано записей по дням за последние 7 суток,
	// от старых к новым.
	ActivityByDay [7]int `json:"activityByDay"`
	// NotificationEfficiency — sent/(sent+failed) в процентах;
	// 100, если попыток ещё не было.
	NotificationEfficiency int `json:"notificationEfficiency"`

	Packages StorageBucketUsage `json:"packages"`
	Letters  StorageBucketUsage `json:"letters"`
}
