// Пакет status — конечный автомат статусов корреспонденции.
//
// Естественный порядок: Recibido → Notificado → Escaneado → Entregado,
// но не строго линейный: Escaneado достижим напрямую из Recibido
// (первое вложение продвигает статус, минуя Notificado).
// Ручная правка персоналом может выставить любой статус — поддерживаемый
// механизм исправления ошибок, проходящий через ManualOverride.
package status

import (
	"fmt"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// rank — позиция статуса в естественном порядке продвижения.
var rank = map[model.Status]int{
	model.StatusReceived:  1,
	model.StatusNotified:  2,
	model.StatusScanned:   3,
	model.StatusDelivered: 4,
}

// naturalTransitions — матрица допустимых естественных переходов.
// Движение только вперёд; Entregado — терминальный статус.
var naturalTransitions = map[model.Status]map[model.Status]bool{
	model.StatusReceived:  {model.StatusNotified: true, model.StatusScanned: true, model.StatusDelivered: true},
	model.StatusNotified:  {model.StatusScanned: true, model.StatusDelivered: true},
	model.StatusScanned:   {model.StatusDelivered: true},
	model.StatusDelivered: {},
}

// IsValid проверяет, является ли строка допустимым статусом.
func IsValid(s model.Status) bool {
	_, ok := rank[s]
	return ok
}

// Parse преобразует строку в статус, с ошибкой для недопустимых значений.
func Parse(s string) (model.Status, error) {
	st := model.Status(s)
	if !IsValid(st) {
		return "", fmt.Errorf("estado no válido: %q (válidos: Recibido, Notificado, Escaneado, Entregado)", s)
	}
	return st, nil
}

// CanTransition проверяет допустимость естественного перехода from → to.
// Переход в тот же статус не считается переходом (false).
func CanTransition(from, to model.Status) bool {
	targets, ok := naturalTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// CanAutoPromote — допустимо ли автоматическое продвижение в Escaneado
// при загрузке первого вложения. Никогда не понижает Escaneado/Entregado;
// повторные срабатывания безопасны (идемпотентный no-op).
func CanAutoPromote(current model.Status) bool {
	return current == model.StatusReceived || current == model.StatusNotified
}

// IsRegression — является ли переход from → to откатом назад
// по естественному порядку. Ручная правка использует это, чтобы
// зафиксировать осознанный откат в журнале аудита.
func IsRegression(from, to model.Status) bool {
	rf, okF := rank[from]
	rt, okT := rank[to]
	if !okF || !okT {
		return false
	}
	return rt < rf
}

// EventFor возвращает тип события аудита для перехода в целевой статус:
// DELIVER для выдачи, DIGITIZE для первой оцифровки,
// STATUS_CHANGE для всех остальных ручных правок.
func EventFor(to model.Status, autoDigitize bool) model.EventType {
	switch {
	case to == model.StatusDelivered:
		return model.EventDeliver
	case to == model.StatusScanned && autoDigitize:
		return model.EventDigitize
	default:
		return model.EventStatusChange
	}
}
