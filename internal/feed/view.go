// Package feed транслирует записи журнала аудита и внутристраничные
// уведомления через Redis pub/sub и сливает входящие события
// с локально загруженными выборками без дублей.
package feed

import (
	"sync"

	"github.com/google/uuid"
)

// View — потокобезопасная лента записей, дедуплицированная по id.
// Новые записи добавляются в начало; при совпадении id входящая
// запись замещает существующую на её месте.
type View[T any] struct {
	mu    sync.RWMutex
	items []T
	idOf  func(T) uuid.UUID
	cap   int
}

// NewView создаёт ленту. cap ограничивает размер после слияний;
// cap <= 0 означает без ограничения.
func NewView[T any](idOf func(T) uuid.UUID, cap int) *View[T] {
	return &View[T]{idOf: idOf, cap: cap}
}

// Seed замещает содержимое ленты результатом первоначальной выборки.
func (v *View[T]) Seed(items []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = append([]T(nil), items...)
	v.trim()
}

// Merge вливает одну запись: замещение при совпадении id,
// иначе добавление в начало.
func (v *View[T]) Merge(item T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.idOf(item)
	for i := range v.items {
		if v.idOf(v.items[i]) == id {
			v.items[i] = item
			return
		}
	}
	v.items = append([]T{item}, v.items...)
	v.trim()
}

// Remove удаляет запись по id. Отсутствие записи не считается ошибкой.
func (v *View[T]) Remove(id uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.idOf(v.items[i]) == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			return
		}
	}
}

// Snapshot возвращает копию текущего содержимого, новые записи первыми.
func (v *View[T]) Snapshot() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]T(nil), v.items...)
}

// Len возвращает число записей в ленте.
func (v *View[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

func (v *View[T]) trim() {
	if v.cap > 0 && len(v.items) > v.cap {
		v.items = v.items[:v.cap]
	}
}
