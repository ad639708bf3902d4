package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// NotificationRepository — операции над внутрисистемными уведомлениями.
type NotificationRepository interface {
	// ListByUser возвращает последние уведомления пользователя.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	// Insert добавляет уведомление.
	Insert(ctx context.Context, n model.Notification) (*model.Notification, error)
	// MarkRead отмечает уведомление прочитанным.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	// MarkAllRead отмечает все уведомления пользователя прочитанными.
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	// Delete удаляет уведомление пользователя.
	Delete(ctx context.Context, id, userID uuid.UUID) error
	// DeleteByUser удаляет все уведомления пользователя.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type notificationRepo struct {
	db DBTX
}

// NewNotificationRepository создаёт репозиторий уведомлений.
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepo{db: db}
}

// ListByUser возвращает последние уведомления пользователя, новые первыми.
func (r *notificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, title, message, type, read, link, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки уведомлений: %w", err)
	}
	defer rows.Close()

	var result []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.Link, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования уведомления: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// Insert добавляет уведомление.
func (r *notificationRepo) Insert(ctx context.Context, n model.Notification) (*model.Notification, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message, type, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, read, created_at`,
		n.UserID, n.Title, n.Message, n.Type, n.Link,
	).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания уведомления: %w", err)
	}
	return &n, nil
}

// MarkRead отмечает уведомление прочитанным. Фильтр по user_id не даёт
// отмечать чужие уведомления.
func (r *notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("ошибка отметки уведомления[%s]: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead отмечает все уведомления пользователя прочитанными.
func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("ошибка отметки уведомлений: %w", err)
	}
	return nil
}

// Delete удаляет уведомление пользователя.
func (r *notificationRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления уведомления[%s]: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser удаляет все уведомления пользователя.
func (r *notificationRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления уведомлений пользователя: %w", err)
	}
	return nil
}
