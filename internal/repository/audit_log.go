package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// AuditLogRepository — операции над журналом аудита. Журнал только
// пополняется, записи не изменяются и не удаляются.
type AuditLogRepository interface {
	// Insert добавляет запись журнала.
	Insert(ctx context.Context, e model.AuditLogEntry) (*model.AuditLogEntry, error)
	// List возвращает страницу журнала по фильтру, новые первыми,
	// и точное общее число подходящих записей.
	List(ctx context.Context, f model.AuditLogFilter) ([]model.AuditLogEntry, int, error)
}

type auditLogRepo struct {
	db DBTX
}

// NewAuditLogRepository создаёт репозиторий журнала аудита.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepo{db: db}
}

// Insert добавляет запись журнала.
func (r *auditLogRepo) Insert(ctx context.Context, e model.AuditLogEntry) (*model.AuditLogEntry, error) {
	query := `
		INSERT INTO audit_logs
			(user_id, user_name, event_type, resource_type, resource_id, details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		e.UserID, e.UserName, e.EventType, e.ResourceType, e.ResourceID, e.Details, e.Status,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи в журнал аудита: %w", err)
	}
	return &e, nil
}

// List возвращает страницу журнала по фильтру.
func (r *auditLogRepo) List(ctx context.Context, f model.AuditLogFilter) ([]model.AuditLogEntry, int, error) {
	var conds []string
	var args []any
	add := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.EventType != nil {
		add("event_type = $%d", *f.EventType)
	}
	if f.ResourceType != nil {
		add("resource_type = $%d", *f.ResourceType)
	}
	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.StartDate != nil {
		add("created_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("created_at <= $%d", *f.EndDate)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + joinAnd(conds)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта записей журнала: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT id, user_id, user_name, event_type, resource_type, resource_id, details, status, created_at
		FROM audit_logs%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выборки журнала аудита: %w", err)
	}
	defer rows.Close()

	var result []model.AuditLogEntry
	for rows.Next() {
		var e model.AuditLogEntry
		var resourceID *uuid.UUID
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.EventType, &e.ResourceType,
			&resourceID, &e.Details, &e.Status, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
		}
		e.ResourceID = resourceID
		result = append(result, e)
	}
	return result, total, rows.Err()
}

func joinAnd(conds []string) string {
	result := conds[0]
	for _, c := range conds[1:] {
		result += " AND " + c
	}
	return result
}
