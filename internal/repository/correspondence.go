package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// CorrespondenceCreate — данные для регистрации новой записи.
// date/time/status/email_status выставляет репозиторий, не клиент.
type CorrespondenceCreate struct {
	RecipientID    *uuid.UUID
	RecipientName  string
	RecipientEmail string
	Sender         string
	Type           model.CorrespondenceType
	TrackingNumber *string
	Date           string
	Time           string
}

// CorrespondenceUpdate — частичное обновление записи (nil — поле не трогаем).
// DeliveredBy/DeliveredAt применяются через COALESCE: первая атрибуция
// выдачи никогда не перезаписывается повторной.
type CorrespondenceUpdate struct {
	RecipientID              *uuid.UUID
	RecipientName            *string
	RecipientEmail           *string
	Sender                   *string
	Type                     *model.CorrespondenceType
	Status                   *model.Status
	TrackingNumber           *string
	Price                    *float64
	SupplierInfo             *string
	InternalOperationalNotes *string
	DeliveredBy              *uuid.UUID
	DeliveredAt              *time.Time
	DigitizedAt              *time.Time
}

// CorrespondenceRepository — операции над таблицей correspondence.
type CorrespondenceRepository interface {
	// GetAll возвращает все записи с именем выдавшего и вложениями,
	// новые первыми.
	GetAll(ctx context.Context) ([]model.Correspondence, error)
	// GetByID возвращает запись по id. Если не найдена — ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Correspondence, error)
	// GetByRecipientEmail возвращает записи получателя по email.
	GetByRecipientEmail(ctx context.Context, email string) ([]model.Correspondence, error)
	// Create регистрирует запись со статусами Recibido/Pendiente.
	Create(ctx context.Context, c CorrespondenceCreate) (*model.Correspondence, error)
	// Update применяет частичное обновление.
	Update(ctx context.Context, id uuid.UUID, upd CorrespondenceUpdate) error
	// Delete удаляет запись. Если не найдена — ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkDelivered атомарно выставляет Entregado + атрибуцию выдачи.
	// Возвращает false без ошибки, если запись уже Entregado (идемпотентный no-op).
	MarkDelivered(ctx context.Context, id, deliveredBy uuid.UUID, at time.Time) (bool, error)
	// PromoteScanned атомарно продвигает Recibido/Notificado → Escaneado.
	// Возвращает false без ошибки, если статус уже Escaneado или Entregado.
	PromoteScanned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// SetEmailStatus обновляет статус email-уведомления.
	SetEmailStatus(ctx context.Context, id uuid.UUID, s model.EmailStatus) error

	// ListForUser возвращает записи, где пользователь — получатель или выдавший.
	ListForUser(ctx context.Context, userID uuid.UUID, email string) ([]model.Correspondence, error)
	// CountForUser считает записи, ссылающиеся на пользователя
	// (recipient_id или delivered_by).
	CountForUser(ctx context.Context, userID uuid.UUID) (int, error)
	// ListIDsByRecipient возвращает id записей, где пользователь — получатель.
	ListIDsByRecipient(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// UnlinkRecipient обнуляет recipient_id у записей пользователя.
	UnlinkRecipient(ctx context.Context, userID uuid.UUID) (int64, error)
	// UnlinkDeliverer обнуляет delivered_by у записей пользователя.
	UnlinkDeliverer(ctx context.Context, userID uuid.UUID) (int64, error)

	// --- Агрегаты для панели управления ---

	CountCreatedSince(ctx context.Context, t time.Time) (int, error)
	CountNotDelivered(ctx context.Context) (int, error)
	CountPendingByTypes(ctx context.Context, types []model.CorrespondenceType) (int, error)
	CountByEmailStatus(ctx context.Context, s model.EmailStatus) (int, error)
	CreatedAtSince(ctx context.Context, t time.Time) ([]time.Time, error)
}

// correspondenceRepo — реализация CorrespondenceRepository.
type correspondenceRepo struct {
	db DBTX
}

// NewCorrespondenceRepository создаёт репозиторий корреспонденции.
func NewCorrespondenceRepository(db DBTX) CorrespondenceRepository {
	return &correspondenceRepo{db: db}
}

// selectColumns — общий список колонок с join имени выдавшего.
const selectColumns = `
	c.id, c.recipient_id, c.recipient_name, c.recipient_email,
	c.sender, c.type, c.status, c.email_status, c.date, c.time,
	c.tracking_number, c.price, c.supplier_info, c.internal_operational_notes,
	c.delivered_by, d.full_name, c.delivered_at, c.digitized_at, c.created_at`

const selectFrom = `
	FROM correspondence c
	LEFT JOIN profiles d ON d.id = c.delivered_by`

// scanCorrespondence считывает одну строку результата в модель.
func scanCorrespondence(row pgx.Row) (*model.Correspondence, error) {
	c := &model.Correspondence{}
	err := row.Scan(
		&c.ID, &c.RecipientID, &c.RecipientName, &c.RecipientEmail,
		&c.Sender, &c.Type, &c.Status, &c.EmailStatus, &c.Date, &c.Time,
		&c.TrackingNumber, &c.Price, &c.SupplierInfo, &c.InternalOperationalNotes,
		&c.DeliveredBy, &c.DeliveredByName, &c.DeliveredAt, &c.DigitizedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// queryList выполняет запрос списка и подгружает вложения одним запросом.
func (r *correspondenceRepo) queryList(ctx context.Context, query string, args ...any) ([]model.Correspondence, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки correspondence: %w", err)
	}
	defer rows.Close()

	var items []model.Correspondence
	var ids []uuid.UUID
	for rows.Next() {
		c, err := scanCorrespondence(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования correspondence: %w", err)
		}
		items = append(items, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	attachments, err := r.attachmentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Attachments = attachments[items[i].ID]
	}
	return items, nil
}

// attachmentsFor подгружает вложения для набора записей одним запросом.
func (r *correspondenceRepo) attachmentsFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.Attachment, error) {
	query := `
		SELECT id, correspondence_id, file_path, file_name, file_type, file_size, created_at
		FROM correspondence_attachments
		WHERE correspondence_id = ANY($1)
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки вложений: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]model.Attachment)
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.CorrespondenceID, &a.FilePath, &a.FileName, &a.FileType, &a.FileSize, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования вложения: %w", err)
		}
		result[a.CorrespondenceID] = append(result[a.CorrespondenceID], a)
	}
	return result, rows.Err()
}

// GetAll возвращает все записи, новые первыми.
func (r *correspondenceRepo) GetAll(ctx context.Context) ([]model.Correspondence, error) {
	query := `SELECT` + selectColumns + selectFrom + `
	ORDER BY c.created_at DESC`
	return r.queryList(ctx, query)
}

// GetByID возвращает запись с вложениями по id.
func (r *correspondenceRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Correspondence, error) {
	query := `SELECT` + selectColumns + selectFrom + `
	WHERE c.id = $1`

	c, err := scanCorrespondence(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения correspondence[%s]: %w", id, err)
	}

	attachments, err := r.attachmentsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	c.Attachments = attachments[id]
	return c, nil
}

// GetByRecipientEmail возвращает записи получателя, новые первыми.
// Email сравнивается без учёта регистра: адрес в токене может
// отличаться регистром от записанного при регистрации поступления.
func (r *correspondenceRepo) GetByRecipientEmail(ctx context.Context, email string) ([]model.Correspondence, error) {
	query := `SELECT` + selectColumns + selectFrom + `
	WHERE lower(c.recipient_email) = lower($1)
	ORDER BY c.created_at DESC`
	return r.queryList(ctx, query, email)
}

// Create регистрирует новую запись.
func (r *correspondenceRepo) Create(ctx context.Context, c CorrespondenceCreate) (*model.Correspondence, error) {
	query := `
		INSERT INTO correspondence
			(recipient_id, recipient_name, recipient_email, sender, type,
			 status, email_status, date, time, tracking_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		c.RecipientID, c.RecipientName, c.RecipientEmail, c.Sender, c.Type,
		model.StatusReceived, model.EmailPending, c.Date, c.Time, c.TrackingNumber,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания correspondence: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Update применяет частичное обновление; собирает SET динамически.
// delivered_by и delivered_at защищены COALESCE от повторной атрибуции.
func (r *correspondenceRepo) Update(ctx context.Context, id uuid.UUID, upd CorrespondenceUpdate) error {
	set := make([]string, 0, 13)
	args := make([]any, 0, 14)
	args = append(args, id)

	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.RecipientID != nil {
		add("recipient_id", *upd.RecipientID)
	}
	if upd.RecipientName != nil {
		add("recipient_name", *upd.RecipientName)
	}
	if upd.RecipientEmail != nil {
		add("recipient_email", *upd.RecipientEmail)
	}
	if upd.Sender != nil {
		add("sender", *upd.Sender)
	}
	if upd.Type != nil {
		add("type", *upd.Type)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.TrackingNumber != nil {
		add("tracking_number", *upd.TrackingNumber)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.SupplierInfo != nil {
		add("supplier_info", *upd.SupplierInfo)
	}
	if upd.InternalOperationalNotes != nil {
		add("internal_operational_notes", *upd.InternalOperationalNotes)
	}
	if upd.DigitizedAt != nil {
		add("digitized_at", *upd.DigitizedAt)
	}
	if upd.DeliveredBy != nil {
		args = append(args, *upd.DeliveredBy)
		set = append(set, fmt.Sprintf("delivered_by = COALESCE(delivered_by, $%d)", len(args)))
	}
	if upd.DeliveredAt != nil {
		args = append(args, *upd.DeliveredAt)
		set = append(set, fmt.Sprintf("delivered_at = COALESCE(delivered_at, $%d)", len(args)))
	}

	if len(set) == 0 {
		return nil
	}

	query := "UPDATE correspondence SET " + joinSet(set) + " WHERE id = $1"
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления correspondence[%s]: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// joinSet склеивает SET-выражения через запятую.
func joinSet(set []string) string {
	result := set[0]
	for _, s := range set[1:] {
		result += ", " + s
	}
	return result
}

// Delete удаляет запись; вложения каскадируются на уровне схемы,
// но blob-объекты вычищает Attachment Manager до вызова.
func (r *correspondenceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM correspondence WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления correspondence[%s]: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDelivered атомарно выставляет статус и атрибуцию выдачи.
// Guard WHERE status <> 'Entregado' гарантирует идемпотентность:
// повторный вызов не перештампует delivered_by/delivered_at.
func (r *correspondenceRepo) MarkDelivered(ctx context.Context, id, deliveredBy uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE correspondence
		SET status = $2, delivered_by = $3, delivered_at = $4
		WHERE id = $1 AND status <> $2`

	tag, err := r.db.Exec(ctx, query, id, model.StatusDelivered, deliveredBy, at)
	if err != nil {
		return false, fmt.Errorf("ошибка выдачи correspondence[%s]: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PromoteScanned атомарно продвигает статус при первой оцифровке.
// Guard по текущему статусу не даёт понизить Escaneado/Entregado.
func (r *correspondenceRepo) PromoteScanned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE correspondence
		SET status = $2, digitized_at = COALESCE(digitized_at, $3)
		WHERE id = $1 AND status IN ($4, $5)`

	tag, err := r.db.Exec(ctx, query, id,
		model.StatusScanned, at, model.StatusReceived, model.StatusNotified)
	if err != nil {
		return false, fmt.Errorf("ошибка продвижения correspondence[%s]: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetEmailStatus обновляет статус email-уведомления.
func (r *correspondenceRepo) SetEmailStatus(ctx context.Context, id uuid.UUID, s model.EmailStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE correspondence SET email_status = $2 WHERE id = $1`, id, s)
	if err != nil {
		return fmt.Errorf("ошибка обновления email_status correspondence[%s]: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser возвращает записи, где пользователь — получатель
// (по id или email) или выдавший.
func (r *correspondenceRepo) ListForUser(ctx context.Context, userID uuid.UUID, email string) ([]model.Correspondence, error) {
	query := `SELECT` + selectColumns + selectFrom + `
	WHERE c.recipient_id = $1 OR c.delivered_by = $1 OR c.recipient_email = $2
	ORDER BY c.created_at DESC`
	return r.queryList(ctx, query, userID, email)
}

// CountForUser считает записи, ссылающиеся на пользователя.
func (r *correspondenceRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM correspondence WHERE recipient_id = $1 OR delivered_by = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта correspondence пользователя: %w", err)
	}
	return count, nil
}

// ListIDsByRecipient возвращает id записей, где пользователь — получатель.
func (r *correspondenceRepo) ListIDsByRecipient(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM correspondence WHERE recipient_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки correspondence получателя: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlinkRecipient обнуляет recipient_id у записей пользователя.
func (r *correspondenceRepo) UnlinkRecipient(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE correspondence SET recipient_id = NULL WHERE recipient_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка отвязки получателя: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UnlinkDeliverer обнуляет delivered_by у записей пользователя.
func (r *correspondenceRepo) UnlinkDeliverer(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE correspondence SET delivered_by = NULL WHERE delivered_by = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка отвязки выдавшего: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountCreatedSince считает записи, созданные не раньше t.
func (r *correspondenceRepo) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM correspondence WHERE created_at >= $1`, t).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта созданных записей: %w", err)
	}
	return count, nil
}

// CountNotDelivered считает записи, ещё не выданные получателям.
func (r *correspondenceRepo) CountNotDelivered(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM correspondence WHERE status <> $1`, model.StatusDelivered).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта невыданных записей: %w", err)
	}
	return count, nil
}

// CountPendingByTypes считает невыданные записи указанных типов.
func (r *correspondenceRepo) CountPendingByTypes(ctx context.Context, types []model.CorrespondenceType) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM correspondence WHERE type = ANY($1) AND status <> $2`,
		types, model.StatusDelivered,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта занятости хранения: %w", err)
	}
	return count, nil
}

// CountByEmailStatus считает записи с указанным статусом email-уведомления.
func (r *correspondenceRepo) CountByEmailStatus(ctx context.Context, s model.EmailStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM correspondence WHERE email_status = $1`, s).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта email-статусов: %w", err)
	}
	return count, nil
}

// CreatedAtSince возвращает времена создания записей не раньше t.
func (r *correspondenceRepo) CreatedAtSince(ctx context.Context, t time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx,
		`SELECT created_at FROM correspondence WHERE created_at >= $1`, t)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки времён создания: %w", err)
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	return result, rows.Err()
}
