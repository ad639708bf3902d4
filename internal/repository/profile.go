package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// ProfileRepository — операции над таблицей profiles.
type ProfileRepository interface {
	// GetByID возвращает профиль по id. Если не найден — ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	// GetByEmail возвращает профиль по email. Если не найден — ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	// List возвращает все профили, новые первыми.
	List(ctx context.Context) ([]model.Profile, error)
	// Search ищет профили по подстроке имени или email (ILIKE).
	Search(ctx context.Context, q string, limit int) ([]model.Profile, error)
	// Create добавляет профиль. Если email занят — ErrConflict.
	Create(ctx context.Context, p model.Profile) (*model.Profile, error)
	// Update частично обновляет профиль.
	Update(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Profile, error)
	// Delete удаляет профиль. Если не найден — ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}

type profileRepo struct {
	db DBTX
}

// NewProfileRepository создаёт репозиторий профилей.
func NewProfileRepository(db DBTX) ProfileRepository {
	return &profileRepo{db: db}
}

const profileColumns = `id, full_name, email, role, status, phone_number, notification_email,
	avatar_url, email_notifications, weekly_report, alert_sounds, created_by, created_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	p := &model.Profile{}
	err := row.Scan(
		&p.ID, &p.FullName, &p.Email, &p.Role, &p.Status, &p.PhoneNumber, &p.NotificationEmail,
		&p.AvatarURL, &p.EmailNotifications, &p.WeeklyReport, &p.AlertSounds, &p.CreatedBy, &p.CreatedAt,
	)
	return p, err
}

// GetByID возвращает профиль по id.
func (r *profileRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля[%s]: %w", id, err)
	}
	return p, nil
}

// GetByEmail возвращает профиль по email (без учёта регистра).
func (r *profileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля по email: %w", err)
	}
	return p, nil
}

// List возвращает все профили.
func (r *profileRepo) List(ctx context.Context) ([]model.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки профилей: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// Search ищет профили по имени или email.
func (r *profileRepo) Search(ctx context.Context, q string, limit int) ([]model.Profile, error) {
	pattern := "%" + strings.TrimSpace(q) + "%"
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		WHERE full_name ILIKE $1 OR email ILIKE $1
		ORDER BY full_name
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска профилей: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func collectProfiles(rows pgx.Rows) ([]model.Profile, error) {
	var result []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования профиля: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Create добавляет профиль. id приходит из IdP, не генерируется базой.
func (r *profileRepo) Create(ctx context.Context, p model.Profile) (*model.Profile, error) {
	query := `
		INSERT INTO profiles
			(id, full_name, email, role, status, phone_number, notification_email,
			 email_notifications, weekly_report, alert_sounds, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.FullName, p.Email, p.Role, p.Status, p.PhoneNumber, p.NotificationEmail,
		p.EmailNotifications, p.WeeklyReport, p.AlertSounds, p.CreatedBy,
	).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return &p, nil
}

// Update частично обновляет профиль.
func (r *profileRepo) Update(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Profile, error) {
	var sets []string
	var args []any
	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.Role != nil {
		add("role", *upd.Role)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.PhoneNumber != nil {
		add("phone_number", *upd.PhoneNumber)
	}
	if upd.NotificationEmail != nil {
		add("notification_email", *upd.NotificationEmail)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if upd.EmailNotifications != nil {
		add("email_notifications", *upd.EmailNotifications)
	}
	if upd.WeeklyReport != nil {
		add("weekly_report", *upd.WeeklyReport)
	}
	if upd.AlertSounds != nil {
		add("alert_sounds", *upd.AlertSounds)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d RETURNING `+profileColumns,
		joinSet(sets), len(args))

	p, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления профиля[%s]: %w", id, err)
	}
	return p, nil
}

// Delete удаляет профиль.
func (r *profileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления профиля[%s]: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
