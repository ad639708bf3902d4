// identity.go — сервис аутентификации и разрешения личности.
// Вход/выход через Identity Provider, разрешение профиля по токену,
// учёт входов в журнале аудита (один раз на сессию, не на обновление токена).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/rbac"
	"github.com/botanico/correspondencia/mailroom-module/internal/idp"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

// IdentityService — сервис аутентификации и разрешения личности.
type IdentityService struct {
	idpClient *idp.Client
	profiles  repository.ProfileRepository
	audit     *AuditService
	logger    *slog.Logger

	// Сессии, для которых вход уже записан в журнал.
	// Обновление токена той же сессии не создаёт новой записи LOGIN.
	mu           sync.Mutex
	seenSessions map[string]struct{}
}

// NewIdentityService создаёт сервис аутентификации.
func NewIdentityService(idpClient *idp.Client, profiles repository.ProfileRepository,
	audit *AuditService, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		idpClient:    idpClient,
		profiles:     profiles,
		audit:        audit,
		logger:       logger.With(slog.String("component", "identity_service")),
		seenSessions: make(map[string]struct{}),
	}
}

// SignIn выполняет вход по email/паролю и возвращает токены IdP.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*idp.TokenResponse, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: correo y contraseña son obligatorios", ErrValidation)
	}

	token, err := s.idpClient.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, idp.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, &DependencyError{Provider: "idp", Transient: true, Err: err}
	}
	return token, nil
}

// Refresh обменивает refresh token на новую пару токенов.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*idp.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token es obligatorio", ErrValidation)
	}

	token, err := s.idpClient.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, &DependencyError{Provider: "idp", Transient: true, Err: err}
	}
	return token, nil
}

// Resolve возвращает профиль по данным токена. Если профиль отсутствует
// (аккаунт создан до профиля) или хранилище профилей недоступно,
// возвращается временный профиль с ролью cliente и именем из локальной
// части email.
func (s *IdentityService) Resolve(ctx context.Context, userID uuid.UUID, email, sessionID string) (*model.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		// Недоступность хранилища не блокирует сессию: до восстановления
		// пользователь работает с безопасным профилем cliente.
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Профиль не найден, назначена роль по умолчанию",
				slog.String("user_id", userID.String()),
				slog.String("email", email),
			)
		} else {
			s.logger.Warn("Профиль недоступен, назначена роль по умолчанию",
				slog.String("user_id", userID.String()),
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
		}
		profile = &model.Profile{
			ID:       userID,
			FullName: nameFromEmail(email),
			Email:    email,
			Role:     rbac.RoleCliente,
			Status:   model.AccountActive,
		}
	}

	s.recordLogin(ctx, profile, sessionID)
	return profile, nil
}

// recordLogin записывает вход в журнал один раз на сессию.
func (s *IdentityService) recordLogin(ctx context.Context, profile *model.Profile, sessionID string) {
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	_, seen := s.seenSessions[sessionID]
	if !seen {
		s.seenSessions[sessionID] = struct{}{}
	}
	s.mu.Unlock()
	if seen {
		return
	}

	s.audit.Record(ctx, profile, model.EventLogin, model.ResourceAuth, nil,
		fmt.Sprintf("%s inició sesión", profile.FullName), model.AuditSuccess)
}

// Logout отзывает сессию в IdP и записывает выход в журнал.
// Сбой IdP логируется, но выход считается состоявшимся.
func (s *IdentityService) Logout(ctx context.Context, actor *model.Profile, userToken, sessionID string) {
	if err := s.idpClient.SignOut(ctx, userToken); err != nil {
		s.logger.Warn("Не удалось отозвать сессию в IdP", slog.String("error", err.Error()))
	}

	if sessionID != "" {
		s.mu.Lock()
		delete(s.seenSessions, sessionID)
		s.mu.Unlock()
	}

	s.audit.Record(ctx, actor, model.EventLogin, model.ResourceAuth, nil,
		fmt.Sprintf("%s cerró sesión", actor.FullName), model.AuditInfo)
}

// SendPasswordReset инициирует восстановление пароля. Ответ одинаков
// для существующих и несуществующих адресов.
func (s *IdentityService) SendPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: correo es obligatorio", ErrValidation)
	}

	if err := s.idpClient.SendPasswordReset(ctx, email); err != nil {
		return &DependencyError{Provider: "idp", Transient: true, Err: err}
	}
	return nil
}

// ChangePassword меняет пароль текущего пользователя.
func (s *IdentityService) ChangePassword(ctx context.Context, actor *model.Profile, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: la contraseña debe tener al menos 8 caracteres", ErrValidation)
	}

	if err := s.idpClient.UpdatePassword(ctx, actor.ID.String(), newPassword); err != nil {
		return &DependencyError{Provider: "idp", Transient: true, Err: err}
	}

	s.audit.Record(ctx, actor, model.EventUpdate, model.ResourceUser, &actor.ID,
		fmt.Sprintf("%s cambió su contraseña", actor.FullName), model.AuditSuccess)
	return nil
}

// nameFromEmail возвращает локальную часть адреса как имя по умолчанию.
func nameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
