// client.go — HTTP-клиент к Identity Provider (GoTrue-совместимый REST API).
// Аутентификация пользователей через password grant, администрирование
// аккаунтов через service key (создание, смена пароля, удаление).
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidCredentials — неверная пара email/пароль.
var ErrInvalidCredentials = errors.New("credenciales inválidas")

// Client — HTTP-клиент к Identity Provider.
type Client struct {
	baseURL    string // Базовый URL IdP (без trailing slash)
	serviceKey string // Service key для административных операций

	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент к Identity Provider.
// baseURL — базовый URL IdP (например, https://auth.botanico.space).
// serviceKey — ключ административного доступа.
func New(baseURL, serviceKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "idp_client")),
	}
}

// --- HTTP helpers ---

// do выполняет запрос с авторизацией. Если userToken пуст — используется
// service key (административный доступ).
func (c *Client) do(ctx context.Context, method, path, userToken string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	token := c.serviceKey
	if userToken != "" {
		token = userToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// decodeResponse декодирует JSON ответ в target.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("декодирование ответа IdP: %w", err)
		}
	}

	return nil
}

// apiError формирует ошибку из неуспешного ответа.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.text() != "" {
		return fmt.Errorf("IdP вернул статус %d: %s", resp.StatusCode, e.text())
	}
	return fmt.Errorf("IdP вернул статус %d: %s", resp.StatusCode, string(body))
}

// --- Аутентификация ---

// SignIn выполняет вход по email/паролю. При неверных учётных данных
// возвращает ErrInvalidCredentials.
func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "",
		passwordGrantRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("запрос токена IdP: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrInvalidCredentials
	}

	var token TokenResponse
	if err := decodeResponse(resp, &token); err != nil {
		return nil, fmt.Errorf("SignIn: %w", err)
	}

	return &token, nil
}

// Refresh обменивает refresh token на новую пару токенов.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "",
		refreshGrantRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("обновление токена IdP: %w", err)
	}

	var token TokenResponse
	if err := decodeResponse(resp, &token); err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}

	return &token, nil
}

// SignOut отзывает сессию пользователя.
func (c *Client) SignOut(ctx context.Context, userToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/logout", userToken, nil)
	if err != nil {
		return fmt.Errorf("выход из IdP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

// SendPasswordReset инициирует отправку письма восстановления пароля.
// IdP отвечает одинаково для существующих и несуществующих адресов.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	resp, err := c.do(ctx, http.MethodPost, "/recover", "", recoverRequest{Email: email})
	if err != nil {
		return fmt.Errorf("запрос восстановления пароля: %w", err)
	}
	return decodeResponse(resp, nil)
}

// --- Администрирование аккаунтов ---

// CreateAccount создаёт аккаунт с подтверждённым email.
// Возвращает id аккаунта (subject будущих токенов).
func (c *Client) CreateAccount(ctx context.Context, email, password, fullName string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/admin/users", "",
		createUserRequest{
			Email:        email,
			Password:     password,
			EmailConfirm: true,
			UserMetadata: map[string]any{"full_name": fullName},
		})
	if err != nil {
		return "", fmt.Errorf("создание аккаунта IdP: %w", err)
	}

	var user User
	if err := decodeResponse(resp, &user); err != nil {
		return "", fmt.Errorf("CreateAccount: %w", err)
	}

	c.logger.Info("Аккаунт IdP создан", slog.String("account_id", user.ID))
	return user.ID, nil
}

// UpdatePassword административно меняет пароль аккаунта.
func (c *Client) UpdatePassword(ctx context.Context, accountID, password string) error {
	resp, err := c.do(ctx, http.MethodPut, "/admin/users/"+accountID, "",
		updatePasswordRequest{Password: password})
	if err != nil {
		return fmt.Errorf("смена пароля IdP: %w", err)
	}
	return decodeResponse(resp, nil)
}

// DeleteAccount удаляет аккаунт.
func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/admin/users/"+accountID, "", nil)
	if err != nil {
		return fmt.Errorf("удаление аккаунта IdP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

// --- Readiness checker ---

// CheckReady проверяет доступность IdP через health endpoint.
// Реализует handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return "fail", fmt.Sprintf("IdP недоступен: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("IdP недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "degraded", fmt.Sprintf("IdP вернул статус %d", resp.StatusCode)
	}

	return "ok", "IdP доступен"
}
