// Пакет mailer — HTTP-клиент почтового провайдера (Resend-совместимый API).
// Отправляет транзакционные письма о поступившей корреспонденции.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

// Client — HTTP-клиент почтового провайдера.
type Client struct {
	baseURL string
	apiKey  string
	from    string // Адрес отправителя с display name

	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент почтового провайдера.
// from — адрес отправителя вида "Nombre <correo@dominio>".
func New(apiKey, from string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "mailer_client")),
	}
}

// WithBaseURL переопределяет адрес провайдера (для тестов).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Message — письмо к отправке.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// sendRequest — тело POST /emails.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse — ответ провайдера на успешную отправку.
type sendResponse struct {
	ID string `json:"id"`
}

// providerError — тело ответа провайдера об ошибке.
type providerError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// SendError — отказ провайдера принять письмо.
// Transient=true означает сбой связи или 5xx: отправку имеет смысл повторить.
type SendError struct {
	Transient bool
	Err       error
}

func (e *SendError) Error() string {
	return e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Send отправляет письмо. Возвращает id письма у провайдера.
// Ошибка всегда типа *SendError.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", &SendError{Err: fmt.Errorf("сериализация письма: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", &SendError{Err: fmt.Errorf("создание запроса отправки: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &SendError{Transient: true, Err: fmt.Errorf("запрос к почтовому провайдеру: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var pe providerError
		detail := string(raw)
		if err := json.Unmarshal(raw, &pe); err == nil && pe.Message != "" {
			detail = pe.Message
		}
		return "", &SendError{
			Transient: resp.StatusCode >= 500,
			Err:       fmt.Errorf("провайдер вернул статус %d: %s", resp.StatusCode, detail),
		}
	}

	var sent sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		return "", &SendError{Err: fmt.Errorf("декодирование ответа провайдера: %w", err)}
	}

	c.logger.Debug("Письмо передано провайдеру",
		slog.String("provider_id", sent.ID),
		slog.String("subject", msg.Subject),
	)
	return sent.ID, nil
}
