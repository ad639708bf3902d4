// Пакет blobstore — HTTP-клиент к S3-совместимому хранилищу объектов
// (Storage API). Операции: загрузка, удаление, подписанные URL, листинг.
// Файлы лежат в бакетах; путь внутри бакета формирует вызывающая сторона.
package blobstore

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

// Client — HTTP-клиент хранилища объектов.
type Client struct {
	baseURL    string // Базовый URL Storage API (без trailing slash)
	serviceKey string

	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент хранилища объектов.
func New(baseURL, serviceKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "blobstore_client")),
	}
}

// ObjectInfo — элемент листинга бакета.
type ObjectInfo struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	// Metadata.Size заполняет хранилище.
	Metadata struct {
		Size int64 `json:"size"`
	} `json:"metadata"`
	CreatedAt string `json:"created_at"`
}

// signURLRequest — тело POST /object/sign/{bucket}/{path}.
type signURLRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

// signURLResponse — ответ на запрос подписанного URL.
type signURLResponse struct {
	SignedURL string `json:"signedURL"`
}

// removeRequest — тело DELETE /object/{bucket}.
type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

// listRequest — тело POST /object/list/{bucket}.
type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
}

// authorize проставляет заголовки авторизации.
func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
}

// apiError формирует ошибку из неуспешного ответа.
func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s: хранилище вернуло статус %d: %s", op, resp.StatusCode, string(body))
}

// Put загружает объект в бакет по пути path.
func (c *Client) Put(ctx context.Context, bucket, path, contentType string, data []byte) error {
	reqURL := fmt.Sprintf("%s/object/%s/%s", c.baseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("создание запроса загрузки: %w", err)
	}
	c.authorize(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("загрузка объекта: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError("Put", resp)
	}

	c.logger.Debug("Объект загружен",
		slog.String("bucket", bucket),
		slog.String("path", path),
		slog.Int("size", len(data)),
	)
	return nil
}

// Remove удаляет объекты бакета по списку путей.
func (c *Client) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	body, err := json.Marshal(removeRequest{Prefixes: paths})
	if err != nil {
		return fmt.Errorf("сериализация списка путей: %w", err)
	}

	reqURL := fmt.Sprintf("%s/object/%s", c.baseURL, bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("создание запроса удаления: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("удаление объектов: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError("Remove", resp)
	}

	c.logger.Debug("Объекты удалены",
		slog.String("bucket", bucket),
		slog.Int("count", len(paths)),
	)
	return nil
}

// CreateSignedURL возвращает временный URL для скачивания объекта.
func (c *Client) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	body, err := json.Marshal(signURLRequest{ExpiresIn: int(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("сериализация запроса подписи: %w", err)
	}

	reqURL := fmt.Sprintf("%s/object/sign/%s/%s", c.baseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("создание запроса подписи: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос подписанного URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError("CreateSignedURL", resp)
	}

	var signed signURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("декодирование ответа подписи: %w", err)
	}

	// Хранилище возвращает относительный путь
	if strings.HasPrefix(signed.SignedURL, "/") {
		return c.baseURL + signed.SignedURL, nil
	}
	return signed.SignedURL, nil
}

// List возвращает объекты бакета по префиксу.
func (c *Client) List(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	body, err := json.Marshal(listRequest{Prefix: prefix, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("сериализация запроса листинга: %w", err)
	}

	reqURL := fmt.Sprintf("%s/object/list/%s", c.baseURL, bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("создание запроса листинга: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("листинг бакета: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError("List", resp)
	}

	var objects []ObjectInfo
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("декодирование листинга: %w", err)
	}
	return objects, nil
}
