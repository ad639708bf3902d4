// Пакет config — загрузка и валидация конфигурации Mailroom Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Mailroom Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Identity Provider ---

	// Базовый URL Identity Provider (GoTrue-совместимый)
	IDPURL string
	// Service-role ключ для Admin API
	IDPServiceKey string
	// URL JWKS endpoint (авто-вычисляется из IDPURL, если не задан)
	JWTJWKSURL string
	// Ожидаемый issuer JWT (авто-вычисляется из IDPURL, если не задан)
	JWTIssuer string

	// --- Blob-хранилище ---

	// Базовый URL storage API
	StorageURL string
	// Ключ доступа к storage API
	StorageKey string
	// Бакет оцифрованных вложений
	StorageBucketFiles string
	// Бакет аватаров
	StorageBucketAvatars string

	// --- Email ---

	// API-ключ провайдера транзакционной почты (Resend)
	MailerAPIKey string
	// Адрес отправителя
	MailerFrom string
	// URL панели для deep link в письме
	DashboardURL string
	// Таймаут обращения к email-провайдеру
	MailerTimeout time.Duration

	// --- Realtime feed ---

	// Адрес Redis для подписки на события (пустой — подписка выключена)
	RedisAddr string
	// Пароль Redis
	RedisPassword string

	// --- Лимиты ---

	// Максимальный размер загружаемого вложения в байтах
	MaxAttachmentSize int64
	// TTL подписанных URL вложений
	SignedURLTTL time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// MR_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("MR_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("MR_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MR_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// MR_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("MR_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("MR_LOG_LEVEL: %w", err)
	}

	// MR_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MR_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MR_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// MR_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("MR_DB_HOST")
	if err != nil {
		return nil, err
	}

	// MR_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("MR_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("MR_DB_PORT: %w", err)
	}

	// MR_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("MR_DB_NAME")
	if err != nil {
		return nil, err
	}

	// MR_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("MR_DB_USER")
	if err != nil {
		return nil, err
	}

	// MR_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("MR_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// MR_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("MR_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("MR_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Identity Provider ---

	// MR_IDP_URL — обязательный
	cfg.IDPURL, err = getEnvRequired("MR_IDP_URL")
	if err != nil {
		return nil, err
	}
	cfg.IDPURL = strings.TrimRight(cfg.IDPURL, "/")

	// MR_IDP_SERVICE_KEY — обязательный
	cfg.IDPServiceKey, err = getEnvRequired("MR_IDP_SERVICE_KEY")
	if err != nil {
		return nil, err
	}

	// MR_JWT_JWKS_URL — авто-вычисляется из IDPURL, если не задан
	cfg.JWTJWKSURL = getEnvDefault("MR_JWT_JWKS_URL", cfg.IDPURL+"/.well-known/jwks.json")

	// MR_JWT_ISSUER — авто-вычисляется из IDPURL, если не задан
	cfg.JWTIssuer = getEnvDefault("MR_JWT_ISSUER", cfg.IDPURL)

	// --- Blob-хранилище ---

	// MR_STORAGE_URL — обязательный
	cfg.StorageURL, err = getEnvRequired("MR_STORAGE_URL")
	if err != nil {
		return nil, err
	}
	cfg.StorageURL = strings.TrimRight(cfg.StorageURL, "/")

	// MR_STORAGE_KEY — обязательный
	cfg.StorageKey, err = getEnvRequired("MR_STORAGE_KEY")
	if err != nil {
		return nil, err
	}

	// MR_STORAGE_BUCKET_FILES — бакет вложений (по умолчанию digitized-files)
	cfg.StorageBucketFiles = getEnvDefault("MR_STORAGE_BUCKET_FILES", "digitized-files")

	// MR_STORAGE_BUCKET_AVATARS — бакет аватаров (по умолчанию avatars)
	cfg.StorageBucketAvatars = getEnvDefault("MR_STORAGE_BUCKET_AVATARS", "avatars")

	// --- Email ---

	// MR_MAILER_API_KEY — обязательный
	cfg.MailerAPIKey, err = getEnvRequired("MR_MAILER_API_KEY")
	if err != nil {
		return nil, err
	}

	// MR_MAILER_FROM — адрес отправителя
	cfg.MailerFrom = getEnvDefault("MR_MAILER_FROM",
		"Botánico Coworking <notificaciones@botanico.space>")

	// MR_DASHBOARD_URL — deep link в письме (по умолчанию продовый URL)
	cfg.DashboardURL = getEnvDefault("MR_DASHBOARD_URL", "https://correo.botanico.space")

	// MR_MAILER_TIMEOUT — таймаут email-провайдера (по умолчанию 15s)
	cfg.MailerTimeout, err = getEnvDuration("MR_MAILER_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MR_MAILER_TIMEOUT: %w", err)
	}

	// --- Realtime feed ---

	// MR_REDIS_ADDR — опциональный; пустой выключает подписку на события
	cfg.RedisAddr = getEnvDefault("MR_REDIS_ADDR", "")

	// MR_REDIS_PASSWORD — опциональный
	cfg.RedisPassword = getEnvDefault("MR_REDIS_PASSWORD", "")

	// --- Лимиты ---

	// MR_MAX_ATTACHMENT_SIZE — максимальный размер вложения (по умолчанию 10 MiB)
	maxSize, err := getEnvInt("MR_MAX_ATTACHMENT_SIZE", 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("MR_MAX_ATTACHMENT_SIZE: %w", err)
	}
	if maxSize < 1 {
		return nil, fmt.Errorf("MR_MAX_ATTACHMENT_SIZE: значение должно быть положительным")
	}
	cfg.MaxAttachmentSize = int64(maxSize)

	// MR_SIGNED_URL_TTL — TTL подписанных URL (по умолчанию 1h)
	cfg.SignedURLTTL, err = getEnvDuration("MR_SIGNED_URL_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("MR_SIGNED_URL_TTL: %w", err)
	}

	// --- Graceful shutdown ---

	// MR_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("MR_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MR_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
