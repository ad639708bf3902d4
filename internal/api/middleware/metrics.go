// metrics.go — Prometheus HTTP метрики Mailroom Module.
// Регистрирует метрики: mr_http_requests_total, mr_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mr_http_requests_total",
			Help: "Общее количество HTTP-запросов к Mailroom Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mr_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Mailroom Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем UUID на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет UUID-сегменты пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/correspondence/a1b2c3d4-... → /api/v1/correspondence/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/auth/login", "/api/v1/auth/logout",
		"/api/v1/auth/refresh", "/api/v1/auth/recover",
		"/api/v1/auth/password", "/api/v1/auth/me",
		"/api/v1/profile",
		"/api/v1/correspondence",
		"/api/v1/correspondence/search-recipients",
		"/api/v1/users",
		"/api/v1/dashboard/stats",
		"/api/v1/storage-config",
		"/api/v1/audit-logs",
		"/api/v1/notifications",
		"/api/v1/notifications/read-all":
		return path
	}

	// Динамические пути с UUID
	prefixes := []struct {
		prefix string
		result string
	}{
		{"/api/v1/correspondence/", "/api/v1/correspondence/{id}"},
		{"/api/v1/attachments/", "/api/v1/attachments/{id}"},
		{"/api/v1/users/", "/api/v1/users/{id}"},
		{"/api/v1/notifications/", "/api/v1/notifications/{id}"},
	}

	for _, p := range prefixes {
		if len(path) > len(p.prefix) && strings.HasPrefix(path, p.prefix) {
			suffix := ""
			// Проверяем суффиксы после UUID (36 символов)
			if len(path) > len(p.prefix)+36 {
				suffix = path[len(p.prefix)+36:]
			}
			switch suffix {
			case "/deliver":
				return p.result + "/deliver"
			case "/notify":
				return p.result + "/notify"
			case "/attachments":
				return p.result + "/attachments"
			case "/history":
				return p.result + "/history"
			case "/read":
				return p.result + "/read"
			case "/signed-url":
				return p.result + "/signed-url"
			default:
				return p.result
			}
		}
	}

	return path
}
