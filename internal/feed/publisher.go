package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// Publisher публикует события в каналы Redis. Публикация — best-effort:
// сбой логируется и не влияет на вызвавшую операцию.
type Publisher struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewPublisher создаёт публикатор событий.
func NewPublisher(rdb *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		rdb:    rdb,
		logger: logger.With(slog.String("component", "feed_publisher")),
	}
}

// PublishAudit публикует запись журнала аудита в канал audit_logs.
func (p *Publisher) PublishAudit(ctx context.Context, e model.AuditLogEntry) {
	p.publish(ctx, ChannelAudit, toAuditEvent(e))
}

// PublishNotification публикует уведомление в канал notifications.
func (p *Publisher) PublishNotification(ctx context.Context, n model.Notification) {
	p.publish(ctx, ChannelNotifications, toNotificationEvent(n))
}

func (p *Publisher) publish(ctx context.Context, channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("Не удалось сериализовать событие ленты",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Warn("Не удалось опубликовать событие ленты",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// Ping проверяет соединение с Redis.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
