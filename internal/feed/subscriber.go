package feed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
)

// Размеры лент соответствуют лимитам первоначальных выборок API.
const (
	auditViewCap        = 50
	notificationViewCap = 200
)

// Subscriber слушает каналы Redis и поддерживает свежие ленты
// журнала аудита и уведомлений в памяти процесса.
type Subscriber struct {
	rdb    *redis.Client
	logger *slog.Logger

	audit         *View[model.AuditLogEntry]
	notifications *View[model.Notification]
}

// NewSubscriber создаёт подписчик с пустыми лентами.
func NewSubscriber(rdb *redis.Client, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		rdb:    rdb,
		logger: logger.With(slog.String("component", "feed_subscriber")),
		audit: NewView(func(e model.AuditLogEntry) uuid.UUID { return e.ID },
			auditViewCap),
		notifications: NewView(func(n model.Notification) uuid.UUID { return n.ID },
			notificationViewCap),
	}
}

// Audit возвращает ленту журнала аудита.
func (s *Subscriber) Audit() *View[model.AuditLogEntry] { return s.audit }

// Notifications возвращает ленту уведомлений.
func (s *Subscriber) Notifications() *View[model.Notification] { return s.notifications }

// Run подписывается на каналы и сливает входящие события до отмены
// контекста. Блокирует вызвавшую горутину.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.rdb.Subscribe(ctx, ChannelAudit, ChannelNotifications)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}

	s.logger.Info("Подписка на ленту событий открыта",
		slog.String("channels", ChannelAudit+","+ChannelNotifications),
	)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(msg.Channel, []byte(msg.Payload))
		}
	}
}

// handle разбирает и вливает одно событие. Вынесено из Run, чтобы
// слияние тестировалось без Redis.
func (s *Subscriber) handle(channel string, payload []byte) {
	switch channel {
	case ChannelAudit:
		var ev auditEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.warnDecode(channel, err)
			return
		}
		s.audit.Merge(ev.toModel())
	case ChannelNotifications:
		var ev notificationEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.warnDecode(channel, err)
			return
		}
		s.notifications.Merge(ev.toModel())
	default:
		s.logger.Warn("Событие из неизвестного канала проигнорировано",
			slog.String("channel", channel),
		)
	}
}

func (s *Subscriber) warnDecode(channel string, err error) {
	s.logger.Warn("Не удалось разобрать событие ленты",
		slog.String("channel", channel),
		slog.String("error", err.Error()),
	)
}
