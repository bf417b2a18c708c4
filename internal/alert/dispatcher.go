package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/sentinel-secops/internal/domain"
	"github.com/xela07ax/sentinel-secops/internal/infra"
	"go.uber.org/zap"
)

// Dispatcher — best-effort доставка тревог во внешний sink.
// Провал доставки логируется и НИКОГДА не откатывает и не блокирует
// породившую операцию: корректность пайплайна от алертинга не зависит.
type Dispatcher interface {
	Notify(ctx context.Context, payload domain.AlertPayload) error
}

// RedisDispatcher публикует тревоги в Pub/Sub канал; на него подписан
// внешний notification-сервис (почта/мессенджеры — не наша зона).
type RedisDispatcher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisDispatcher(rdb *redis.Client, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{
		rdb:     rdb,
		channel: infra.RedisChanAlerts,
		logger:  logger.Named("alerts"),
	}
}

func (d *RedisDispatcher) Notify(ctx context.Context, payload domain.AlertPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("alert: marshal payload: %w", err)
	}

	if err := d.rdb.Publish(ctx, d.channel, raw).Err(); err != nil {
		d.logger.Error("alert delivery failed",
			zap.String("kind", string(payload.Kind)),
			zap.String("source_ip", payload.SourceIP),
			zap.Error(err))
		return fmt.Errorf("alert: publish: %w", err)
	}

	d.logger.Info("alert dispatched",
		zap.String("kind", string(payload.Kind)),
		zap.String("source_ip", payload.SourceIP))
	return nil
}
