// Package notify delivers outbox messages to subscribers.
package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"backoffice/internal/infrastructure/metrics"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// DefaultChannelPrefix namespaces published channels: "backoffice.events.stock_transfer.completed".
const DefaultChannelPrefix = "backoffice.events."

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes each message payload on a Redis pub/sub channel
// named after its event type.
type RedisPublisher struct {
	client publisher
	prefix string
}

var _ postgres.OutboxHandler = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher; an empty prefix uses DefaultChannelPrefix.
func NewRedisPublisher(client redis.Cmdable, prefix string) *RedisPublisher {
	return newRedisPublisher(client, prefix)
}

func newRedisPublisher(client publisher, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Handle implements postgres.OutboxHandler.
func (p *RedisPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	channel := p.prefix + msg.EventType
	receivers, err := p.client.Publish(ctx, channel, msg.Payload).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	logger.Debug(ctx, "outbox message published",
		"channel", channel,
		"message_id", msg.ID,
		"receivers", receivers,
	)
	return nil
}

// LogHandler writes each message to the log. Used when no broker is configured.
var LogHandler postgres.OutboxHandler = postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
	logger.Info(ctx, "outbox message",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
	)
	return nil
})

// Observed counts every delivery attempt of next.
func Observed(next postgres.OutboxHandler, m *metrics.Metrics) postgres.OutboxHandler {
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		err := next.Handle(ctx, msg)
		m.ObserveOutbox(err)
		return err
	})
}
