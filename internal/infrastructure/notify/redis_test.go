package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/id"
	"backoffice/internal/infrastructure/metrics"
	"backoffice/internal/infrastructure/storage/postgres"
)

type fakePublisher struct {
	channel string
	message any
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message = message
	return redis.NewIntResult(1, f.err)
}

func message() *postgres.OutboxMessage {
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "stock_transfer",
		AggregateID:   id.New(),
		EventType:     "stock_transfer.completed",
		Payload:       []byte(`{"eventType":"completed"}`),
	}
}

func TestRedisPublisher_PublishesPayloadOnEventChannel(t *testing.T) {
	fake := &fakePublisher{}
	p := newRedisPublisher(fake, "")

	require.NoError(t, p.Handle(context.Background(), message()))
	assert.Equal(t, "backoffice.events.stock_transfer.completed", fake.channel)
	assert.Equal(t, []byte(`{"eventType":"completed"}`), fake.message)
}

func TestRedisPublisher_Error(t *testing.T) {
	fake := &fakePublisher{err: errors.New("connection reset")}
	p := newRedisPublisher(fake, "custom.")

	err := p.Handle(context.Background(), message())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom.stock_transfer.completed")
}

func TestObserved_PassesResultThrough(t *testing.T) {
	failing := postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		return errors.New("boom")
	})

	var m *metrics.Metrics
	err := Observed(failing, m).Handle(context.Background(), message())
	assert.EqualError(t, err, "boom")

	assert.NoError(t, Observed(LogHandler, m).Handle(context.Background(), message()))
}
