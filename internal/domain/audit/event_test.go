package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
)

func TestNewEvent_TakesActorFromContext(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-9"})
	docID := id.New()

	e := NewEvent(ctx, EventApproved, "stock_transfer", docID, "TRF-20260115-0001", map[string]any{"from": "pending"}, time.Now())

	assert.Equal(t, "u-9", e.ActorID)
	assert.Equal(t, docID, e.EntityID)
	assert.Equal(t, "pending", e.Details["from"])
}

func TestFanout(t *testing.T) {
	var got []string
	ok := SinkFunc(func(ctx context.Context, e Event) error {
		got = append(got, e.EventType)
		return nil
	})
	failing := SinkFunc(func(ctx context.Context, e Event) error { return errors.New("down") })

	err := Fanout(ok, nil, failing, ok).Record(context.Background(), Event{EventType: EventCreated})

	assert.EqualError(t, err, "down")
	assert.Equal(t, []string{EventCreated, EventCreated}, got)
	assert.NoError(t, Nop.Record(context.Background(), Event{}))
}
