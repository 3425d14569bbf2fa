// Package audit defines the lifecycle facts emitted by document services and
// the sinks that persist or relay them.
package audit

import (
	"context"
	"errors"
	"time"

	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
)

// Event types emitted by the lifecycles.
const (
	EventCreated   = "created"
	EventApproved  = "approved"
	EventRejected  = "rejected"
	EventCancelled = "cancelled"
	EventReceived  = "received"
	EventCompleted = "completed"
)

// Event is a single auditable fact: (eventType, entityType, entityId, details).
type Event struct {
	EventType  string         `json:"eventType"`
	EntityType string         `json:"entityType"`
	EntityID   id.ID          `json:"entityId"`
	Number     string         `json:"number,omitempty"`
	ActorID    string         `json:"actorId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewEvent builds an event attributed to the actor found in ctx.
func NewEvent(ctx context.Context, eventType, entityType string, entityID id.ID, number string, details map[string]any, at time.Time) Event {
	return Event{
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Number:     number,
		ActorID:    appctx.GetUserID(ctx),
		Details:    details,
		OccurredAt: at.UTC(),
	}
}

// Sink persists events.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

// Record implements Sink.
func (f SinkFunc) Record(ctx context.Context, event Event) error { return f(ctx, event) }

// Nop discards every event.
var Nop Sink = SinkFunc(func(context.Context, Event) error { return nil })

// Fanout records to every sink, joining their errors.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, event Event) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Record(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Reader returns the recorded history of one entity, newest first.
type Reader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Event, error)
}
