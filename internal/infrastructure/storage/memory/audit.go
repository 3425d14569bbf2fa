package memory

import (
	"context"
	"maps"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/audit"
)

var (
	_ audit.Sink   = (*AuditLog)(nil)
	_ audit.Reader = (*AuditLog)(nil)
)

// AuditLog keeps events alongside the documents, so they roll back together.
type AuditLog struct {
	db *DB
}

// Audit returns the audit log.
func (db *DB) Audit() *AuditLog {
	return &AuditLog{db: db}
}

func (a *AuditLog) Record(ctx context.Context, event audit.Event) error {
	event.Details = maps.Clone(event.Details)
	return a.db.write(func(s *state) error {
		s.events = append(s.events, event)
		return nil
	})
}

func (a *AuditLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []audit.Event{}
	a.db.read(func(s *state) {
		for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
			e := s.events[i]
			if e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

// Events returns every recorded event in order.
func (a *AuditLog) Events() []audit.Event {
	var out []audit.Event
	a.db.read(func(s *state) { out = append(out, s.events...) })
	return out
}
