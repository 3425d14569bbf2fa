package entity

import (
	"time"

	"backoffice/internal/core/id"
)

// BaseEntity contains common fields for all persisted records.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// BumpVersion records a successful optimistic update.
func (b *BaseEntity) BumpVersion() {
	b.Version++
}

// BaseDocument extends BaseEntity with audit fields for documents.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument stamped at the given instant.
func NewBaseDocument(createdBy string, at time.Time) BaseDocument {
	at = at.UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  at,
		UpdatedAt:  at,
		CreatedBy:  createdBy,
		UpdatedBy:  createdBy,
	}
}

// Touch records a modification by actor at the given instant.
// Version is bumped by the repository on a successful update.
func (b *BaseDocument) Touch(actor string, at time.Time) {
	b.UpdatedAt = at.UTC()
	if actor != "" {
		b.UpdatedBy = actor
	}
}
