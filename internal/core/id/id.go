// Package id generates resource ids. Ids are UUIDv7, so they sort by creation time.
package id

import (
	"github.com/google/uuid"
)

// ID identifies documents, movements and audit events.
type ID = uuid.UUID

// New returns a UUIDv7. It falls back to a random v4 id when the clock
// source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse reads an id from its canonical string form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

func Nil() ID { return uuid.Nil }

func IsNil(v ID) bool { return v == uuid.Nil }
