package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_AppendNote(t *testing.T) {
	d := NewDocument("PO-20260115-0001", "u-1", time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	d.AppendNote("")
	assert.Equal(t, "", d.Notes)

	d.AppendNote("first")
	assert.Equal(t, "first", d.Notes)

	d.AppendNote("second")
	assert.Equal(t, "first"+NotesSeparator+"second", d.Notes)
}

func TestBaseDocument_Touch(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	d := NewBaseDocument("u-1", created)
	assert.Equal(t, 1, d.Version)
	assert.Equal(t, "u-1", d.UpdatedBy)

	later := created.Add(time.Hour)
	d.Touch("u-2", later)
	assert.Equal(t, later, d.UpdatedAt)
	assert.Equal(t, "u-2", d.UpdatedBy)
	assert.Equal(t, created, d.CreatedAt)

	d.Touch("", later.Add(time.Hour))
	assert.Equal(t, "u-2", d.UpdatedBy)
}
