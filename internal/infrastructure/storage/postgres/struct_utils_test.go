package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/core/entity"
)

type mockDocument struct {
	entity.Document
	OutletID string   `db:"outlet_id"`
	Items    []string `db:"-"`
	scratch  int
}

func TestExtractDBColumns_EmbeddedDocument(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	for _, expected := range []string{
		"id", "version", "created_at", "updated_at", "created_by", "updated_by",
		"number", "date", "notes", "outlet_id",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "items")
}

func TestStructToMap_EmbeddedDocument(t *testing.T) {
	at := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	doc := mockDocument{
		Document: entity.NewDocument("TRF-20260115-0001", "u-1", at),
		OutletID: "outlet-1",
		Items:    []string{"ignored"},
		scratch:  1,
	}
	doc.Version = 5

	m := StructToMap(&doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "TRF-20260115-0001", m["number"])
	assert.Equal(t, at, m["date"])
	assert.Equal(t, "outlet-1", m["outlet_id"])
	assert.NotContains(t, m, "items")
	assert.Len(t, m, 10)
}
