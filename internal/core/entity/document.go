package entity

import (
	"time"
)

// Document is the base type for numbered business documents
// (purchase orders, stock transfers, returns).
type Document struct {
	BaseDocument

	// Number is the date-scoped identifier (PREFIX-YYYYMMDD-####)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Notes is free text; lifecycles may append to it
	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(number, createdBy string, at time.Time) Document {
	return Document{
		BaseDocument: NewBaseDocument(createdBy, at),
		Number:       number,
		Date:         at.UTC(),
	}
}

// NotesSeparator joins appended note blocks.
const NotesSeparator = "\n---\n"

// AppendNote adds text to Notes, keeping existing content.
func (d *Document) AppendNote(text string) {
	if text == "" {
		return
	}
	if d.Notes == "" {
		d.Notes = text
		return
	}
	d.Notes = d.Notes + NotesSeparator + text
}
