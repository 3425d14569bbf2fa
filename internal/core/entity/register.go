// Package entity provides core domain entities.
package entity

import (
	"time"

	"backoffice/internal/core/id"
)

// MovementType classifies a stock movement fact.
type MovementType string

const (
	MovementIn          MovementType = "in"
	MovementOut         MovementType = "out"
	MovementTransferOut MovementType = "transfer_out"
	MovementTransferIn  MovementType = "transfer_in"
	MovementReturn      MovementType = "return"
)

// StockMovement is an immutable fact recorded whenever the stock ledger changes.
// Quantity is signed: positive increases the balance, negative decreases it.
type StockMovement struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type ("purchase_order", "stock_transfer", "sales_return")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// RecorderNumber is the document's human identifier
	RecorderNumber string `db:"recorder_number" json:"recorderNumber"`

	Type      MovementType `db:"movement_type" json:"type"`
	OutletID  string       `db:"outlet_id" json:"outletId"`
	ProductID string       `db:"product_id" json:"productId"`
	Quantity  int64        `db:"quantity" json:"quantity"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a new stock movement with generated LineID.
func NewStockMovement(
	recorderID id.ID,
	recorderType, recorderNumber string,
	movementType MovementType,
	outletID, productID string,
	quantity int64,
	createdBy string,
	at time.Time,
) StockMovement {
	return StockMovement{
		LineID:         id.New(),
		RecorderID:     recorderID,
		RecorderType:   recorderType,
		RecorderNumber: recorderNumber,
		Type:           movementType,
		OutletID:       outletID,
		ProductID:      productID,
		Quantity:       quantity,
		CreatedBy:      createdBy,
		CreatedAt:      at.UTC(),
	}
}

// StockBalance is the persisted ledger row for one (outlet, product).
type StockBalance struct {
	OutletID  string    `db:"outlet_id" json:"outletId"`
	ProductID string    `db:"product_id" json:"productId"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
