// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/types"
	"backoffice/internal/domain"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a domain page through fn.
func NewListResponse[S, T any](result domain.ListResult[S], fn func(S) T) ListResponse[T] {
	items := make([]T, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, fn(item))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
}

// --- Base DTOs ---

// DocumentResponse contains the fields every numbered document shares.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	Version   int       `json:"version"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDocument creates DocumentResponse from entity.Document.
func FromDocument(d entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID.String(),
		Number:    d.Number,
		Date:      d.Date,
		Notes:     d.Notes,
		Version:   d.Version,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Money renders minor units both raw and as a decimal string.
type Money struct {
	Minor   int64  `json:"minor"`
	Display string `json:"display"`
}

// NewMoney converts an amount for output.
func NewMoney(m types.MinorUnits) Money {
	return Money{Minor: int64(m), Display: m.String()}
}

// --- Movements ---

// MovementResponse is one stock movement.
type MovementResponse struct {
	LineID         string    `json:"lineId"`
	RecorderID     string    `json:"recorderId"`
	RecorderType   string    `json:"recorderType"`
	RecorderNumber string    `json:"recorderNumber"`
	Type           string    `json:"type"`
	OutletID       string    `json:"outletId"`
	ProductID      string    `json:"productId"`
	Quantity       int64     `json:"quantity"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FromMovement converts a movement.
func FromMovement(m entity.StockMovement) MovementResponse {
	return MovementResponse{
		LineID:         m.LineID.String(),
		RecorderID:     m.RecorderID.String(),
		RecorderType:   m.RecorderType,
		RecorderNumber: m.RecorderNumber,
		Type:           string(m.Type),
		OutletID:       m.OutletID,
		ProductID:      m.ProductID,
		Quantity:       m.Quantity,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// FromMovements converts a slice of movements; nil becomes empty.
func FromMovements(ms []entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromMovement(m))
	}
	return out
}

// --- Requests ---

// ReasonRequest carries an optional free-text reason (cancel, approve, reject).
type ReasonRequest struct {
	Reason string `json:"reason"`
}
