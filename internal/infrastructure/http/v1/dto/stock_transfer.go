package dto

import (
	"time"

	"backoffice/internal/domain/documents/stock_transfer"
)

// CreateStockTransferRequest requests goods to move between outlets.
type CreateStockTransferRequest struct {
	SourceOutletID      string                     `json:"sourceOutletId"`
	DestinationOutletID string                     `json:"destinationOutletId"`
	Notes               string                     `json:"notes,omitempty"`
	Items               []StockTransferItemRequest `json:"items"`
}

// StockTransferItemRequest is one product line.
type StockTransferItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// ToInput converts the request.
func (r *CreateStockTransferRequest) ToInput() stock_transfer.CreateInput {
	in := stock_transfer.CreateInput{
		SourceOutletID:      r.SourceOutletID,
		DestinationOutletID: r.DestinationOutletID,
		Notes:               r.Notes,
		Items:               make([]stock_transfer.ItemInput, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		in.Items = append(in.Items, stock_transfer.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return in
}

// StockTransferResponse is the API view of a transfer.
type StockTransferResponse struct {
	DocumentResponse
	SourceOutletID      string                      `json:"sourceOutletId"`
	DestinationOutletID string                      `json:"destinationOutletId"`
	Status              string                      `json:"status"`
	ApprovedBy          string                      `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time                  `json:"approvedAt,omitempty"`
	CompletedAt         *time.Time                  `json:"completedAt,omitempty"`
	CancelledAt         *time.Time                  `json:"cancelledAt,omitempty"`
	Items               []StockTransferItemResponse `json:"items"`
}

// StockTransferItemResponse is one transfer line.
type StockTransferItemResponse struct {
	LineNo    int    `json:"lineNo"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// FromStockTransfer converts a transfer.
func FromStockTransfer(t *stock_transfer.StockTransfer) StockTransferResponse {
	items := make([]StockTransferItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, StockTransferItemResponse{LineNo: item.LineNo, ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return StockTransferResponse{
		DocumentResponse:    FromDocument(t.Document),
		SourceOutletID:      t.SourceOutletID,
		DestinationOutletID: t.DestinationOutletID,
		Status:              string(t.Status),
		ApprovedBy:          t.ApprovedBy,
		ApprovedAt:          t.ApprovedAt,
		CompletedAt:         t.CompletedAt,
		CancelledAt:         t.CancelledAt,
		Items:               items,
	}
}

// CompleteTransferResponse is a completed transfer and its movements.
type CompleteTransferResponse struct {
	Transfer  StockTransferResponse `json:"transfer"`
	Movements []MovementResponse    `json:"movements"`
}

// FromCompleteTransfer converts a completion outcome.
func FromCompleteTransfer(r *stock_transfer.CompleteResult) CompleteTransferResponse {
	return CompleteTransferResponse{
		Transfer:  FromStockTransfer(&r.Transfer),
		Movements: FromMovements(r.Movements),
	}
}
