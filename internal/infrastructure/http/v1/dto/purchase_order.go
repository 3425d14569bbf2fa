package dto

import (
	"time"

	"backoffice/internal/core/types"
	"backoffice/internal/domain/documents/purchase_order"
)

// --- Request DTOs ---

// CreatePurchaseOrderRequest opens a purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID   string                     `json:"supplierId"`
	OutletID     string                     `json:"outletId"`
	OrderDate    *time.Time                 `json:"orderDate,omitempty"`
	ExpectedDate *time.Time                 `json:"expectedDate,omitempty"`
	Notes        string                     `json:"notes,omitempty"`
	Items        []PurchaseOrderItemRequest `json:"items"`
}

// PurchaseOrderItemRequest is one ordered line. UnitPrice is in minor units.
type PurchaseOrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// ToInput converts the request; the user is taken from the request context.
func (r *CreatePurchaseOrderRequest) ToInput() purchase_order.CreateInput {
	in := purchase_order.CreateInput{
		SupplierID:   r.SupplierID,
		OutletID:     r.OutletID,
		ExpectedDate: r.ExpectedDate,
		Notes:        r.Notes,
		Items:        make([]purchase_order.ItemInput, 0, len(r.Items)),
	}
	if r.OrderDate != nil {
		in.OrderDate = *r.OrderDate
	}
	for _, item := range r.Items {
		in.Items = append(in.Items, purchase_order.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: types.MinorUnits(item.UnitPrice),
		})
	}
	return in
}

// ReceivePurchaseOrderRequest lists delivered quantities.
type ReceivePurchaseOrderRequest struct {
	Items []ReceivedItemRequest `json:"items" binding:"required"`
}

// ReceivedItemRequest is one delivered product.
type ReceivedItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

// ToReceived converts the request.
func (r *ReceivePurchaseOrderRequest) ToReceived() []purchase_order.ReceivedItem {
	out := make([]purchase_order.ReceivedItem, 0, len(r.Items))
	for _, item := range r.Items {
		out = append(out, purchase_order.ReceivedItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

// --- Response DTOs ---

// PurchaseOrderResponse is the API view of an order.
type PurchaseOrderResponse struct {
	DocumentResponse
	SupplierID   string                      `json:"supplierId"`
	UserID       string                      `json:"userId"`
	OutletID     string                      `json:"outletId"`
	Status       string                      `json:"status"`
	TotalAmount  Money                       `json:"totalAmount"`
	ExpectedDate *time.Time                  `json:"expectedDate,omitempty"`
	ReceivedDate *time.Time                  `json:"receivedDate,omitempty"`
	Items        []PurchaseOrderItemResponse `json:"items"`
}

// PurchaseOrderItemResponse is one order line.
type PurchaseOrderItemResponse struct {
	LineNo           int    `json:"lineNo"`
	ProductID        string `json:"productId"`
	Quantity         int64  `json:"quantity"`
	UnitPrice        Money  `json:"unitPrice"`
	TotalPrice       Money  `json:"totalPrice"`
	ReceivedQuantity int64  `json:"receivedQuantity"`
}

// FromPurchaseOrder converts an order.
func FromPurchaseOrder(po *purchase_order.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(po.Items))
	for _, item := range po.Items {
		items = append(items, PurchaseOrderItemResponse{
			LineNo:           item.LineNo,
			ProductID:        item.ProductID,
			Quantity:         item.Quantity,
			UnitPrice:        NewMoney(item.UnitPrice),
			TotalPrice:       NewMoney(item.TotalPrice),
			ReceivedQuantity: item.ReceivedQuantity,
		})
	}
	return PurchaseOrderResponse{
		DocumentResponse: FromDocument(po.Document),
		SupplierID:       po.SupplierID,
		UserID:           po.UserID,
		OutletID:         po.OutletID,
		Status:           string(po.Status),
		TotalAmount:      NewMoney(po.TotalAmount),
		ExpectedDate:     po.ExpectedDate,
		ReceivedDate:     po.ReceivedDate,
		Items:            items,
	}
}

// ReceiveResponse is an order after receiving, with the discrepancy report.
type ReceiveResponse struct {
	Order       PurchaseOrderResponse            `json:"order"`
	Discrepancy purchase_order.DiscrepancyReport `json:"discrepancy"`
	Movements   []MovementResponse               `json:"movements"`
}

// FromReceiveResult converts a receive outcome.
func FromReceiveResult(r *purchase_order.ReceiveResult) ReceiveResponse {
	return ReceiveResponse{
		Order:       FromPurchaseOrder(&r.Order),
		Discrepancy: r.Discrepancy,
		Movements:   FromMovements(r.Movements),
	}
}
