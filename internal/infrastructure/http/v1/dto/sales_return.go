package dto

import (
	"time"

	"backoffice/internal/domain/documents/sales_return"
)

// --- Request DTOs ---

// CreateReturnRequest requests a return against a recorded sale.
type CreateReturnRequest struct {
	TransactionID    string              `json:"transactionId"`
	OutletID         string              `json:"outletId,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	ReceiptPresented bool                `json:"receiptPresented"`
	Items            []ReturnItemRequest `json:"items"`
}

// ReturnItemRequest is one returned sale line.
type ReturnItemRequest struct {
	TransactionItemID string `json:"transactionItemId"`
	Quantity          int64  `json:"quantity"`
	Reason            string `json:"reason"`
	IsDamaged         bool   `json:"isDamaged"`
	IsResellable      *bool  `json:"isResellable,omitempty"`
}

// ToInput converts the request.
func (r *CreateReturnRequest) ToInput() sales_return.CreateInput {
	in := sales_return.CreateInput{
		TransactionID:    r.TransactionID,
		OutletID:         r.OutletID,
		Notes:            r.Notes,
		ReceiptPresented: r.ReceiptPresented,
		Items:            make([]sales_return.ItemInput, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		in.Items = append(in.Items, sales_return.ItemInput{
			TransactionItemID: item.TransactionItemID,
			Quantity:          item.Quantity,
			Reason:            sales_return.Reason(item.Reason),
			IsDamaged:         item.IsDamaged,
			IsResellable:      item.IsResellable,
		})
	}
	return in
}

// CompleteReturnRequest pays out a return.
type CompleteReturnRequest struct {
	RefundMethod string `json:"refundMethod" binding:"required"`
}

// --- Response DTOs ---

// ReturnResponse is the API view of a return.
type ReturnResponse struct {
	DocumentResponse
	TransactionID    string               `json:"transactionId"`
	OutletID         string               `json:"outletId"`
	Status           string               `json:"status"`
	TotalRefund      Money                `json:"totalRefund"`
	RefundMethod     string               `json:"refundMethod,omitempty"`
	RequiresApproval bool                 `json:"requiresApproval"`
	ApprovedBy       string               `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time           `json:"approvedAt,omitempty"`
	ApprovalReason   string               `json:"approvalReason,omitempty"`
	RejectedReason   string               `json:"rejectedReason,omitempty"`
	ReceiptPresented bool                 `json:"receiptPresented"`
	CompletedAt      *time.Time           `json:"completedAt,omitempty"`
	Items            []ReturnItemResponse `json:"items"`
}

// ReturnItemResponse is one returned line.
type ReturnItemResponse struct {
	LineNo            int    `json:"lineNo"`
	TransactionItemID string `json:"transactionItemId"`
	ProductID         string `json:"productId"`
	Quantity          int64  `json:"quantity"`
	OriginalPrice     Money  `json:"originalPrice"`
	DiscountAmount    Money  `json:"discountAmount"`
	RefundAmount      Money  `json:"refundAmount"`
	Reason            string `json:"reason"`
	IsDamaged         bool   `json:"isDamaged"`
	IsResellable      bool   `json:"isResellable"`
}

// FromReturn converts a return.
func FromReturn(r *sales_return.Return) ReturnResponse {
	items := make([]ReturnItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ReturnItemResponse{
			LineNo:            item.LineNo,
			TransactionItemID: item.TransactionItemID,
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			OriginalPrice:     NewMoney(item.OriginalPrice),
			DiscountAmount:    NewMoney(item.DiscountAmount),
			RefundAmount:      NewMoney(item.RefundAmount),
			Reason:            string(item.Reason),
			IsDamaged:         item.IsDamaged,
			IsResellable:      item.IsResellable,
		})
	}
	return ReturnResponse{
		DocumentResponse: FromDocument(r.Document),
		TransactionID:    r.TransactionID,
		OutletID:         r.OutletID,
		Status:           string(r.Status),
		TotalRefund:      NewMoney(r.TotalRefund),
		RefundMethod:     string(r.RefundMethod),
		RequiresApproval: r.RequiresApproval,
		ApprovedBy:       r.ApprovedBy,
		ApprovedAt:       r.ApprovedAt,
		ApprovalReason:   r.ApprovalReason,
		RejectedReason:   r.RejectedReason,
		ReceiptPresented: r.ReceiptPresented,
		CompletedAt:      r.CompletedAt,
		Items:            items,
	}
}

// CompleteReturnResponse is a completed return and its restock movements.
type CompleteReturnResponse struct {
	Return    ReturnResponse     `json:"return"`
	Movements []MovementResponse `json:"movements"`
}

// FromCompleteReturn converts a completion outcome.
func FromCompleteReturn(r *sales_return.CompleteResult) CompleteReturnResponse {
	return CompleteReturnResponse{
		Return:    FromReturn(&r.Return),
		Movements: FromMovements(r.Movements),
	}
}

// RefundLineResponse is the refund for one previewed line.
type RefundLineResponse struct {
	TransactionItemID string `json:"transactionItemId"`
	ProductID         string `json:"productId"`
	CategoryID        string `json:"categoryId,omitempty"`
	Quantity          int64  `json:"quantity"`
	OriginalPrice     Money  `json:"originalPrice"`
	DiscountAmount    Money  `json:"discountAmount"`
	RefundAmount      Money  `json:"refundAmount"`
}

// PreviewResponse is a prospective return's refund and policy outcome.
type PreviewResponse struct {
	Subtotal         Money                `json:"subtotal"`
	TotalDiscount    Money                `json:"totalDiscount"`
	TotalRefund      Money                `json:"totalRefund"`
	Lines            []RefundLineResponse `json:"lines"`
	Skipped          []string             `json:"skipped,omitempty"`
	Allowed          bool                 `json:"allowed"`
	RequiresApproval bool                 `json:"requiresApproval"`
	DaysSinceSale    int                  `json:"daysSinceSale"`
	BlockedProductID string               `json:"blockedProductId,omitempty"`
	BlockedCategory  string               `json:"blockedCategoryId,omitempty"`
	PolicyName       string               `json:"policyName"`
	MaxReturnDays    int                  `json:"maxReturnDays"`
}

// FromPreview converts a preview.
func FromPreview(p *sales_return.Preview) PreviewResponse {
	lines := make([]RefundLineResponse, 0, len(p.Refund.Lines))
	for _, l := range p.Refund.Lines {
		lines = append(lines, RefundLineResponse{
			TransactionItemID: l.TransactionItemID,
			ProductID:         l.ProductID,
			CategoryID:        l.CategoryID,
			Quantity:          l.Quantity,
			OriginalPrice:     NewMoney(l.OriginalPrice),
			DiscountAmount:    NewMoney(l.DiscountAmount),
			RefundAmount:      NewMoney(l.RefundAmount),
		})
	}
	return PreviewResponse{
		Subtotal:         NewMoney(p.Refund.Subtotal),
		TotalDiscount:    NewMoney(p.Refund.TotalDiscount),
		TotalRefund:      NewMoney(p.Refund.TotalRefund),
		Lines:            lines,
		Skipped:          p.Refund.Skipped,
		Allowed:          p.Decision.Allowed,
		RequiresApproval: p.Decision.RequiresApproval,
		DaysSinceSale:    p.Decision.DaysSinceSale,
		BlockedProductID: p.Decision.BlockedProductID,
		BlockedCategory:  p.Decision.BlockedCategoryID,
		PolicyName:       p.Policy.Name,
		MaxReturnDays:    p.Policy.MaxReturnDays,
	}
}
