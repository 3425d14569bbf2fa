// Package sales_return provides customer returns against a recorded sale:
// refund computation that keeps the original discounts, policy gating, and
// the pending_approval|approved → completed lifecycle.
package sales_return

import (
	"slices"
	"strings"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/fsm"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/registers/stock"
)

// DocumentType names returns in movements and audit events.
const DocumentType = "sales_return"

// Status of a return.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusCompleted       Status = "completed"
	StatusRejected        Status = "rejected"
	StatusCancelled       Status = "cancelled"
)

// Lifecycle is the return transition table.
var Lifecycle = fsm.New[Status](DocumentType, map[Status][]Status{
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:        {StatusCompleted, StatusCancelled},
})

// CountsAgainstSale reports whether a return in status s consumes returnable quantity.
func (s Status) CountsAgainstSale() bool {
	return s != StatusCancelled && s != StatusRejected
}

// Reason is why the customer brought the item back.
type Reason string

const (
	ReasonDamaged        Reason = "damaged"
	ReasonWrongProduct   Reason = "wrong_product"
	ReasonNotAsDescribed Reason = "not_as_described"
	ReasonChangedMind    Reason = "changed_mind"
	ReasonOther          Reason = "other"
)

// Reasons lists every accepted reason.
var Reasons = []Reason{ReasonDamaged, ReasonWrongProduct, ReasonNotAsDescribed, ReasonChangedMind, ReasonOther}

// IsValid reports whether r is a known reason.
func (r Reason) IsValid() bool { return slices.Contains(Reasons, r) }

// RefundMethod is how the money goes back to the customer.
type RefundMethod string

const (
	RefundCash            RefundMethod = "cash"
	RefundCard            RefundMethod = "card"
	RefundStoreCredit     RefundMethod = "store_credit"
	RefundOriginalPayment RefundMethod = "original_payment"
)

// RefundMethods lists every accepted refund method.
var RefundMethods = []RefundMethod{RefundCash, RefundCard, RefundStoreCredit, RefundOriginalPayment}

// IsValid reports whether m is a known refund method.
func (m RefundMethod) IsValid() bool { return slices.Contains(RefundMethods, m) }

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// Sale is the original transaction a return refers to. It is owned by the
// point-of-sale system and read-only here.
type Sale struct {
	ID       string     `db:"id" json:"id"`
	OutletID string     `db:"outlet_id" json:"outletId"`
	SaleDate time.Time  `db:"sale_date" json:"saleDate"`
	Items    []SaleItem `db:"-" json:"items"`
}

// SaleItem is one sold line. UnitPrice and DiscountAmount are per unit.
type SaleItem struct {
	ID             string           `db:"id" json:"id"`
	ProductID      string           `db:"product_id" json:"productId"`
	CategoryID     string           `db:"category_id" json:"categoryId,omitempty"`
	Quantity       int64            `db:"quantity" json:"quantity"`
	UnitPrice      types.MinorUnits `db:"unit_price" json:"unitPrice"`
	DiscountAmount types.MinorUnits `db:"discount_amount" json:"discountAmount"`
}

// Item looks up a sold line by id.
func (s Sale) Item(itemID string) (SaleItem, bool) {
	for _, it := range s.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return SaleItem{}, false
}

// Return is a customer return of items from one sale. Number is RTN-YYYYMMDD-####.
type Return struct {
	entity.Document

	TransactionID string `db:"transaction_id" json:"transactionId"`
	OutletID      string `db:"outlet_id" json:"outletId"`
	Status        Status `db:"status" json:"status"`

	TotalRefund  types.MinorUnits `db:"total_refund" json:"totalRefund"`
	RefundMethod RefundMethod     `db:"refund_method" json:"refundMethod,omitempty"`

	RequiresApproval bool       `db:"requires_approval" json:"requiresApproval"`
	ApprovedBy       string     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovalReason   string     `db:"approval_reason" json:"approvalReason,omitempty"`
	RejectedReason   string     `db:"rejected_reason" json:"rejectedReason,omitempty"`
	ReceiptPresented bool       `db:"receipt_presented" json:"receiptPresented"`
	CompletedAt      *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one returned line.
type Item struct {
	LineID            id.ID            `db:"line_id" json:"lineId"`
	LineNo            int              `db:"line_no" json:"lineNo"`
	TransactionItemID string           `db:"transaction_item_id" json:"transactionItemId"`
	ProductID         string           `db:"product_id" json:"productId"`
	Quantity          int64            `db:"quantity" json:"quantity"`
	OriginalPrice     types.MinorUnits `db:"original_price" json:"originalPrice"`
	DiscountAmount    types.MinorUnits `db:"discount_amount" json:"discountAmount"`
	RefundAmount      types.MinorUnits `db:"refund_amount" json:"refundAmount"`
	Reason            Reason           `db:"reason" json:"reason"`
	IsDamaged         bool             `db:"is_damaged" json:"isDamaged"`
	IsResellable      bool             `db:"is_resellable" json:"isResellable"`
}

// Keys lists the ledger entries completing r may increase.
func (r *Return) Keys() []stock.Key {
	keys := make([]stock.Key, 0, len(r.Items))
	for _, item := range r.Items {
		if item.IsResellable {
			keys = append(keys, stock.Key{OutletID: r.OutletID, ProductID: item.ProductID})
		}
	}
	return stock.SortKeys(keys)
}

// Clone returns a deep copy.
func (r Return) Clone() Return {
	out := r
	out.Items = slices.Clone(r.Items)
	out.ApprovedAt = cloneTime(r.ApprovedAt)
	out.CompletedAt = cloneTime(r.CompletedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
