// Package purchase_order provides the Purchase Order document and its lifecycle:
// pending → approved → received, with cancellation from pending or approved.
package purchase_order

import (
	"slices"
	"strings"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/fsm"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain"
)

// DocumentType names purchase orders in movements and audit events.
const DocumentType = "purchase_order"

// Status of a purchase order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// Lifecycle is the purchase order transition table.
var Lifecycle = fsm.New[Status](DocumentType, map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusReceived, StatusCancelled},
})

// PurchaseOrder is an order placed with a supplier for delivery to an outlet.
// Number is PO-YYYYMMDD-####, Date is the order date.
type PurchaseOrder struct {
	entity.Document

	SupplierID string `db:"supplier_id" json:"supplierId"`
	UserID     string `db:"user_id" json:"userId"`

	// OutletID receives the goods
	OutletID string `db:"outlet_id" json:"outletId"`

	Status      Status           `db:"status" json:"status"`
	TotalAmount types.MinorUnits `db:"total_amount" json:"totalAmount"`

	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`
	ReceivedDate *time.Time `db:"received_date" json:"receivedDate,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one ordered product line.
type Item struct {
	LineID           id.ID            `db:"line_id" json:"lineId"`
	LineNo           int              `db:"line_no" json:"lineNo"`
	ProductID        string           `db:"product_id" json:"productId"`
	Quantity         int64            `db:"quantity" json:"quantity"`
	UnitPrice        types.MinorUnits `db:"unit_price" json:"unitPrice"`
	TotalPrice       types.MinorUnits `db:"total_price" json:"totalPrice"`
	ReceivedQuantity int64            `db:"received_quantity" json:"receivedQuantity"`
}

// ItemInput is a requested order line.
type ItemInput struct {
	ProductID string
	Quantity  int64
	UnitPrice types.MinorUnits
}

// CreateInput carries everything needed to open an order.
type CreateInput struct {
	SupplierID   string
	UserID       string
	OutletID     string
	OrderDate    time.Time
	ExpectedDate *time.Time
	Notes        string
	Items        []ItemInput
}

// ValidateCreate checks creation input and reports every violation.
func ValidateCreate(in CreateInput) domain.ValidationResult {
	var r domain.ValidationResult

	r.RequireNonBlank(in.SupplierID, "supplier id is required")
	r.RequireNonBlank(in.OutletID, "outlet id is required")

	if len(in.Items) == 0 {
		r.Add("at least one item is required")
	}

	seen := make(map[string]int, len(in.Items))
	for i, item := range in.Items {
		n := i + 1
		product := strings.TrimSpace(item.ProductID)
		if product == "" {
			r.Addf("item %d: product id is required", n)
		} else if first, dup := seen[product]; dup {
			r.Addf("item %d: product %s is already ordered on item %d", n, product, first)
		} else {
			seen[product] = n
		}
		if item.Quantity <= 0 {
			r.Addf("item %d: quantity must be greater than 0", n)
		}
		if item.UnitPrice < 0 {
			r.Addf("item %d: unit price cannot be negative", n)
		}
	}

	if in.ExpectedDate != nil && !in.OrderDate.IsZero() && in.ExpectedDate.Before(in.OrderDate) {
		r.Add("expected date cannot be before order date")
	}

	return r
}

// CalculateTotal is Σ quantity × unit price; zero for no items.
func CalculateTotal(items []ItemInput) types.MinorUnits {
	var total types.MinorUnits
	for _, item := range items {
		total += item.UnitPrice.Mul(item.Quantity)
	}
	return total
}

// New validates in and builds a pending order numbered number.
// Nothing is constructed when validation fails.
func New(in CreateInput, number string, at time.Time) (*PurchaseOrder, domain.ValidationResult) {
	if r := ValidateCreate(in); !r.Valid() {
		return nil, r
	}

	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = at
	}

	po := &PurchaseOrder{
		Document:     entity.NewDocument(number, in.UserID, at),
		SupplierID:   strings.TrimSpace(in.SupplierID),
		UserID:       in.UserID,
		OutletID:     strings.TrimSpace(in.OutletID),
		Status:       StatusPending,
		TotalAmount:  CalculateTotal(in.Items),
		ExpectedDate: in.ExpectedDate,
		Items:        make([]Item, 0, len(in.Items)),
	}
	po.Date = orderDate.UTC()
	po.Notes = in.Notes

	for i, item := range in.Items {
		po.Items = append(po.Items, Item{
			LineID:     id.New(),
			LineNo:     i + 1,
			ProductID:  strings.TrimSpace(item.ProductID),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.UnitPrice.Mul(item.Quantity),
		})
	}

	return po, domain.ValidationResult{}
}

// Clone returns a deep copy so lifecycle functions never alias the caller's items.
func (po PurchaseOrder) Clone() PurchaseOrder {
	out := po
	out.Items = slices.Clone(po.Items)
	if po.ExpectedDate != nil {
		d := *po.ExpectedDate
		out.ExpectedDate = &d
	}
	if po.ReceivedDate != nil {
		d := *po.ReceivedDate
		out.ReceivedDate = &d
	}
	return out
}

// ItemFor returns the line ordering productID.
func (po *PurchaseOrder) ItemFor(productID string) (Item, bool) {
	for _, item := range po.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}
