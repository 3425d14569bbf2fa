// Package stock_transfer provides inter-outlet stock transfers:
// pending → approved → completed, with cancellation before completion.
package stock_transfer

import (
	"slices"
	"strings"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/fsm"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/registers/stock"
)

// DocumentType names transfers in movements and audit events.
const DocumentType = "stock_transfer"

// Status of a stock transfer.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Lifecycle is the transfer transition table.
var Lifecycle = fsm.New[Status](DocumentType, map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled},
})

// StockTransfer moves goods between two outlets. Stock is untouched until completion.
type StockTransfer struct {
	entity.Document

	SourceOutletID      string `db:"source_outlet_id" json:"sourceOutletId"`
	DestinationOutletID string `db:"destination_outlet_id" json:"destinationOutletId"`
	Status              Status `db:"status" json:"status"`

	ApprovedBy  string     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one product line of a transfer.
type Item struct {
	LineID    id.ID  `db:"line_id" json:"lineId"`
	LineNo    int    `db:"line_no" json:"lineNo"`
	ProductID string `db:"product_id" json:"productId"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

// ItemInput is a requested transfer line.
type ItemInput struct {
	ProductID string
	Quantity  int64
}

// CreateInput carries a transfer request.
type CreateInput struct {
	SourceOutletID      string
	DestinationOutletID string
	CreatedBy           string
	Notes               string
	Items               []ItemInput
}

// Normalize returns a copy of in with outlet and product ids trimmed.
func (in CreateInput) Normalize() CreateInput {
	out := in
	out.SourceOutletID = strings.TrimSpace(in.SourceOutletID)
	out.DestinationOutletID = strings.TrimSpace(in.DestinationOutletID)
	out.Items = make([]ItemInput, len(in.Items))
	for i, item := range in.Items {
		out.Items[i] = ItemInput{ProductID: strings.TrimSpace(item.ProductID), Quantity: item.Quantity}
	}
	return out
}

// Keys lists the ledger entries a transfer touches on both sides.
func (in CreateInput) Keys() []stock.Key {
	in = in.Normalize()
	keys := make([]stock.Key, 0, 2*len(in.Items))
	for _, item := range in.Items {
		keys = append(keys,
			stock.Key{OutletID: in.SourceOutletID, ProductID: item.ProductID},
			stock.Key{OutletID: in.DestinationOutletID, ProductID: item.ProductID},
		)
	}
	return stock.SortKeys(keys)
}

// ValidateCreate checks a request against the ledger and reports every violation.
// Each item is checked on its own against the source balance.
func ValidateCreate(in CreateInput, ledger stock.Ledger) domain.ValidationResult {
	var r domain.ValidationResult

	source := strings.TrimSpace(in.SourceOutletID)
	destination := strings.TrimSpace(in.DestinationOutletID)

	r.RequireNonBlank(source, "source outlet id is required")
	r.RequireNonBlank(destination, "destination outlet id is required")
	if source != "" && source == destination {
		r.Add("destination outlet must differ from source outlet")
	}

	if len(in.Items) == 0 {
		r.Add("at least one item is required")
	}

	for i, item := range in.Items {
		n := i + 1
		product := strings.TrimSpace(item.ProductID)
		if product == "" {
			r.Addf("item %d: product id is required", n)
			continue
		}
		if item.Quantity <= 0 {
			r.Addf("item %d: transfer quantity must be greater than 0", n)
			continue
		}
		if available := ledger.Get(source, product); available < item.Quantity {
			r.Addf("item %d: insufficient stock for product %s: available %d, requested %d",
				n, product, available, item.Quantity)
			r.AddDetail("shortages", stock.Shortage{
				OutletID:  source,
				ProductID: product,
				Available: available,
				Requested: item.Quantity,
			})
		}
	}

	return r
}

// New validates in against ledger and builds a pending transfer.
func New(in CreateInput, ledger stock.Ledger, number string, at time.Time) (*StockTransfer, domain.ValidationResult) {
	if r := ValidateCreate(in, ledger); !r.Valid() {
		return nil, r
	}

	t := &StockTransfer{
		Document:            entity.NewDocument(number, in.CreatedBy, at),
		SourceOutletID:      strings.TrimSpace(in.SourceOutletID),
		DestinationOutletID: strings.TrimSpace(in.DestinationOutletID),
		Status:              StatusPending,
		Items:               make([]Item, 0, len(in.Items)),
	}
	t.Notes = in.Notes

	for i, item := range in.Items {
		t.Items = append(t.Items, Item{
			LineID:    id.New(),
			LineNo:    i + 1,
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
		})
	}

	return t, domain.ValidationResult{}
}

// Keys lists the ledger entries the transfer touches on both sides.
func (t *StockTransfer) Keys() []stock.Key {
	keys := make([]stock.Key, 0, 2*len(t.Items))
	for _, item := range t.Items {
		keys = append(keys,
			stock.Key{OutletID: t.SourceOutletID, ProductID: item.ProductID},
			stock.Key{OutletID: t.DestinationOutletID, ProductID: item.ProductID},
		)
	}
	return stock.SortKeys(keys)
}

// Clone returns a deep copy.
func (t StockTransfer) Clone() StockTransfer {
	out := t
	out.Items = slices.Clone(t.Items)
	out.ApprovedAt = cloneTime(t.ApprovedAt)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.CancelledAt = cloneTime(t.CancelledAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
