package sales_return

import (
	"strings"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/policy"
)

// ItemInput is a requested return line.
type ItemInput struct {
	TransactionItemID string
	Quantity          int64
	Reason            Reason
	IsDamaged         bool

	// IsResellable overrides the default of !IsDamaged.
	IsResellable *bool
}

func (in ItemInput) resellable() bool {
	if in.IsResellable != nil {
		return *in.IsResellable
	}
	return !in.IsDamaged
}

// CreateInput carries a return request.
type CreateInput struct {
	TransactionID string
	// OutletID defaults to the sale's outlet.
	OutletID         string
	CreatedBy        string
	Notes            string
	ReceiptPresented bool
	Items            []ItemInput
}

// Returned maps a sale line id to the quantity already returned against it
// by returns that still count (not cancelled or rejected).
type Returned map[string]int64

// ValidateCreate checks a request against the sale, prior returns and policy,
// collecting every violation. Items with no matching sale line are left for
// CalculateRefund to skip, but at least one item must match.
func ValidateCreate(in CreateInput, sale Sale, returned Returned, p policy.ReturnPolicy) domain.ValidationResult {
	var r domain.ValidationResult

	r.RequireNonBlank(in.TransactionID, "transaction id is required")
	if p.IsActive && p.RequireReceipt && !in.ReceiptPresented {
		r.Add("a receipt is required by the return policy")
	}
	if len(in.Items) == 0 {
		r.Add("at least one item is required")
		return r
	}

	seen := make(map[string]int, len(in.Items))
	matched := 0
	for i, item := range in.Items {
		n := i + 1
		itemID := strings.TrimSpace(item.TransactionItemID)
		if itemID == "" {
			r.Addf("item %d: transaction item id is required", n)
			continue
		}
		if prev, dup := seen[itemID]; dup {
			r.Addf("item %d: transaction item %s is already listed on item %d", n, itemID, prev)
			continue
		}
		seen[itemID] = n

		if item.Quantity <= 0 {
			r.Addf("item %d: quantity must be greater than 0", n)
		}
		if !item.Reason.IsValid() {
			r.Addf("item %d: reason must be one of %s", n, joinValues(Reasons))
		}

		line, ok := sale.Item(itemID)
		if !ok {
			continue
		}
		matched++

		if line.DiscountAmount > line.UnitPrice {
			r.Addf("item %d: discount %s exceeds original price %s for product %s",
				n, line.DiscountAmount, line.UnitPrice, line.ProductID)
		}
		remaining := line.Quantity - returned[line.ID]
		if item.Quantity > 0 && item.Quantity > remaining {
			r.Addf("item %d: cannot return %d of product %s: sold %d, already returned %d, returnable %d",
				n, item.Quantity, line.ProductID, line.Quantity, returned[line.ID], max(remaining, 0))
		}
	}

	if matched == 0 && r.Valid() {
		r.Add("no item matches a line of the original sale")
	}

	return r
}

// Products lists the catalog data of the sale lines the request refers to.
func (in CreateInput) Products(sale Sale) []policy.Product {
	var products []policy.Product
	for _, item := range in.Items {
		if line, ok := sale.Item(strings.TrimSpace(item.TransactionItemID)); ok {
			products = append(products, policy.Product{ProductID: line.ProductID, CategoryID: line.CategoryID})
		}
	}
	return products
}

// New validates in and builds the return. requiresApproval comes from the
// policy decision; the return starts in pending_approval when it is set and
// in approved otherwise.
func New(
	in CreateInput,
	sale Sale,
	returned Returned,
	p policy.ReturnPolicy,
	requiresApproval bool,
	number string,
	at time.Time,
) (*Return, domain.ValidationResult) {
	if r := ValidateCreate(in, sale, returned, p); !r.Valid() {
		return nil, r
	}

	outletID := strings.TrimSpace(in.OutletID)
	if outletID == "" {
		outletID = sale.OutletID
	}

	status := StatusApproved
	if requiresApproval {
		status = StatusPendingApproval
	}

	ret := &Return{
		Document:         entity.NewDocument(number, in.CreatedBy, at),
		TransactionID:    strings.TrimSpace(in.TransactionID),
		OutletID:         outletID,
		Status:           status,
		RequiresApproval: requiresApproval,
		ReceiptPresented: in.ReceiptPresented,
	}
	ret.Notes = in.Notes

	summary := CalculateRefund(sale, in.Items)
	byLine := make(map[string]ItemInput, len(in.Items))
	for _, item := range in.Items {
		byLine[strings.TrimSpace(item.TransactionItemID)] = item
	}

	ret.Items = make([]Item, 0, len(summary.Lines))
	for i, line := range summary.Lines {
		item := byLine[line.TransactionItemID]
		ret.Items = append(ret.Items, Item{
			LineID:            id.New(),
			LineNo:            i + 1,
			TransactionItemID: line.TransactionItemID,
			ProductID:         line.ProductID,
			Quantity:          line.Quantity,
			OriginalPrice:     line.OriginalPrice,
			DiscountAmount:    line.DiscountAmount,
			RefundAmount:      line.RefundAmount,
			Reason:            item.Reason,
			IsDamaged:         item.IsDamaged,
			IsResellable:      item.resellable(),
		})
	}
	ret.TotalRefund = summary.TotalRefund

	return ret, domain.ValidationResult{}
}
