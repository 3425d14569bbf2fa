package purchase_order

import (
	"fmt"
	"strings"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/domain"
	"backoffice/internal/domain/registers/stock"
)

// ReceivedItem is the quantity of one product actually delivered.
type ReceivedItem struct {
	ProductID string
	Quantity  int64
}

// DiscrepancyLine compares ordered and received quantity for one product.
type DiscrepancyLine struct {
	ProductID  string `json:"productId"`
	Ordered    int64  `json:"ordered"`
	Received   int64  `json:"received"`
	Difference int64  `json:"difference"` // received - ordered
}

// Kind is "surplus", "shortage" or "" when quantities match.
func (l DiscrepancyLine) Kind() string {
	switch {
	case l.Difference > 0:
		return "surplus"
	case l.Difference < 0:
		return "shortage"
	default:
		return ""
	}
}

// DiscrepancyReport covers every order line.
type DiscrepancyReport struct {
	HasDiscrepancy bool              `json:"hasDiscrepancy"`
	Lines          []DiscrepancyLine `json:"lines"`
}

// CheckDiscrepancy compares items with received quantities.
// Products missing from received count as received at 0.
func CheckDiscrepancy(items []Item, received []ReceivedItem) DiscrepancyReport {
	got := make(map[string]int64, len(received))
	for _, r := range received {
		got[r.ProductID] += r.Quantity
	}

	report := DiscrepancyReport{Lines: make([]DiscrepancyLine, 0, len(items))}
	for _, item := range items {
		line := DiscrepancyLine{
			ProductID: item.ProductID,
			Ordered:   item.Quantity,
			Received:  got[item.ProductID],
		}
		line.Difference = line.Received - line.Ordered
		if line.Difference != 0 {
			report.HasDiscrepancy = true
		}
		report.Lines = append(report.Lines, line)
	}
	return report
}

// Note renders the mismatched lines for the order notes, empty when none.
func (r DiscrepancyReport) Note() string {
	if !r.HasDiscrepancy {
		return ""
	}
	var b strings.Builder
	b.WriteString("Discrepancy on receipt:")
	for _, l := range r.Lines {
		if l.Difference == 0 {
			continue
		}
		diff := l.Difference
		if diff < 0 {
			diff = -diff
		}
		fmt.Fprintf(&b, "\n- product %s: ordered %d, received %d, %s %d",
			l.ProductID, l.Ordered, l.Received, l.Kind(), diff)
	}
	return b.String()
}

// ValidateReceive checks a receive request against po and reports every violation.
func ValidateReceive(po PurchaseOrder, received []ReceivedItem) domain.ValidationResult {
	var r domain.ValidationResult

	if len(received) == 0 {
		r.Add("at least one received item is required")
	}

	seen := make(map[string]bool, len(received))
	for i, item := range received {
		n := i + 1
		if strings.TrimSpace(item.ProductID) == "" {
			r.Addf("received item %d: product id is required", n)
			continue
		}
		if _, ok := po.ItemFor(item.ProductID); !ok {
			r.Addf("received item %d: product %s is not part of this order", n, item.ProductID)
		}
		if seen[item.ProductID] {
			r.Addf("received item %d: product %s is listed more than once", n, item.ProductID)
		}
		seen[item.ProductID] = true
		if item.Quantity < 0 {
			r.Addf("received item %d: quantity for product %s cannot be negative", n, item.ProductID)
		}
	}

	return r
}

// ReceiveResult is the new order and ledger state after receiving.
type ReceiveResult struct {
	Order       PurchaseOrder          `json:"order"`
	Ledger      stock.Ledger           `json:"-"`
	Movements   []entity.StockMovement `json:"movements"`
	Discrepancy DiscrepancyReport      `json:"discrepancy"`
}

// Receive books delivered quantities against an approved order.
//
// Every order line takes its received quantity (0 when not listed), mismatches
// are appended to the notes, and each line received above zero adds exactly
// that quantity to the ledger at the order's outlet with an "in" movement.
// Neither po nor ledger is modified.
func Receive(po PurchaseOrder, ledger stock.Ledger, received []ReceivedItem, actor string, at time.Time) (ReceiveResult, error) {
	if po.Status != StatusApproved {
		if Lifecycle.IsTerminal(po.Status) {
			return ReceiveResult{}, checkTransition(po.Status, StatusReceived)
		}
		return ReceiveResult{}, Lifecycle.Invalid(po.Status, StatusReceived,
			fmt.Sprintf("only approved orders can be received (current status: %s)", po.Status))
	}

	if r := ValidateReceive(po, received); !r.Valid() {
		return ReceiveResult{}, r.Err()
	}

	next := po.Clone()
	report := CheckDiscrepancy(next.Items, received)

	movements := make([]entity.StockMovement, 0, len(next.Items))
	for i := range next.Items {
		qty := report.Lines[i].Received
		next.Items[i].ReceivedQuantity = qty
		if qty <= 0 {
			continue
		}
		movements = append(movements, entity.NewStockMovement(
			next.ID, DocumentType, next.Number,
			entity.MovementIn,
			next.OutletID, next.Items[i].ProductID,
			qty, actor, at,
		))
	}

	nextLedger, err := ledger.Apply(movements)
	if err != nil {
		return ReceiveResult{}, err
	}

	next.AppendNote(report.Note())
	next.Status = StatusReceived
	receivedAt := at.UTC()
	next.ReceivedDate = &receivedAt
	next.Touch(actor, at)

	return ReceiveResult{
		Order:       next,
		Ledger:      nextLedger,
		Movements:   movements,
		Discrepancy: report,
	}, nil
}
