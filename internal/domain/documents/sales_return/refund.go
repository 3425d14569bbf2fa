package sales_return

import (
	"strings"

	"backoffice/internal/core/types"
)

// CalculateItemRefund returns (originalPrice - discount) × quantity.
// Callers validate discount <= originalPrice; the formula itself does not.
func CalculateItemRefund(originalPrice, discount types.MinorUnits, quantity int64) types.MinorUnits {
	return (originalPrice - discount).Mul(quantity)
}

// RefundLine is the refund for one matched return item.
type RefundLine struct {
	TransactionItemID string           `json:"transactionItemId"`
	ProductID         string           `json:"productId"`
	CategoryID        string           `json:"categoryId,omitempty"`
	Quantity          int64            `json:"quantity"`
	OriginalPrice     types.MinorUnits `json:"originalPrice"`
	DiscountAmount    types.MinorUnits `json:"discountAmount"`
	RefundAmount      types.MinorUnits `json:"refundAmount"`
}

// RefundSummary totals a return. TotalRefund == Subtotal - TotalDiscount.
type RefundSummary struct {
	Subtotal      types.MinorUnits `json:"subtotal"`
	TotalDiscount types.MinorUnits `json:"totalDiscount"`
	TotalRefund   types.MinorUnits `json:"totalRefund"`
	Lines         []RefundLine     `json:"lines"`

	// Skipped holds transaction item ids with no matching sale line.
	// They contribute nothing to the totals.
	Skipped []string `json:"skipped,omitempty"`
}

// CalculateRefund prices requested items at the sale's per-unit price and discount.
// Items referring to a line the sale does not have are skipped, not rejected.
func CalculateRefund(sale Sale, items []ItemInput) RefundSummary {
	summary := RefundSummary{Lines: make([]RefundLine, 0, len(items))}

	for _, in := range items {
		itemID := strings.TrimSpace(in.TransactionItemID)
		line, ok := sale.Item(itemID)
		if !ok {
			summary.Skipped = append(summary.Skipped, itemID)
			continue
		}

		refund := CalculateItemRefund(line.UnitPrice, line.DiscountAmount, in.Quantity)
		summary.Lines = append(summary.Lines, RefundLine{
			TransactionItemID: line.ID,
			ProductID:         line.ProductID,
			CategoryID:        line.CategoryID,
			Quantity:          in.Quantity,
			OriginalPrice:     line.UnitPrice,
			DiscountAmount:    line.DiscountAmount,
			RefundAmount:      refund,
		})
		summary.Subtotal += line.UnitPrice.Mul(in.Quantity)
		summary.TotalDiscount += line.DiscountAmount.Mul(in.Quantity)
		summary.TotalRefund += refund
	}

	return summary
}
