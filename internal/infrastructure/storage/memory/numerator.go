package memory

import (
	"context"
	"slices"

	"backoffice/internal/core/entity"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/pkg/numerator"
)

var _ numerator.Store = (*NumberStore)(nil)

// NumberStore reads the numbers of one document table.
type NumberStore struct {
	db      *DB
	numbers func(s *state) []string
}

func numbersOf[T any, I any](t *table[T, I], doc func(*T) *entity.Document) []string {
	out := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, doc(&row).Number)
	}
	return out
}

// PurchaseOrderNumbers backs the purchase order numerator.
func (db *DB) PurchaseOrderNumbers() *NumberStore {
	return &NumberStore{db: db, numbers: func(s *state) []string {
		return numbersOf(s.purchaseOrders, func(po *purchase_order.PurchaseOrder) *entity.Document { return &po.Document })
	}}
}

// StockTransferNumbers backs the stock transfer numerator.
func (db *DB) StockTransferNumbers() *NumberStore {
	return &NumberStore{db: db, numbers: func(s *state) []string {
		return numbersOf(s.transfers, func(t *stock_transfer.StockTransfer) *entity.Document { return &t.Document })
	}}
}

// SalesReturnNumbers backs the return numerator.
func (db *DB) SalesReturnNumbers() *NumberStore {
	return &NumberStore{db: db, numbers: func(s *state) []string {
		return numbersOf(s.returns, func(r *sales_return.Return) *entity.Document { return &r.Document })
	}}
}

func (n *NumberStore) MaxSequence(ctx context.Context, datePrefix string) (int64, error) {
	var numbers []string
	n.db.read(func(s *state) { numbers = n.numbers(s) })
	return numerator.MaxSequence(numbers, datePrefix), nil
}

func (n *NumberStore) Exists(ctx context.Context, number string) (bool, error) {
	var numbers []string
	n.db.read(func(s *state) { numbers = n.numbers(s) })
	return slices.Contains(numbers, number), nil
}
