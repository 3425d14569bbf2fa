package memory

import (
	"context"

	"backoffice/internal/core/entity"
	"backoffice/internal/domain"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/documents/stock_transfer"
)

var (
	_ purchase_order.Repository = (*PurchaseOrderRepo)(nil)
	_ stock_transfer.Repository = (*StockTransferRepo)(nil)
	_ sales_return.Repository   = (*SalesReturnRepo)(nil)
)

// PurchaseOrderRepo implements purchase_order.Repository.
type PurchaseOrderRepo struct {
	*docRepo[purchase_order.PurchaseOrder, purchase_order.Item]
}

// PurchaseOrders returns the purchase order repository.
func (db *DB) PurchaseOrders() *PurchaseOrderRepo {
	return &PurchaseOrderRepo{&docRepo[purchase_order.PurchaseOrder, purchase_order.Item]{
		db:  db,
		tab: func(s *state) *table[purchase_order.PurchaseOrder, purchase_order.Item] { return s.purchaseOrders },
		schema: docSchema[purchase_order.PurchaseOrder]{
			doc:     func(po *purchase_order.PurchaseOrder) *entity.Document { return &po.Document },
			clone:   purchase_order.PurchaseOrder.Clone,
			status:  func(po *purchase_order.PurchaseOrder) string { return string(po.Status) },
			outlets: func(po *purchase_order.PurchaseOrder) []string { return []string{po.OutletID} },
		},
	}}
}

func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchase_order.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	return r.list(filter.ListFilter, func(po *purchase_order.PurchaseOrder) bool {
		return filter.SupplierID == "" || po.SupplierID == filter.SupplierID
	})
}

// StockTransferRepo implements stock_transfer.Repository.
type StockTransferRepo struct {
	*docRepo[stock_transfer.StockTransfer, stock_transfer.Item]
}

// StockTransfers returns the stock transfer repository.
func (db *DB) StockTransfers() *StockTransferRepo {
	return &StockTransferRepo{&docRepo[stock_transfer.StockTransfer, stock_transfer.Item]{
		db:  db,
		tab: func(s *state) *table[stock_transfer.StockTransfer, stock_transfer.Item] { return s.transfers },
		schema: docSchema[stock_transfer.StockTransfer]{
			doc:    func(t *stock_transfer.StockTransfer) *entity.Document { return &t.Document },
			clone:  stock_transfer.StockTransfer.Clone,
			status: func(t *stock_transfer.StockTransfer) string { return string(t.Status) },
			outlets: func(t *stock_transfer.StockTransfer) []string {
				return []string{t.SourceOutletID, t.DestinationOutletID}
			},
		},
	}}
}

func (r *StockTransferRepo) List(ctx context.Context, filter stock_transfer.ListFilter) (domain.ListResult[*stock_transfer.StockTransfer], error) {
	return r.list(filter.ListFilter, nil)
}

// SalesReturnRepo implements sales_return.Repository.
type SalesReturnRepo struct {
	*docRepo[sales_return.Return, sales_return.Item]
}

// SalesReturns returns the sales return repository.
func (db *DB) SalesReturns() *SalesReturnRepo {
	return &SalesReturnRepo{&docRepo[sales_return.Return, sales_return.Item]{
		db:  db,
		tab: func(s *state) *table[sales_return.Return, sales_return.Item] { return s.returns },
		schema: docSchema[sales_return.Return]{
			doc:     func(r *sales_return.Return) *entity.Document { return &r.Document },
			clone:   sales_return.Return.Clone,
			status:  func(r *sales_return.Return) string { return string(r.Status) },
			outlets: func(r *sales_return.Return) []string { return []string{r.OutletID} },
		},
	}}
}

func (r *SalesReturnRepo) List(ctx context.Context, filter sales_return.ListFilter) (domain.ListResult[*sales_return.Return], error) {
	return r.list(filter.ListFilter, func(ret *sales_return.Return) bool {
		return filter.TransactionID == "" || ret.TransactionID == filter.TransactionID
	})
}

// ReturnedQuantities implements sales_return.Repository.
func (r *SalesReturnRepo) ReturnedQuantities(ctx context.Context, transactionID string) (sales_return.Returned, error) {
	returned := make(sales_return.Returned)
	r.db.read(func(s *state) {
		for docID, ret := range s.returns.rows {
			if ret.TransactionID != transactionID || !ret.Status.CountsAgainstSale() {
				continue
			}
			for _, item := range s.returns.items[docID] {
				returned[item.TransactionItemID] += item.Quantity
			}
		}
	})
	return returned, nil
}
