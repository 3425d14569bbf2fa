package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/infrastructure/storage/postgres"
)

const (
	PurchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderItemsTable = "doc_purchase_order_items"
)

var _ purchase_order.Repository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implements purchase_order.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchase_order.PurchaseOrder]
	items *ItemTable[purchase_order.Item]
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			PurchaseOrdersTable,
			[]string{"outlet_id"},
			func() *purchase_order.PurchaseOrder { return &purchase_order.PurchaseOrder{} },
		),
		items: NewItemTable[purchase_order.Item](txManager, purchaseOrderItemsTable, "document_id"),
	}
}

// GetItems retrieves the ordered lines.
func (r *PurchaseOrderRepo) GetItems(ctx context.Context, poID id.ID) ([]purchase_order.Item, error) {
	return r.items.Get(ctx, poID)
}

// SaveItems replaces the ordered lines.
func (r *PurchaseOrderRepo) SaveItems(ctx context.Context, poID id.ID, items []purchase_order.Item) error {
	return r.items.Replace(ctx, poID, items)
}

// List retrieves orders; SupplierID narrows to one supplier.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchase_order.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	var extra []squirrel.Sqlizer
	if filter.SupplierID != "" {
		extra = append(extra, squirrel.Eq{"supplier_id": filter.SupplierID})
	}
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, extra...)
}
