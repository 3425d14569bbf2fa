package purchase_order

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// Repository defines persistence for purchase orders.
type Repository interface {
	Create(ctx context.Context, po *PurchaseOrder) error
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// GetForUpdate loads the order with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// Update persists header changes with optimistic locking on Version.
	Update(ctx context.Context, po *PurchaseOrder) error

	GetItems(ctx context.Context, poID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, poID id.ID, items []Item) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
}

// ListFilter for filtering purchase orders.
type ListFilter struct {
	domain.ListFilter

	SupplierID string
}
