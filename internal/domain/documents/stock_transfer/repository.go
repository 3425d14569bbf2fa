package stock_transfer

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// Repository defines persistence for stock transfers.
type Repository interface {
	Create(ctx context.Context, t *StockTransfer) error
	GetByID(ctx context.Context, transferID id.ID) (*StockTransfer, error)
	GetForUpdate(ctx context.Context, transferID id.ID) (*StockTransfer, error)
	Update(ctx context.Context, t *StockTransfer) error

	GetItems(ctx context.Context, transferID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, transferID id.ID, items []Item) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockTransfer], error)
}

// ListFilter for filtering transfers; OutletID matches either side.
type ListFilter struct {
	domain.ListFilter
}
