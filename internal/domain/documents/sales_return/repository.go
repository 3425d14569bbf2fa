package sales_return

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/policy"
)

// Repository defines persistence for returns.
type Repository interface {
	Create(ctx context.Context, r *Return) error
	GetByID(ctx context.Context, returnID id.ID) (*Return, error)
	GetForUpdate(ctx context.Context, returnID id.ID) (*Return, error)
	Update(ctx context.Context, r *Return) error

	GetItems(ctx context.Context, returnID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, returnID id.ID, items []Item) error

	// ReturnedQuantities sums returned quantity per sale line over the
	// transaction's returns that are neither cancelled nor rejected.
	ReturnedQuantities(ctx context.Context, transactionID string) (Returned, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error)
}

// ListFilter for filtering returns.
type ListFilter struct {
	domain.ListFilter
	TransactionID string
}

// SaleReader loads original sales. A missing sale is NOT_FOUND.
type SaleReader interface {
	GetSale(ctx context.Context, transactionID string) (*Sale, error)
}

// PolicyStore supplies the active return policy; nil means none is configured.
type PolicyStore interface {
	ActivePolicy(ctx context.Context) (*policy.ReturnPolicy, error)
}
