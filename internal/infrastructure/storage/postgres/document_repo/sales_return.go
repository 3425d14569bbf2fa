package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/infrastructure/storage/postgres"
)

const (
	SalesReturnsTable     = "doc_sales_returns"
	salesReturnItemsTable = "doc_sales_return_items"
)

var _ sales_return.Repository = (*SalesReturnRepo)(nil)

// SalesReturnRepo implements sales_return.Repository.
type SalesReturnRepo struct {
	*BaseDocumentRepo[*sales_return.Return]
	items *ItemTable[sales_return.Item]
}

// NewSalesReturnRepo creates a new sales return repository.
func NewSalesReturnRepo(txManager *postgres.TxManager) *SalesReturnRepo {
	return &SalesReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			SalesReturnsTable,
			[]string{"outlet_id"},
			func() *sales_return.Return { return &sales_return.Return{} },
		),
		items: NewItemTable[sales_return.Item](txManager, salesReturnItemsTable, "document_id"),
	}
}

func (r *SalesReturnRepo) GetItems(ctx context.Context, returnID id.ID) ([]sales_return.Item, error) {
	return r.items.Get(ctx, returnID)
}

func (r *SalesReturnRepo) SaveItems(ctx context.Context, returnID id.ID, items []sales_return.Item) error {
	return r.items.Replace(ctx, returnID, items)
}

// ReturnedQuantities sums item quantities per sale line over live returns of the transaction.
func (r *SalesReturnRepo) ReturnedQuantities(ctx context.Context, transactionID string) (sales_return.Returned, error) {
	sql, args, err := r.Builder().
		Select("i.transaction_item_id", "SUM(i.quantity)::bigint").
		From(salesReturnItemsTable + " i").
		Join(SalesReturnsTable + " d ON d.id = i.document_id").
		Where(squirrel.Eq{"d.transaction_id": transactionID}).
		Where(squirrel.NotEq{"d.status": []string{
			string(sales_return.StatusCancelled),
			string(sales_return.StatusRejected),
		}}).
		GroupBy("i.transaction_item_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("returned quantities: %w", err)
	}
	defer rows.Close()

	returned := make(sales_return.Returned)
	for rows.Next() {
		var (
			lineID string
			qty    int64
		)
		if err := rows.Scan(&lineID, &qty); err != nil {
			return nil, fmt.Errorf("scan returned quantity: %w", err)
		}
		returned[lineID] = qty
	}
	return returned, rows.Err()
}

// List retrieves returns; TransactionID narrows to one sale.
func (r *SalesReturnRepo) List(ctx context.Context, filter sales_return.ListFilter) (domain.ListResult[*sales_return.Return], error) {
	var extra []squirrel.Sqlizer
	if filter.TransactionID != "" {
		extra = append(extra, squirrel.Eq{"transaction_id": filter.TransactionID})
	}
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, extra...)
}
