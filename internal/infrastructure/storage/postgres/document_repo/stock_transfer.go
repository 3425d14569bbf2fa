package document_repo

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/internal/infrastructure/storage/postgres"
)

const (
	StockTransfersTable     = "doc_stock_transfers"
	stockTransferItemsTable = "doc_stock_transfer_items"
)

var _ stock_transfer.Repository = (*StockTransferRepo)(nil)

// StockTransferRepo implements stock_transfer.Repository.
type StockTransferRepo struct {
	*BaseDocumentRepo[*stock_transfer.StockTransfer]
	items *ItemTable[stock_transfer.Item]
}

// NewStockTransferRepo creates a new stock transfer repository.
// An outlet filter matches transfers leaving or entering the outlet.
func NewStockTransferRepo(txManager *postgres.TxManager) *StockTransferRepo {
	return &StockTransferRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			StockTransfersTable,
			[]string{"source_outlet_id", "destination_outlet_id"},
			func() *stock_transfer.StockTransfer { return &stock_transfer.StockTransfer{} },
		),
		items: NewItemTable[stock_transfer.Item](txManager, stockTransferItemsTable, "document_id"),
	}
}

func (r *StockTransferRepo) GetItems(ctx context.Context, transferID id.ID) ([]stock_transfer.Item, error) {
	return r.items.Get(ctx, transferID)
}

func (r *StockTransferRepo) SaveItems(ctx context.Context, transferID id.ID, items []stock_transfer.Item) error {
	return r.items.Replace(ctx, transferID, items)
}

func (r *StockTransferRepo) List(ctx context.Context, filter stock_transfer.ListFilter) (domain.ListResult[*stock_transfer.StockTransfer], error) {
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter)
}
