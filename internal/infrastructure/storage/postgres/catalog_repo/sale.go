// Package catalog_repo provides read access to reference data owned by other
// systems: point-of-sale transactions and return policies.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/apperror"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "pos_sales"
	saleItemsTable = "pos_sale_items"
)

var _ sales_return.SaleReader = (*SaleRepo)(nil)

// SaleRepo reads completed sales written by the point of sale.
type SaleRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewSaleRepo creates a new sale reader.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetSale loads a sale with its lines.
func (r *SaleRepo) GetSale(ctx context.Context, transactionID string) (*sales_return.Sale, error) {
	querier := r.txManager.GetQuerier(ctx)

	sql, args, err := r.builder.
		Select("id", "outlet_id", "sale_date").
		From(salesTable).
		Where(squirrel.Eq{"id": transactionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	sale := &sales_return.Sale{}
	if err := pgxscan.Get(ctx, querier, sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", transactionID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	sql, args, err = r.builder.
		Select("id", "product_id", "category_id", "quantity", "unit_price", "discount_amount").
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": transactionID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &sale.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	return sale, nil
}
