// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/registers/stock"
	"backoffice/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBalancesTable  = "reg_stock_balances"
)

var (
	movementColumns = []string{
		"line_id", "recorder_id", "recorder_type", "recorder_number",
		"movement_type", "outlet_id", "product_id", "quantity",
		"created_by", "created_at",
	}
	balanceColumns = []string{"outlet_id", "product_id", "quantity", "updated_at"}
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func keyPredicate(keys []stock.Key) squirrel.Or {
	or := make(squirrel.Or, 0, len(keys))
	for _, k := range keys {
		or = append(or, squirrel.Eq{"outlet_id": k.OutletID, "product_id": k.ProductID})
	}
	return or
}

func (r *StockRepo) selectBalances(ctx context.Context, keys []stock.Key, forUpdate bool) (stock.Ledger, error) {
	ledger := stock.NewLedger()
	if len(keys) == 0 {
		return ledger, nil
	}
	for _, k := range keys {
		ledger[k] = 0
	}

	q := r.builder.Select(balanceColumns...).
		From(stockBalancesTable).
		Where(keyPredicate(keys)).
		OrderBy("outlet_id", "product_id")
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	maps.Copy(ledger, stock.FromBalances(balances))
	return ledger, nil
}

// GetBalances returns the ledger entries for keys.
func (r *StockRepo) GetBalances(ctx context.Context, keys []stock.Key) (stock.Ledger, error) {
	return r.selectBalances(ctx, stock.SortKeys(keys), false)
}

// GetBalancesForUpdate seeds absent rows at zero, then locks every row in key order.
func (r *StockRepo) GetBalancesForUpdate(ctx context.Context, keys []stock.Key) (stock.Ledger, error) {
	keys = stock.SortKeys(keys)
	if len(keys) == 0 {
		return stock.NewLedger(), nil
	}

	q := r.builder.Insert(stockBalancesTable).Columns(balanceColumns...)
	for _, k := range keys {
		q = q.Values(k.OutletID, k.ProductID, int64(0), squirrel.Expr("NOW()"))
	}
	sql, args, err := q.Suffix("ON CONFLICT (outlet_id, product_id) DO NOTHING").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seed: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("seed balances: %w", err)
	}

	return r.selectBalances(ctx, keys, true)
}

// SaveBalances upserts every entry of ledger.
func (r *StockRepo) SaveBalances(ctx context.Context, ledger stock.Ledger, at time.Time) error {
	if len(ledger) == 0 {
		return nil
	}

	q := r.builder.Insert(stockBalancesTable).Columns(balanceColumns...)
	for _, b := range ledger.Balances() {
		q = q.Values(b.OutletID, b.ProductID, b.Quantity, at.UTC())
	}
	sql, args, err := q.Suffix(
		"ON CONFLICT (outlet_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at",
	).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save balances: %w", err)
	}
	return nil
}

func movementRow(m entity.StockMovement) []any {
	return []any{
		m.LineID, m.RecorderID, m.RecorderType, m.RecorderNumber,
		string(m.Type), m.OutletID, m.ProductID, m.Quantity,
		m.CreatedBy, m.CreatedAt,
	}
}

// CreateMovements batch inserts movements.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// COPY when inside a transaction.
	if r.txManager.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, movementRow(m))
		}
		if _, err := postgres.NewBatchInserter(r.txManager).CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(movementRow(m)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// GetMovementsByRecorder retrieves movements for a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at", "line_id")

	return r.selectMovements(ctx, q)
}

// GetBalancesByOutlet returns balances for an outlet.
func (r *StockRepo) GetBalancesByOutlet(ctx context.Context, outletID string, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.builder.Select(balanceColumns...).
		From(stockBalancesTable).
		Where(squirrel.Eq{"outlet_id": outletID})

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}
	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}

	sql, args, err := q.OrderBy("product_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	balances := []entity.StockBalance{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// GetMovementHistory returns movements matching filter, newest first.
func (r *StockRepo) GetMovementHistory(ctx context.Context, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).From(stockMovementsTable)

	if filter.OutletID != "" {
		q = q.Where(squirrel.Eq{"outlet_id": filter.OutletID})
	}
	if filter.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"movement_type": string(filter.Type)})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "line_id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMovements(ctx, q)
}

func (r *StockRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]entity.StockMovement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	movements := []entity.StockMovement{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

var _ stock.Repository = (*StockRepo)(nil)
