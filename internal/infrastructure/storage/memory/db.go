// Package memory is an in-process storage backend with the same contracts as
// the PostgreSQL repositories. It backs the service tests and a database-less
// development mode.
//
// Transactions are serialized and a failed one restores the state captured
// when it began, so partial writes never survive an error.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/documents/stock_transfer"
	"backoffice/internal/domain/policy"
	"backoffice/internal/domain/registers/stock"
)

type state struct {
	purchaseOrders *table[purchase_order.PurchaseOrder, purchase_order.Item]
	transfers      *table[stock_transfer.StockTransfer, stock_transfer.Item]
	returns        *table[sales_return.Return, sales_return.Item]

	balances  map[stock.Key]entity.StockBalance
	movements []entity.StockMovement

	sales  map[string]sales_return.Sale
	policy *policy.ReturnPolicy

	events []audit.Event
}

func newState() state {
	return state{
		purchaseOrders: newTable[purchase_order.PurchaseOrder, purchase_order.Item](purchase_order.DocumentType),
		transfers:      newTable[stock_transfer.StockTransfer, stock_transfer.Item](stock_transfer.DocumentType),
		returns:        newTable[sales_return.Return, sales_return.Item](sales_return.DocumentType),
		balances:       make(map[stock.Key]entity.StockBalance),
		sales:          make(map[string]sales_return.Sale),
	}
}

// clone copies every container. Stored values are never mutated in place,
// so sharing them between the copies is safe.
func (s state) clone() state {
	return state{
		purchaseOrders: s.purchaseOrders.clone(),
		transfers:      s.transfers.clone(),
		returns:        s.returns.clone(),
		balances:       maps.Clone(s.balances),
		movements:      slices.Clone(s.movements),
		sales:          maps.Clone(s.sales),
		policy:         s.policy,
		events:         slices.Clone(s.events),
	}
}

// DB holds all in-memory state.
type DB struct {
	mu    sync.Mutex
	state state

	// txMu serializes transactions
	txMu sync.Mutex
}

// New creates an empty database.
func New() *DB {
	return &DB{state: newState()}
}

func (db *DB) read(fn func(s *state)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(&db.state)
}

func (db *DB) write(fn func(s *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.state)
}

type txKey struct{}

var _ tx.Manager = (*DB)(nil)

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (db *DB) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	saved := db.state.clone()
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.state = saved
		db.mu.Unlock()
		return err
	}
	return nil
}

// InTransaction reports whether ctx carries a memory transaction.
func InTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}
