// Package tx provides transaction management abstractions.
// Domain services depend on this interface; the implementation lives in
// infrastructure/storage/postgres (and a no-op one in storage/memory).
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
