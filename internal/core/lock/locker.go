// Package lock defines the per-key mutual exclusion contract used to
// serialize stock ledger writes.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a key stays held past the wait budget.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires exclusive locks on a set of keys.
// Implementations must acquire keys in a deterministic order so that two
// callers locking overlapping sets cannot deadlock.
type Locker interface {
	// Lock blocks until every key is held or ctx ends.
	// The returned release func is safe to call once.
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}
