package stock

import (
	"context"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

// Repository defines persistence for the stock ledger.
type Repository interface {
	// GetBalances returns ledger entries for keys; missing rows read as zero.
	GetBalances(ctx context.Context, keys []Key) (Ledger, error)

	// GetBalancesForUpdate is GetBalances with row locks held until the
	// surrounding transaction ends. Absent rows are created at zero first so
	// they can be locked too.
	GetBalancesForUpdate(ctx context.Context, keys []Key) (Ledger, error)

	// SaveBalances upserts every entry of ledger.
	SaveBalances(ctx context.Context, ledger Ledger, at time.Time) error

	// CreateMovements batch inserts movement facts.
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// GetMovementsByRecorder retrieves all movements written by a document.
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// GetBalancesByOutlet returns balances held at one outlet.
	GetBalancesByOutlet(ctx context.Context, outletID string, filter BalanceFilter) ([]entity.StockBalance, error)

	// GetMovementHistory returns movements matching filter, newest first.
	GetMovementHistory(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error)
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ProductIDs  []string
	ExcludeZero bool
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	OutletID  string
	ProductID string
	Type      entity.MovementType
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}
