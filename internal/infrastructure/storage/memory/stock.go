package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/registers/stock"
)

var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository.
type StockRepo struct {
	db *DB
}

// Stock returns the stock ledger repository.
func (db *DB) Stock() *StockRepo {
	return &StockRepo{db: db}
}

func (r *StockRepo) GetBalances(ctx context.Context, keys []stock.Key) (stock.Ledger, error) {
	ledger := stock.NewLedger()
	r.db.read(func(s *state) {
		for _, k := range keys {
			ledger[k] = s.balances[k].Quantity
		}
	})
	return ledger, nil
}

// GetBalancesForUpdate is GetBalances; transactions are already serialized.
func (r *StockRepo) GetBalancesForUpdate(ctx context.Context, keys []stock.Key) (stock.Ledger, error) {
	return r.GetBalances(ctx, keys)
}

func (r *StockRepo) SaveBalances(ctx context.Context, ledger stock.Ledger, at time.Time) error {
	return r.db.write(func(s *state) error {
		for _, b := range ledger.Balances() {
			b.UpdatedAt = at.UTC()
			s.balances[stock.Key{OutletID: b.OutletID, ProductID: b.ProductID}] = b
		}
		return nil
	})
}

func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	return r.db.write(func(s *state) error {
		s.movements = append(s.movements, movements...)
		return nil
	})
}

func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	out := []entity.StockMovement{}
	r.db.read(func(s *state) {
		for _, m := range s.movements {
			if m.RecorderID == recorderID {
				out = append(out, m)
			}
		}
	})
	return out, nil
}

func (r *StockRepo) GetBalancesByOutlet(ctx context.Context, outletID string, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	out := []entity.StockBalance{}
	r.db.read(func(s *state) {
		for k, b := range s.balances {
			if k.OutletID != outletID {
				continue
			}
			if filter.ExcludeZero && b.Quantity == 0 {
				continue
			}
			if len(filter.ProductIDs) > 0 && !slices.Contains(filter.ProductIDs, k.ProductID) {
				continue
			}
			out = append(out, b)
		}
	})
	slices.SortFunc(out, func(a, b entity.StockBalance) int { return cmp.Compare(a.ProductID, b.ProductID) })
	return out, nil
}

func (r *StockRepo) GetMovementHistory(ctx context.Context, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	r.db.read(func(s *state) {
		for _, m := range s.movements {
			switch {
			case filter.OutletID != "" && m.OutletID != filter.OutletID,
				filter.ProductID != "" && m.ProductID != filter.ProductID,
				filter.Type != "" && m.Type != filter.Type,
				filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate),
				filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate):
				continue
			}
			out = append(out, m)
		}
	})

	// newest first; movements recorded together keep their reverse insertion order
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b entity.StockMovement) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if filter.Offset > 0 {
		out = out[min(filter.Offset, len(out)):]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	if out == nil {
		out = []entity.StockMovement{}
	}
	return out, nil
}
