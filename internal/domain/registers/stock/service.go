package stock

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/lock"
	"backoffice/pkg/logger"
)

// MovementObserver is notified of every committed batch of movements.
type MovementObserver interface {
	ObserveMovements(movements []entity.StockMovement)
}

// Service persists ledger snapshots produced by the document lifecycles.
// Transactions are managed by the caller.
type Service struct {
	repo     Repository
	locker   lock.Locker
	observer MovementObserver
}

// NewService creates a new stock ledger service.
// A nil locker leaves serialization to the database row locks alone.
func NewService(repo Repository, locker lock.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
	}
}

// SetObserver registers a movement observer (metrics).
func (s *Service) SetObserver(o MovementObserver) {
	s.observer = o
}

// Lock serializes writers of the given ledger entries.
// Call it before opening the transaction that will commit them.
func (s *Service) Lock(ctx context.Context, keys []Key) (func(), error) {
	if s.locker == nil || len(keys) == 0 {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx, LockKeys(keys)...)
	if err != nil {
		return nil, fmt.Errorf("lock stock keys: %w", err)
	}
	return release, nil
}

// Snapshot reads and row-locks the entries for keys. Must run inside a transaction.
func (s *Service) Snapshot(ctx context.Context, keys []Key) (Ledger, error) {
	ledger, err := s.repo.GetBalancesForUpdate(ctx, SortKeys(keys))
	if err != nil {
		return nil, fmt.Errorf("snapshot balances: %w", err)
	}
	return ledger, nil
}

// Available reads entries for keys without locking.
func (s *Service) Available(ctx context.Context, keys []Key) (Ledger, error) {
	ledger, err := s.repo.GetBalances(ctx, SortKeys(keys))
	if err != nil {
		return nil, fmt.Errorf("get balances: %w", err)
	}
	return ledger, nil
}

// Commit persists the entries of next touched by movements and records the movements.
func (s *Service) Commit(ctx context.Context, next Ledger, movements []entity.StockMovement, at time.Time) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if m.Quantity == 0 {
			return apperror.NewValidation(fmt.Sprintf("movement %d: quantity must not be zero", i))
		}
		if id.IsNil(m.RecorderID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: recorder_id is required", i))
		}
	}

	touched := next.Subset(KeysOf(movements))
	for _, k := range touched.Keys() {
		if touched[k] < 0 {
			return apperror.NewInsufficientStock(k.OutletID, k.ProductID, -touched[k], 0)
		}
	}

	if err := s.repo.SaveBalances(ctx, touched, at); err != nil {
		return fmt.Errorf("save balances: %w", err)
	}
	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveMovements(movements)
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
		"recorder_number", movements[0].RecorderNumber,
	)

	return nil
}

// OutletStock returns all products with stock at an outlet.
func (s *Service) OutletStock(ctx context.Context, outletID string) ([]entity.StockBalance, error) {
	return s.repo.GetBalancesByOutlet(ctx, outletID, BalanceFilter{ExcludeZero: true})
}

// MovementHistory returns movement facts matching filter.
func (s *Service) MovementHistory(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.GetMovementHistory(ctx, filter)
}

// MovementsOf returns the movements written by a document.
func (s *Service) MovementsOf(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	return s.repo.GetMovementsByRecorder(ctx, recorderID)
}
