package stock_transfer

import (
	"context"
	"fmt"
	"time"

	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/numerator"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/registers/stock"
	"backoffice/pkg/logger"
)

// Service orchestrates transfer persistence around the pure lifecycle.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	events    audit.Sink
	hooks     *domain.HookRegistry[*StockTransfer]
	now       func() time.Time
}

// NewService creates a new stock transfer service.
func NewService(
	repo Repository,
	stockService *stock.Service,
	numerator numerator.Generator,
	txManager tx.Manager,
	events audit.Sink,
) *Service {
	if events == nil {
		events = audit.Nop
	}
	return &Service{
		repo:      repo,
		stock:     stockService,
		numerator: numerator,
		txManager: txManager,
		events:    events,
		hooks:     domain.NewHookRegistry[*StockTransfer](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*StockTransfer] {
	return s.hooks
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates the request against current stock and stores a pending transfer.
func (s *Service) Create(ctx context.Context, in CreateInput) (*StockTransfer, error) {
	in = in.Normalize()
	if in.CreatedBy == "" {
		in.CreatedBy = appctx.GetUserID(ctx)
	}

	ledger, err := s.stock.Available(ctx, in.Keys())
	if err != nil {
		return nil, err
	}
	if r := ValidateCreate(in, ledger); !r.Valid() {
		err := r.Err()
		if shortages := stock.Shortages(err); len(shortages) > 0 {
			logger.Info(ctx, "stock transfer rejected for shortage",
				"source_outlet_id", in.SourceOutletID,
				"shortages", shortages,
			)
		}
		return nil, err
	}

	now := s.now()
	number, err := s.numerator.Next(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	t, r := New(in, ledger, number, now)
	if !r.Valid() {
		return nil, r.Err()
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create stock transfer: %w", err)
		}
		if err := s.repo.SaveItems(ctx, t.ID, t.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return s.record(ctx, audit.EventCreated, t, map[string]any{
			"source_outlet_id":      t.SourceOutletID,
			"destination_outlet_id": t.DestinationOutletID,
			"item_count":            len(t.Items),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, t); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "stock transfer created",
		"id", t.ID,
		"number", t.Number,
		"source", t.SourceOutletID,
		"destination", t.DestinationOutletID)

	return t, nil
}

// GetByID retrieves a transfer with its items.
func (s *Service) GetByID(ctx context.Context, transferID id.ID) (*StockTransfer, error) {
	return s.load(ctx, transferID, false)
}

// List retrieves transfers matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockTransfer], error) {
	return s.repo.List(ctx, filter)
}

// Approve approves a pending transfer.
func (s *Service) Approve(ctx context.Context, transferID id.ID) (*StockTransfer, error) {
	return s.transition(ctx, transferID, audit.EventApproved, func(t StockTransfer, actor string, at time.Time) (StockTransfer, error) {
		return Approve(t, actor, at)
	})
}

// Cancel cancels a pending or approved transfer.
func (s *Service) Cancel(ctx context.Context, transferID id.ID, reason string) (*StockTransfer, error) {
	return s.transition(ctx, transferID, audit.EventCancelled, func(t StockTransfer, actor string, at time.Time) (StockTransfer, error) {
		return Cancel(t, reason, actor, at)
	})
}

// Complete moves the goods between outlets.
func (s *Service) Complete(ctx context.Context, transferID id.ID) (*CompleteResult, error) {
	t, err := s.load(ctx, transferID, false)
	if err != nil {
		return nil, err
	}

	keys := t.Keys()
	release, err := s.stock.Lock(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	actor := appctx.GetUserID(ctx)
	now := s.now()
	var result CompleteResult

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, transferID, true)
		if err != nil {
			return err
		}

		ledger, err := s.stock.Snapshot(ctx, keys)
		if err != nil {
			return err
		}

		result, err = Complete(ledger, *current, actor, now)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &result.Transfer); err != nil {
			return fmt.Errorf("update stock transfer: %w", err)
		}
		if err := s.stock.Commit(ctx, result.Ledger, result.Movements, now); err != nil {
			return err
		}

		return s.record(ctx, audit.EventCompleted, &result.Transfer, map[string]any{
			"from":           current.Status,
			"to":             result.Transfer.Status,
			"movement_count": len(result.Movements),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, &result.Transfer); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "stock transfer completed",
		"id", result.Transfer.ID,
		"number", result.Transfer.Number,
		"movements", len(result.Movements))

	return &result, nil
}

type transitionFunc func(t StockTransfer, actor string, at time.Time) (StockTransfer, error)

func (s *Service) transition(ctx context.Context, transferID id.ID, event string, fn transitionFunc) (*StockTransfer, error) {
	actor := appctx.GetUserID(ctx)
	now := s.now()
	var next StockTransfer

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, transferID, true)
		if err != nil {
			return err
		}

		next, err = fn(*current, actor, now)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &next); err != nil {
			return fmt.Errorf("update stock transfer: %w", err)
		}

		return s.record(ctx, event, &next, map[string]any{
			"from": current.Status,
			"to":   next.Status,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, &next); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "stock transfer "+event,
		"id", next.ID,
		"number", next.Number)

	return &next, nil
}

func (s *Service) load(ctx context.Context, transferID id.ID, forUpdate bool) (*StockTransfer, error) {
	var (
		t   *StockTransfer
		err error
	)
	if forUpdate {
		t, err = s.repo.GetForUpdate(ctx, transferID)
	} else {
		t, err = s.repo.GetByID(ctx, transferID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	t.Items = items

	return t, nil
}

func (s *Service) record(ctx context.Context, event string, t *StockTransfer, details map[string]any, at time.Time) error {
	e := audit.NewEvent(ctx, event, DocumentType, t.ID, t.Number, details, at)
	if err := s.events.Record(ctx, e); err != nil {
		return fmt.Errorf("record %s event: %w", event, err)
	}
	return nil
}
