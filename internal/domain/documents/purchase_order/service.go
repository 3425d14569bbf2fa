package purchase_order

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

// Service orchestrates purchase order persistence around the pure lifecycle.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	events    audit.Sink
	hooks     *domain.HookRegistry[*PurchaseOrder]
	now       func() time.Time
}

// NewService creates a new purchase order service.
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
		hooks:     domain.NewHookRegistry[*PurchaseOrder](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*PurchaseOrder] {
	return s.hooks
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates input, assigns a number and stores a pending order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	if in.UserID == "" {
		in.UserID = appctx.GetUserID(ctx)
	}

	if r := ValidateCreate(in); !r.Valid() {
		return nil, r.Err()
	}

	now := s.now()
	number, err := s.numerator.Next(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	po, r := New(in, number, now)
	if !r.Valid() {
		return nil, r.Err()
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, po); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, po.ID, po.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return s.record(ctx, audit.EventCreated, po, map[string]any{
			"supplier_id":  po.SupplierID,
			"total_amount": po.TotalAmount,
			"item_count":   len(po.Items),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, po); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "purchase order created",
		"id", po.ID,
		"number", po.Number,
		"total_amount", po.TotalAmount)

	return po, nil
}

// GetByID retrieves an order with its items.
func (s *Service) GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.load(ctx, poID, false)
}

// List retrieves orders matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}

// Approve moves a pending order to approved.
func (s *Service) Approve(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, audit.EventApproved, func(po PurchaseOrder, actor string, at time.Time) (PurchaseOrder, error) {
		return Approve(po, actor, at)
	})
}

// Cancel cancels a pending or approved order.
func (s *Service) Cancel(ctx context.Context, poID id.ID, reason string) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, audit.EventCancelled, func(po PurchaseOrder, actor string, at time.Time) (PurchaseOrder, error) {
		return Cancel(po, reason, actor, at)
	})
}

// Receive books delivered quantities, updating the ledger at the order's outlet.
func (s *Service) Receive(ctx context.Context, poID id.ID, received []ReceivedItem) (*ReceiveResult, error) {
	po, err := s.load(ctx, poID, false)
	if err != nil {
		return nil, err
	}

	keys := make([]stock.Key, 0, len(po.Items))
	for _, item := range po.Items {
		keys = append(keys, stock.Key{OutletID: po.OutletID, ProductID: item.ProductID})
	}

	release, err := s.stock.Lock(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	actor := appctx.GetUserID(ctx)
	now := s.now()
	var result ReceiveResult

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, poID, true)
		if err != nil {
			return err
		}

		ledger, err := s.stock.Snapshot(ctx, keys)
		if err != nil {
			return err
		}

		result, err = Receive(*current, ledger, received, actor, now)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &result.Order); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, result.Order.ID, result.Order.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := s.stock.Commit(ctx, result.Ledger, result.Movements, now); err != nil {
			return err
		}

		return s.record(ctx, audit.EventReceived, &result.Order, map[string]any{
			"from":            current.Status,
			"to":              result.Order.Status,
			"has_discrepancy": result.Discrepancy.HasDiscrepancy,
			"movement_count":  len(result.Movements),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, &result.Order); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "purchase order received",
		"id", result.Order.ID,
		"number", result.Order.Number,
		"discrepancy", result.Discrepancy.HasDiscrepancy)

	return &result, nil
}

type transitionFunc func(po PurchaseOrder, actor string, at time.Time) (PurchaseOrder, error)

// transition runs a status-only change under a row lock.
func (s *Service) transition(ctx context.Context, poID id.ID, event string, fn transitionFunc) (*PurchaseOrder, error) {
	actor := appctx.GetUserID(ctx)
	now := s.now()
	var next PurchaseOrder

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, poID, true)
		if err != nil {
			return err
		}

		next, err = fn(*current, actor, now)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &next); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
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

	logger.Info(ctx, "purchase order "+event,
		"id", next.ID,
		"number", next.Number)

	return &next, nil
}

func (s *Service) load(ctx context.Context, poID id.ID, forUpdate bool) (*PurchaseOrder, error) {
	var (
		po  *PurchaseOrder
		err error
	)
	if forUpdate {
		po, err = s.repo.GetForUpdate(ctx, poID)
	} else {
		po, err = s.repo.GetByID(ctx, poID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, poID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	po.Items = items

	return po, nil
}

func (s *Service) record(ctx context.Context, event string, po *PurchaseOrder, details map[string]any, at time.Time) error {
	e := audit.NewEvent(ctx, event, DocumentType, po.ID, po.Number, details, at)
	if err := s.events.Record(ctx, e); err != nil {
		return fmt.Errorf("record %s event: %w", event, err)
	}
	return nil
}
