package sales_return

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/lock"
	"backoffice/internal/core/numerator"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/policy"
	"backoffice/internal/domain/registers/stock"
	"backoffice/pkg/logger"
)

// Deps are the collaborators of the return service.
type Deps struct {
	Repo      Repository
	Sales     SaleReader
	Policies  PolicyStore
	Stock     *stock.Service
	Numerator numerator.Generator
	TxManager tx.Manager

	// Optional
	Events audit.Sink
	Locker lock.Locker
	Rules  *policy.RuleEngine

	// DefaultApprovalRule applies when the active policy has no rule of its own.
	DefaultApprovalRule string
}

// Service orchestrates returns around the pure lifecycle.
type Service struct {
	repo      Repository
	sales     SaleReader
	policies  PolicyStore
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	events    audit.Sink
	locker    lock.Locker
	rules     *policy.RuleEngine
	rule      string
	hooks     *domain.HookRegistry[*Return]
	now       func() time.Time
}

// NewService creates a new return service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = audit.Nop
	}
	return &Service{
		repo:      d.Repo,
		sales:     d.Sales,
		policies:  d.Policies,
		stock:     d.Stock,
		numerator: d.Numerator,
		txManager: d.TxManager,
		events:    events,
		locker:    d.Locker,
		rules:     d.Rules,
		rule:      d.DefaultApprovalRule,
		hooks:     domain.NewHookRegistry[*Return](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Return] {
	return s.hooks
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Preview is the refund and policy outcome of a prospective return.
type Preview struct {
	Refund   RefundSummary       `json:"refund"`
	Decision policy.Decision     `json:"decision"`
	Policy   policy.ReturnPolicy `json:"policy"`
}

// Preview computes what Create would produce without persisting anything.
// Policy blocks are reported in the decision rather than as an error.
func (s *Service) Preview(ctx context.Context, in CreateInput) (*Preview, error) {
	sale, err := s.sales.GetSale(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}
	p, err := s.activePolicy(ctx)
	if err != nil {
		return nil, err
	}

	summary := CalculateRefund(*sale, in.Items)
	decision, err := s.decide(p, *sale, in, summary, s.now())
	if err != nil {
		return nil, err
	}

	return &Preview{Refund: summary, Decision: decision, Policy: p}, nil
}

// Create validates a return against its sale and the active policy and stores it
// as approved, or as pending_approval when the policy demands a manager decision.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Return, error) {
	if in.CreatedBy == "" {
		in.CreatedBy = appctx.GetUserID(ctx)
	}

	sale, err := s.sales.GetSale(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}
	p, err := s.activePolicy(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	decision, err := s.decide(p, *sale, in, CalculateRefund(*sale, in.Items), now)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperror.NewReturnNotAllowed(decision.BlockedProductID, decision.BlockedCategoryID)
	}

	release, err := s.lockSale(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	number, err := s.numerator.Next(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	var ret *Return
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		returned, err := s.repo.ReturnedQuantities(ctx, sale.ID)
		if err != nil {
			return fmt.Errorf("returned quantities: %w", err)
		}

		var r domain.ValidationResult
		ret, r = New(in, *sale, returned, p, decision.RequiresApproval, number, now)
		if !r.Valid() {
			return r.Err()
		}

		if err := s.repo.Create(ctx, ret); err != nil {
			return fmt.Errorf("create return: %w", err)
		}
		if err := s.repo.SaveItems(ctx, ret.ID, ret.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return s.record(ctx, audit.EventCreated, ret, map[string]any{
			"transaction_id":    ret.TransactionID,
			"total_refund":      ret.TotalRefund,
			"requires_approval": ret.RequiresApproval,
			"days_since_sale":   decision.DaysSinceSale,
			"item_count":        len(ret.Items),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, ret); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "return created",
		"id", ret.ID,
		"number", ret.Number,
		"status", ret.Status,
		"total_refund", ret.TotalRefund)

	return ret, nil
}

// GetByID retrieves a return with its items.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*Return, error) {
	return s.load(ctx, returnID, false)
}

// List retrieves returns matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error) {
	return s.repo.List(ctx, filter)
}

// Approve approves a pending return on behalf of the caller.
func (s *Service) Approve(ctx context.Context, returnID id.ID, reason string) (*Return, error) {
	return s.transition(ctx, returnID, audit.EventApproved, func(r Return, actor string, at time.Time) (Return, error) {
		return Approve(r, actor, reason, at)
	})
}

// Reject rejects a pending return.
func (s *Service) Reject(ctx context.Context, returnID id.ID, reason string) (*Return, error) {
	return s.transition(ctx, returnID, audit.EventRejected, func(r Return, actor string, at time.Time) (Return, error) {
		return Reject(r, reason, actor, at)
	})
}

// Cancel withdraws a return that is not yet completed.
func (s *Service) Cancel(ctx context.Context, returnID id.ID, reason string) (*Return, error) {
	return s.transition(ctx, returnID, audit.EventCancelled, func(r Return, actor string, at time.Time) (Return, error) {
		return Cancel(r, reason, actor, at)
	})
}

// Complete records the refund and restocks resellable items.
func (s *Service) Complete(ctx context.Context, returnID id.ID, method RefundMethod) (*CompleteResult, error) {
	ret, err := s.load(ctx, returnID, false)
	if err != nil {
		return nil, err
	}

	keys := ret.Keys()
	release, err := s.stock.Lock(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	actor := appctx.GetUserID(ctx)
	now := s.now()
	var result CompleteResult

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, returnID, true)
		if err != nil {
			return err
		}

		ledger, err := s.stock.Snapshot(ctx, current.Keys())
		if err != nil {
			return err
		}

		result, err = Complete(ledger, *current, method, actor, now)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &result.Return); err != nil {
			return fmt.Errorf("update return: %w", err)
		}
		if err := s.stock.Commit(ctx, result.Ledger, result.Movements, now); err != nil {
			return err
		}

		return s.record(ctx, audit.EventCompleted, &result.Return, map[string]any{
			"from":           current.Status,
			"to":             result.Return.Status,
			"refund_method":  method,
			"total_refund":   result.Return.TotalRefund,
			"movement_count": len(result.Movements),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, &result.Return); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "return completed",
		"id", result.Return.ID,
		"number", result.Return.Number,
		"refund_method", method,
		"restocked", len(result.Movements))

	return &result, nil
}

type transitionFunc func(r Return, actor string, at time.Time) (Return, error)

func (s *Service) transition(ctx context.Context, returnID id.ID, event string, fn transitionFunc) (*Return, error) {
	actor := appctx.GetUserID(ctx)
	now := s.now()
	var next Return

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, returnID, true)
		if err != nil {
			return err
		}

		next, err = fn(*current, actor, now)
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &next); err != nil {
			return fmt.Errorf("update return: %w", err)
		}

		details := map[string]any{"from": current.Status, "to": next.Status}
		switch next.Status {
		case StatusApproved:
			details["reason"] = next.ApprovalReason
		case StatusRejected:
			details["reason"] = next.RejectedReason
		}
		return s.record(ctx, event, &next, details, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterTransition, &next); err != nil {
		logger.Warn(ctx, "after-transition hook failed", "error", err)
	}

	logger.Info(ctx, "return "+event,
		"id", next.ID,
		"number", next.Number)

	return &next, nil
}

// decide composes the policy predicates with the optional approval rule.
func (s *Service) decide(p policy.ReturnPolicy, sale Sale, in CreateInput, summary RefundSummary, now time.Time) (policy.Decision, error) {
	decision := policy.Evaluate(p, sale.SaleDate, now, in.Products(sale))
	if !decision.Allowed || decision.RequiresApproval || !p.IsActive || s.rules == nil {
		return decision, nil
	}

	rule := p.ApprovalRule
	if rule == "" {
		rule = s.rule
	}

	damaged := 0
	for _, item := range in.Items {
		if item.IsDamaged {
			damaged++
		}
	}

	required, err := s.rules.RequiresApproval(rule, policy.RuleInput{
		DaysSinceSale: decision.DaysSinceSale,
		MaxReturnDays: p.MaxReturnDays,
		TotalRefund:   int64(summary.TotalRefund),
		ItemCount:     len(summary.Lines),
		DamagedCount:  damaged,
	})
	if err != nil {
		return decision, fmt.Errorf("approval rule: %w", err)
	}
	decision.RequiresApproval = required
	return decision, nil
}

func (s *Service) activePolicy(ctx context.Context) (policy.ReturnPolicy, error) {
	if s.policies == nil {
		return policy.DefaultPolicy(), nil
	}
	p, err := s.policies.ActivePolicy(ctx)
	if err != nil {
		return policy.ReturnPolicy{}, fmt.Errorf("load return policy: %w", err)
	}
	if p == nil {
		return policy.DefaultPolicy(), nil
	}
	return *p, nil
}

// lockSale serializes returns against one sale so returnable quantities hold.
func (s *Service) lockSale(ctx context.Context, transactionID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx, "return:sale:"+transactionID)
	if err != nil {
		return nil, fmt.Errorf("lock sale: %w", err)
	}
	return release, nil
}

func (s *Service) load(ctx context.Context, returnID id.ID, forUpdate bool) (*Return, error) {
	var (
		r   *Return
		err error
	)
	if forUpdate {
		r, err = s.repo.GetForUpdate(ctx, returnID)
	} else {
		r, err = s.repo.GetByID(ctx, returnID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	r.Items = items

	return r, nil
}

func (s *Service) record(ctx context.Context, event string, r *Return, details map[string]any, at time.Time) error {
	e := audit.NewEvent(ctx, event, DocumentType, r.ID, r.Number, details, at)
	if err := s.events.Record(ctx, e); err != nil {
		return fmt.Errorf("record %s event: %w", event, err)
	}
	return nil
}
