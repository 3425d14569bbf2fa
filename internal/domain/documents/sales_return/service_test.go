package sales_return_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/policy"
	"backoffice/internal/domain/registers/stock"
	"backoffice/internal/infrastructure/lock"
	"backoffice/internal/infrastructure/storage/memory"
	"backoffice/pkg/numerator"
)

var clock = time.Date(2026, 5, 20, 11, 0, 0, 0, time.UTC)

type env struct {
	db      *memory.DB
	stock   *stock.Service
	service *sales_return.Service
	ctx     context.Context
}

func newEnv(t *testing.T, saleDate time.Time, rules *policy.RuleEngine) *env {
	t.Helper()

	db := memory.New()
	db.Sales().Put(sales_return.Sale{
		ID:       "TX-100",
		OutletID: "OUT-1",
		SaleDate: saleDate,
		Items: []sales_return.SaleItem{
			{ID: "L1", ProductID: "P1", CategoryID: "apparel", Quantity: 3, UnitPrice: 2000, DiscountAmount: 500},
			{ID: "L2", ProductID: "P2", CategoryID: "food", Quantity: 1, UnitPrice: 800},
		},
	})
	db.Policies().Set(&policy.ReturnPolicy{
		Name:                    "standard",
		MaxReturnDays:           30,
		NonReturnableCategories: []string{"food"},
		IsActive:                true,
	})

	locker := lock.NewLocalLocker()
	stockService := stock.NewService(db.Stock(), locker)
	service := sales_return.NewService(sales_return.Deps{
		Repo:      db.SalesReturns(),
		Sales:     db.Sales(),
		Policies:  db.Policies(),
		Stock:     stockService,
		Numerator: numerator.New(numerator.DefaultConfig("RTN"), db.SalesReturnNumbers()),
		TxManager: db,
		Events:    db.Audit(),
		Locker:    locker,
		Rules:     rules,
	})
	service.SetClock(func() time.Time { return clock })

	return &env{
		db:      db,
		stock:   stockService,
		service: service,
		ctx:     appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "clerk-2", Roles: []string{"cashier"}}),
	}
}

func returnOf(qty int64) sales_return.CreateInput {
	return sales_return.CreateInput{
		TransactionID: "TX-100",
		Items: []sales_return.ItemInput{
			{TransactionItemID: "L1", Quantity: qty, Reason: sales_return.ReasonChangedMind},
		},
	}
}

func TestService_CreateWithinWindowIsApproved(t *testing.T) {
	e := newEnv(t, clock.AddDate(0, 0, -5), nil)

	ret, err := e.service.Create(e.ctx, returnOf(2))
	require.NoError(t, err)
	assert.Equal(t, "RTN-20260520-0001", ret.Number)
	assert.Equal(t, sales_return.StatusApproved, ret.Status)
	assert.False(t, ret.RequiresApproval)
	assert.Equal(t, "OUT-1", ret.OutletID)
	assert.EqualValues(t, 3000, ret.TotalRefund)
	require.Len(t, ret.Items, 1)
	assert.True(t, ret.Items[0].IsResellable)
}

func TestService_CreateOutsideWindowNeedsApproval(t *testing.T) {
	e := newEnv(t, clock.AddDate(0, 0, -45), nil)

	ret, err := e.service.Create(e.ctx, returnOf(1))
	require.NoError(t, err)
	assert.Equal(t, sales_return.StatusPendingApproval, ret.Status)
	assert.True(t, ret.RequiresApproval)

	_, err = e.service.Complete(e.ctx, ret.ID, sales_return.RefundCash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return requires approval before it can be completed")

	mgr := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "mgr-1", Roles: []string{"manager"}})
	approved, err := e.service.Approve(mgr, ret.ID, "loyal customer")
	require.NoError(t, err)
	assert.Equal(t, sales_return.StatusApproved, approved.Status)
	assert.Equal(t, "mgr-1", approved.ApprovedBy)
	assert.Equal(t, "loyal customer", approved.ApprovalReason)
}

func TestService_CreateBlockedCategory(t *testing.T) {
	e := newEnv(t, clock.AddDate(0, 0, -1), nil)

	_, err := e.service.Create(e.ctx, sales_return.CreateInput{
		TransactionID: "TX-100",
		Items: []sales_return.ItemInput{
			{TransactionItemID: "L2", Quantity: 1, Reason: sales_return.ReasonDamaged},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeReturnNotAllowed))

	list, err := e.service.List(e.ctx, sales_return.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestService_CreateUnknownSale(t *testing.T) {
	e := newEnv(t, clock, nil)

	in := returnOf(1)
	in.TransactionID = "TX-404"
	_, err := e.service.Create(e.ctx, in)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_ReturnableQuantityIsConsumed(t *testing.T) {
	e := newEnv(t, clock.AddDate(0, 0, -2), nil)

	first, err := e.service.Create(e.ctx, returnOf(2))
	require.NoError(t, err)

	_, err = e.service.Create(e.ctx, returnOf(2))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, apperror.ValidationMessages(err)[0], "sold 3, already returned 2, returnable 1")

	// cancelled returns stop counting
	_, err = e.service.Cancel(e.ctx, first.ID, "customer kept it")
	require.NoError(t, err)

	second, err := e.service.Create(e.ctx, returnOf(3))
	require.NoError(t, err)
	assert.Equal(t, "RTN-20260520-0002", second.Number)
}

func TestService_CompleteRestocksResellable(t *testing.T) {
	e := newEnv(t, clock.AddDate(0, 0, -3), nil)

	ret, err := e.service.Create(e.ctx, sales_return.CreateInput{
		TransactionID: "TX-100",
		Items: []sales_return.ItemInput{
			{TransactionItemID: "L1", Quantity: 1, Reason: sales_return.ReasonDamaged, IsDamaged: true},
		},
	})
	require.NoError(t, err)
	assert.False(t, ret.Items[0].IsResellable)

	result, err := e.service.Complete(e.ctx, ret.ID, sales_return.RefundCard)
	require.NoError(t, err)
	assert.Empty(t, result.Movements)
	assert.Equal(t, sales_return.RefundCard, result.Return.RefundMethod)

	resellable, err := e.service.Create(e.ctx, returnOf(2))
	require.NoError(t, err)
	result, err = e.service.Complete(e.ctx, resellable.ID, sales_return.RefundCash)
	require.NoError(t, err)
	require.Len(t, result.Movements, 1)

	ledger, err := e.stock.Available(e.ctx, []stock.Key{{OutletID: "OUT-1", ProductID: "P1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, ledger.Get("OUT-1", "P1"))

	_, err = e.service.Cancel(e.ctx, resellable.ID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestService_ApprovalRule(t *testing.T) {
	rules, err := policy.NewRuleEngine()
	require.NoError(t, err)

	e := newEnv(t, clock.AddDate(0, 0, -1), rules)
	e.db.Policies().Set(&policy.ReturnPolicy{
		Name:          "strict",
		MaxReturnDays: 30,
		IsActive:      true,
		ApprovalRule:  "total_refund > 2000",
	})

	small, err := e.service.Create(e.ctx, returnOf(1))
	require.NoError(t, err)
	assert.Equal(t, sales_return.StatusApproved, small.Status)

	large, err := e.service.Create(e.ctx, returnOf(2))
	require.NoError(t, err)
	assert.Equal(t, sales_return.StatusPendingApproval, large.Status)
}

func TestService_Preview(t *testing.T) {
	e := newEnv(t, clock.AddDate(0, 0, -40), nil)

	preview, err := e.service.Preview(e.ctx, returnOf(3))
	require.NoError(t, err)
	assert.EqualValues(t, 4500, preview.Refund.TotalRefund)
	assert.True(t, preview.Decision.Allowed)
	assert.True(t, preview.Decision.RequiresApproval)
	assert.Equal(t, 40, preview.Decision.DaysSinceSale)

	list, err := e.service.List(e.ctx, sales_return.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}
