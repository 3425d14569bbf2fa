package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/idempotency"
	"backoffice/internal/domain"
	"backoffice/internal/domain/documents/purchase_order"
	"backoffice/internal/domain/registers/stock"
)

var t0 = time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

func order(number, outlet string, date time.Time) *purchase_order.PurchaseOrder {
	po := &purchase_order.PurchaseOrder{
		Document:   entity.NewDocument(number, "u-1", date),
		SupplierID: "SUP-1",
		OutletID:   outlet,
		Status:     purchase_order.StatusPending,
	}
	po.Date = date
	return po
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	db := New()
	repo := db.PurchaseOrders()
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.RunInTransaction(ctx, func(ctx context.Context) error {
		require.True(t, InTransaction(ctx))
		require.NoError(t, repo.Create(ctx, order("PO-20260210-0001", "A", t0)))
		require.NoError(t, db.Stock().SaveBalances(ctx, stock.Ledger{{OutletID: "A", ProductID: "P"}: 5}, t0))
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := repo.List(ctx, purchase_order.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)

	ledger, err := db.Stock().GetBalances(ctx, []stock.Key{{OutletID: "A", ProductID: "P"}})
	require.NoError(t, err)
	assert.Zero(t, ledger.Get("A", "P"))
}

func TestRunInTransaction_NestedJoinsOuter(t *testing.T) {
	db := New()
	repo := db.PurchaseOrders()
	ctx := context.Background()

	err := db.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, order("PO-20260210-0001", "A", t0)))
		inner := db.RunInTransaction(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, order("PO-20260210-0002", "A", t0))
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})
	require.Error(t, err)

	list, err := repo.List(ctx, purchase_order.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount, "inner writes roll back with the outer transaction")
}

func TestDocRepo_OptimisticVersion(t *testing.T) {
	db := New()
	repo := db.PurchaseOrders()
	ctx := context.Background()

	po := order("PO-20260210-0001", "A", t0)
	require.NoError(t, repo.Create(ctx, po))

	first, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	stale, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)

	first.Status = purchase_order.StatusApproved
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	stale.Status = purchase_order.StatusCancelled
	err = repo.Update(ctx, stale)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))

	stored, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusApproved, stored.Status)
}

func TestDocRepo_CreateRejectsDuplicateNumber(t *testing.T) {
	db := New()
	repo := db.PurchaseOrders()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, order("PO-20260210-0001", "A", t0)))
	err := repo.Create(ctx, order("PO-20260210-0001", "B", t0))
	require.Error(t, err)
}

func TestDocRepo_GetReturnsCopies(t *testing.T) {
	db := New()
	repo := db.PurchaseOrders()
	ctx := context.Background()

	po := order("PO-20260210-0001", "A", t0)
	require.NoError(t, repo.Create(ctx, po))
	require.NoError(t, repo.SaveItems(ctx, po.ID, []purchase_order.Item{{LineNo: 1, ProductID: "P", Quantity: 2}}))

	items, err := repo.GetItems(ctx, po.ID)
	require.NoError(t, err)
	items[0].Quantity = 99

	items, err = repo.GetItems(ctx, po.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, items[0].Quantity)

	_, err = repo.GetByID(ctx, entity.NewBaseEntity().ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDocRepo_ListFiltersAndPages(t *testing.T) {
	db := New()
	repo := db.PurchaseOrders()
	ctx := context.Background()

	for i, outlet := range []string{"A", "B", "A", "A"} {
		number := "PO-20260210-000" + string(rune('1'+i))
		require.NoError(t, repo.Create(ctx, order(number, outlet, t0.Add(time.Duration(i)*time.Hour))))
	}

	list, err := repo.List(ctx, purchase_order.ListFilter{ListFilter: domain.ListFilter{OutletID: "A", Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.TotalCount)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "PO-20260210-0004", list.Items[0].Number)
	assert.Equal(t, "PO-20260210-0003", list.Items[1].Number)

	list, err = repo.List(ctx, purchase_order.ListFilter{ListFilter: domain.ListFilter{OrderBy: "number", Search: "0002"}})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "B", list.Items[0].OutletID)
}

func TestNumberStore(t *testing.T) {
	db := New()
	ctx := context.Background()

	require.NoError(t, db.PurchaseOrders().Create(ctx, order("PO-20260210-0007", "A", t0)))
	require.NoError(t, db.PurchaseOrders().Create(ctx, order("PO-20260211-0009", "A", t0)))

	numbers := db.PurchaseOrderNumbers()
	seq, err := numbers.MaxSequence(ctx, "PO-20260210-")
	require.NoError(t, err)
	assert.EqualValues(t, 7, seq)

	exists, err := numbers.Exists(ctx, "PO-20260211-0009")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	now := t0
	s := NewIdempotencyStore(time.Hour)
	s.SetClock(func() time.Time { return now })

	replay, err := s.AcquireKey(ctx, "k1", "u", "POST /orders", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = s.AcquireKey(ctx, "k1", "u", "POST /orders", "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotencyConflict))

	_, err = s.AcquireKey(ctx, "k1", "u", "POST /orders", "other")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotencyMismatch))

	require.NoError(t, s.CompleteKey(ctx, "k1", 201, "application/json", []byte(`{"ok":true}`)))
	replay, err = s.AcquireKey(ctx, "k1", "u", "POST /orders", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(replay.Body))

	// stale pending keys are reclaimed
	_, err = s.AcquireKey(ctx, "k2", "u", "POST /orders", "h2")
	require.NoError(t, err)
	now = now.Add(idempotency.StaleAfter + time.Second)
	replay, err = s.AcquireKey(ctx, "k2", "u", "POST /orders", "h2")
	require.NoError(t, err)
	assert.Nil(t, replay)

	now = now.Add(2 * time.Hour)
	n, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
