package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

func movement(outlet, product string, qty int64) entity.StockMovement {
	return entity.NewStockMovement(id.New(), "test", "T-1", entity.MovementIn, outlet, product, qty, "u-1", time.Now())
}

func TestLedger_GetAbsentIsZero(t *testing.T) {
	l := NewLedger()
	assert.Equal(t, int64(0), l.Get("a", "p"))
}

func TestLedger_WithDoesNotMutate(t *testing.T) {
	l := NewLedger().With("a", "p", 5)
	next := l.With("a", "p", 9)

	assert.Equal(t, int64(5), l.Get("a", "p"))
	assert.Equal(t, int64(9), next.Get("a", "p"))
}

func TestLedger_Apply(t *testing.T) {
	l := NewLedger().With("a", "p", 10)

	next, err := l.Apply([]entity.StockMovement{
		movement("a", "p", -4),
		movement("b", "p", 4),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(6), next.Get("a", "p"))
	assert.Equal(t, int64(4), next.Get("b", "p"))
	assert.Equal(t, int64(10), l.Get("a", "p"), "input ledger must be untouched")
	assert.Equal(t, l.ProductTotal("p"), next.ProductTotal("p"))
}

func TestLedger_ApplyRejectsNegative(t *testing.T) {
	l := NewLedger().With("a", "p", 3)

	got, err := l.Apply([]entity.StockMovement{
		movement("a", "p", -2),
		movement("a", "p", -2),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(1), appErr.Details["available"])
	assert.Equal(t, int64(2), appErr.Details["requested"])
	assert.Equal(t, int64(3), got.Get("a", "p"))
}

func TestKeysOf_SortedDistinct(t *testing.T) {
	keys := KeysOf([]entity.StockMovement{
		movement("b", "p2", 1),
		movement("a", "p1", 1),
		movement("b", "p2", -1),
		movement("a", "p0", 1),
	})
	assert.Equal(t, []Key{{"a", "p0"}, {"a", "p1"}, {"b", "p2"}}, keys)
	assert.Equal(t, []string{"stock:a:p0", "stock:a:p1", "stock:b:p2"}, LockKeys(keys))
}

func TestLedger_BalancesRoundTrip(t *testing.T) {
	l := NewLedger().With("b", "p", 2).With("a", "p", 1)
	balances := l.Balances()

	require.Len(t, balances, 2)
	assert.Equal(t, "a", balances[0].OutletID)
	assert.Equal(t, l, FromBalances(balances))
}
