package stock_transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/domain/registers/stock"
)

var now = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func request(qty int64) CreateInput {
	return CreateInput{
		SourceOutletID:      "src",
		DestinationOutletID: "dst",
		CreatedBy:           "u-1",
		Items:               []ItemInput{{ProductID: "P", Quantity: qty}},
	}
}

func TestValidateCreate(t *testing.T) {
	ledger := stock.NewLedger().With("src", "P", 100).With("src", "Q", 5)

	t.Run("valid", func(t *testing.T) {
		assert.True(t, ValidateCreate(request(30), ledger).Valid())
	})

	t.Run("same outlet fails regardless of stock", func(t *testing.T) {
		in := request(1)
		in.DestinationOutletID = "src"
		r := ValidateCreate(in, ledger)
		assert.Contains(t, r.Errors, "destination outlet must differ from source outlet")
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		r := ValidateCreate(request(0), ledger)
		assert.Equal(t, []string{"item 1: transfer quantity must be greater than 0"}, r.Errors)
	})

	t.Run("any short item fails the whole request", func(t *testing.T) {
		in := request(10)
		in.Items = append(in.Items, ItemInput{ProductID: "Q", Quantity: 6})
		r := ValidateCreate(in, ledger)
		require.Len(t, r.Errors, 1)
		assert.Contains(t, r.Errors[0], "insufficient stock for product Q")
		assert.Contains(t, r.Errors[0], "available 5, requested 6")
	})

	t.Run("collects everything", func(t *testing.T) {
		r := ValidateCreate(CreateInput{SourceOutletID: "src", DestinationOutletID: "src"}, ledger)
		assert.Equal(t, []string{
			"destination outlet must differ from source outlet",
			"at least one item is required",
		}, r.Errors)
	})
}

func TestCreateInput_KeysTrimIdentifiers(t *testing.T) {
	in := CreateInput{
		SourceOutletID:      "src ",
		DestinationOutletID: "\tdst",
		Items:               []ItemInput{{ProductID: " P", Quantity: 30}},
	}

	assert.Equal(t, []stock.Key{
		{OutletID: "dst", ProductID: "P"},
		{OutletID: "src", ProductID: "P"},
	}, in.Keys())
	assert.Equal(t, " P", in.Items[0].ProductID)

	ledger := stock.NewLedger().With("src", "P", 100)
	assert.True(t, ValidateCreate(in, ledger).Valid())
}

func TestNew_ShortStockConstructsNothing(t *testing.T) {
	ledger := stock.NewLedger().With("src", "P", 10)
	tr, r := New(request(11), ledger, "TRF-20260115-0001", now)
	assert.Nil(t, tr)
	assert.False(t, r.Valid())
	assert.Equal(t, int64(10), ledger.Get("src", "P"))
}

func TestTransferScenario(t *testing.T) {
	ledger := stock.NewLedger().With("src", "P", 100)

	tr, r := New(request(30), ledger, "TRF-20260115-0001", now)
	require.True(t, r.Valid())
	assert.Equal(t, StatusPending, tr.Status)

	approved, err := Approve(*tr, "mgr", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "mgr", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	res, err := Complete(ledger, approved, "clerk", now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, res.Transfer.Status)
	require.NotNil(t, res.Transfer.CompletedAt)
	assert.Equal(t, int64(70), res.Ledger.Get("src", "P"))
	assert.Equal(t, int64(30), res.Ledger.Get("dst", "P"))
	assert.Equal(t, ledger.ProductTotal("P"), res.Ledger.ProductTotal("P"))

	require.Len(t, res.Movements, 2)
	assert.Equal(t, entity.MovementTransferOut, res.Movements[0].Type)
	assert.Equal(t, int64(-30), res.Movements[0].Quantity)
	assert.Equal(t, "src", res.Movements[0].OutletID)
	assert.Equal(t, entity.MovementTransferIn, res.Movements[1].Type)
	assert.Equal(t, int64(30), res.Movements[1].Quantity)
	assert.Equal(t, "dst", res.Movements[1].OutletID)
	assert.Equal(t, tr.ID, res.Movements[1].RecorderID)

	assert.Equal(t, int64(100), ledger.Get("src", "P"), "input ledger must be untouched")
}

func TestConservation(t *testing.T) {
	cases := []struct{ s, d, q int64 }{
		{1, 0, 1}, {50, 50, 25}, {7, 1000, 7}, {999, 3, 1},
	}
	for _, c := range cases {
		ledger := stock.NewLedger().With("src", "P", c.s).With("dst", "P", c.d)
		tr, r := New(request(c.q), ledger, "TRF-20260115-0001", now)
		require.True(t, r.Valid())
		approved, err := Approve(*tr, "mgr", now)
		require.NoError(t, err)

		res, err := Complete(ledger, approved, "clerk", now)
		require.NoError(t, err)
		assert.Equal(t, c.s-c.q, res.Ledger.Get("src", "P"))
		assert.Equal(t, c.d+c.q, res.Ledger.Get("dst", "P"))
		assert.Equal(t, c.s+c.d, res.Ledger.Get("src", "P")+res.Ledger.Get("dst", "P"))
	}
}

func TestComplete_RevalidatesStock(t *testing.T) {
	ledger := stock.NewLedger().With("src", "P", 100)
	tr, _ := New(request(30), ledger, "TRF-20260115-0001", now)
	approved, _ := Approve(*tr, "mgr", now)

	drained := ledger.With("src", "P", 20)
	_, err := Complete(drained, approved, "clerk", now)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Contains(t, err.Error(), "insufficient stock")

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "P", appErr.Details["product_id"])
	assert.Equal(t, int64(20), appErr.Details["available"])
	assert.Equal(t, int64(30), appErr.Details["requested"])
	assert.Equal(t, int64(20), drained.Get("src", "P"))
}

func TestComplete_RequiresApproved(t *testing.T) {
	ledger := stock.NewLedger().With("src", "P", 100)
	tr, _ := New(request(30), ledger, "TRF-20260115-0001", now)

	_, err := Complete(ledger, *tr, "clerk", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only approved transfers can be completed")
	assert.Contains(t, err.Error(), "pending")
}

func TestApprove_OnlyPending(t *testing.T) {
	ledger := stock.NewLedger().With("src", "P", 100)
	tr, _ := New(request(30), ledger, "TRF-20260115-0001", now)
	approved, _ := Approve(*tr, "mgr", now)

	_, err := Approve(approved, "mgr", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only pending transfers can be approved")
	assert.Contains(t, err.Error(), "approved")
}

func TestCancel(t *testing.T) {
	ledger := stock.NewLedger().With("src", "P", 100)
	tr, _ := New(request(30), ledger, "TRF-20260115-0001", now)

	cancelled, err := Cancel(*tr, "wrong outlet", "mgr", now)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "wrong outlet")

	approved, _ := Approve(*tr, "mgr", now)
	_, err = Cancel(approved, "", "mgr", now)
	require.NoError(t, err)

	_, err = Cancel(cancelled, "", "mgr", now)
	assert.Contains(t, err.Error(), "already cancelled")

	res, err := Complete(ledger, approved, "clerk", now)
	require.NoError(t, err)
	_, err = Cancel(res.Transfer, "", "mgr", now)
	assert.Contains(t, err.Error(), "already completed")
	assert.True(t, apperror.IsInvalidTransition(err))
}
