package sales_return

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/domain/policy"
	"backoffice/internal/domain/registers/stock"
)

func pendingReturn(t *testing.T) Return {
	t.Helper()
	in := returnInput(
		ItemInput{TransactionItemID: "line-1", Quantity: 2, Reason: ReasonChangedMind},
		ItemInput{TransactionItemID: "line-3", Quantity: 1, Reason: ReasonDamaged, IsDamaged: true},
	)
	ret, r := New(in, testSale(), nil, policy.DefaultPolicy(), true, "RTN-20260115-0001", now)
	require.True(t, r.Valid(), r.Errors)
	return *ret
}

func TestApprove(t *testing.T) {
	ret := pendingReturn(t)

	approved, err := Approve(ret, "manager-1", "loyal customer", now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "manager-1", approved.ApprovedBy)
	assert.Equal(t, "loyal customer", approved.ApprovalReason)
	require.NotNil(t, approved.ApprovedAt)

	assert.Equal(t, ret.ID, approved.ID)
	assert.Equal(t, ret.Number, approved.Number)
	assert.Equal(t, ret.TransactionID, approved.TransactionID)
	assert.Equal(t, ret.TotalRefund, approved.TotalRefund)
	assert.Equal(t, ret.CreatedBy, approved.CreatedBy)
	assert.Equal(t, StatusPendingApproval, ret.Status, "input must be untouched")
}

func TestApprove_RequiresApproverAndReason(t *testing.T) {
	_, err := Approve(pendingReturn(t), "", " ", now)
	require.Error(t, err)
	assert.Equal(t, []string{"approver id is required", "approval reason is required"}, apperror.ValidationMessages(err))
}

func TestReject(t *testing.T) {
	ret := pendingReturn(t)

	_, err := Reject(ret, "", "manager-1", now)
	assert.True(t, apperror.IsValidation(err))

	rejected, err := Reject(ret, "outside policy", "manager-1", now)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "outside policy", rejected.RejectedReason)
	assert.Equal(t, ret.TotalRefund, rejected.TotalRefund)
	assert.Equal(t, ret.Number, rejected.Number)
}

func TestDecisionOnlyFromPending(t *testing.T) {
	base := pendingReturn(t)
	tests := []struct {
		status Status
		want   string
	}{
		{StatusCompleted, "return has already been completed"},
		{StatusCancelled, "return has been cancelled"},
		{StatusRejected, "return has already been rejected"},
		{StatusApproved, "return has already been approved"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			ret := base.Clone()
			ret.Status = tt.status

			_, err := Approve(ret, "manager-1", "ok", now)
			require.Error(t, err)
			assert.True(t, apperror.IsInvalidTransition(err))
			assert.Contains(t, err.Error(), tt.want)

			_, err = Reject(ret, "no", "manager-1", now)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestComplete_RestocksResellableOnly(t *testing.T) {
	approved, err := Approve(pendingReturn(t), "manager-1", "ok", now)
	require.NoError(t, err)

	ledger := stock.NewLedger().With("outlet-1", "P1", 4)
	res, err := Complete(ledger, approved, RefundCard, "cashier", now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, res.Return.Status)
	assert.Equal(t, RefundCard, res.Return.RefundMethod)
	require.NotNil(t, res.Return.CompletedAt)

	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementReturn, res.Movements[0].Type)
	assert.Equal(t, "P1", res.Movements[0].ProductID)
	assert.Equal(t, int64(2), res.Movements[0].Quantity)
	assert.Equal(t, approved.ID, res.Movements[0].RecorderID)

	assert.Equal(t, int64(6), res.Ledger.Get("outlet-1", "P1"))
	assert.Zero(t, res.Ledger.Get("outlet-1", "P3"))
	assert.Equal(t, int64(4), ledger.Get("outlet-1", "P1"))
}

func TestComplete_Guards(t *testing.T) {
	ret := pendingReturn(t)

	_, err := Complete(stock.NewLedger(), ret, RefundCash, "cashier", now)
	assert.Contains(t, err.Error(), "requires approval")

	approved, _ := Approve(ret, "manager-1", "ok", now)
	_, err = Complete(stock.NewLedger(), approved, "cheque", "cashier", now)
	assert.True(t, apperror.IsValidation(err))

	res, err := Complete(stock.NewLedger(), approved, RefundStoreCredit, "cashier", now)
	require.NoError(t, err)
	_, err = Complete(stock.NewLedger(), res.Return, RefundCash, "cashier", now)
	assert.Contains(t, err.Error(), "only approved returns can be completed")
}

func TestCancel(t *testing.T) {
	ret := pendingReturn(t)

	cancelled, err := Cancel(ret, "customer left", "cashier", now)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "customer left")

	approved, _ := Approve(ret, "manager-1", "ok", now)
	_, err = Cancel(approved, "", "cashier", now)
	require.NoError(t, err)

	res, _ := Complete(stock.NewLedger(), approved, RefundCash, "cashier", now)
	_, err = Cancel(res.Return, "", "cashier", now)
	assert.Contains(t, err.Error(), "completed returns cannot be cancelled")

	_, err = Cancel(cancelled, "", "cashier", now)
	assert.Contains(t, err.Error(), "already been cancelled")
}
