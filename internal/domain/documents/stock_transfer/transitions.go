package stock_transfer

import (
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/domain/registers/stock"
)

func invalid(from, to Status, format string, args ...any) error {
	return Lifecycle.Invalid(from, to, fmt.Sprintf(format, args...))
}

// Approve records approval of a pending transfer. Stock is not touched.
func Approve(t StockTransfer, approverID string, at time.Time) (StockTransfer, error) {
	if t.Status != StatusPending {
		return t, invalid(t.Status, StatusApproved,
			"only pending transfers can be approved (current status: %s)", t.Status)
	}

	next := t.Clone()
	next.Status = StatusApproved
	next.ApprovedBy = approverID
	approvedAt := at.UTC()
	next.ApprovedAt = &approvedAt
	next.Touch(approverID, at)
	return next, nil
}

// Cancel stops a pending or approved transfer.
func Cancel(t StockTransfer, reason, actor string, at time.Time) (StockTransfer, error) {
	switch t.Status {
	case StatusCompleted:
		return t, invalid(t.Status, StatusCancelled, "transfer already completed")
	case StatusCancelled:
		return t, invalid(t.Status, StatusCancelled, "transfer already cancelled")
	}
	if !Lifecycle.Can(t.Status, StatusCancelled) {
		return t, invalid(t.Status, StatusCancelled, "cannot cancel transfer in %s status", t.Status)
	}

	next := t.Clone()
	next.Status = StatusCancelled
	cancelledAt := at.UTC()
	next.CancelledAt = &cancelledAt
	if reason != "" {
		next.AppendNote("Cancelled: " + reason)
	}
	next.Touch(actor, at)
	return next, nil
}

// CompleteResult is the new transfer and ledger state after completion.
type CompleteResult struct {
	Transfer  StockTransfer          `json:"transfer"`
	Ledger    stock.Ledger           `json:"-"`
	Movements []entity.StockMovement `json:"movements"`
}

// Complete moves the goods: each item leaves the source and enters the destination.
//
// Availability is re-checked against ledger first since stock may have moved
// after approval; on any shortage nothing is applied. Per product, the sum of
// source and destination balances is unchanged.
func Complete(ledger stock.Ledger, t StockTransfer, actor string, at time.Time) (CompleteResult, error) {
	if t.Status != StatusApproved {
		return CompleteResult{}, invalid(t.Status, StatusCompleted,
			"only approved transfers can be completed (current status: %s)", t.Status)
	}

	movements := make([]entity.StockMovement, 0, 2*len(t.Items))
	for _, item := range t.Items {
		movements = append(movements,
			entity.NewStockMovement(t.ID, DocumentType, t.Number, entity.MovementTransferOut,
				t.SourceOutletID, item.ProductID, -item.Quantity, actor, at),
			entity.NewStockMovement(t.ID, DocumentType, t.Number, entity.MovementTransferIn,
				t.DestinationOutletID, item.ProductID, item.Quantity, actor, at),
		)
	}

	nextLedger, err := ledger.Apply(movements)
	if err != nil {
		return CompleteResult{}, err
	}
	for _, item := range t.Items {
		before, after := ledger.ProductTotal(item.ProductID), nextLedger.ProductTotal(item.ProductID)
		if before != after {
			return CompleteResult{}, apperror.NewInternal(fmt.Errorf(
				"transfer %s changed total stock of product %s from %d to %d", t.Number, item.ProductID, before, after))
		}
	}

	next := t.Clone()
	next.Status = StatusCompleted
	completedAt := at.UTC()
	next.CompletedAt = &completedAt
	next.Touch(actor, at)

	return CompleteResult{
		Transfer:  next,
		Ledger:    nextLedger,
		Movements: movements,
	}, nil
}
