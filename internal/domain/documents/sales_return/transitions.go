package sales_return

import (
	"fmt"
	"strings"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/domain"
	"backoffice/internal/domain/registers/stock"
)

func invalid(from, to Status, format string, args ...any) error {
	return Lifecycle.Invalid(from, to, fmt.Sprintf(format, args...))
}

// checkDecision guards approve and reject: only pending_approval returns are open.
func checkDecision(r Return, to Status) error {
	switch r.Status {
	case StatusPendingApproval:
		return nil
	case StatusCompleted:
		return invalid(r.Status, to, "return has already been completed")
	case StatusCancelled:
		return invalid(r.Status, to, "return has been cancelled")
	case StatusRejected:
		return invalid(r.Status, to, "return has already been rejected")
	case StatusApproved:
		return invalid(r.Status, to, "return has already been approved")
	default:
		return invalid(r.Status, to, "return is not pending approval (current status: %s)", r.Status)
	}
}

// Approve lets a pending return proceed. The approver and reason are recorded;
// every other field is preserved.
func Approve(r Return, approverID, reason string, at time.Time) (Return, error) {
	if err := checkDecision(r, StatusApproved); err != nil {
		return r, err
	}

	var v domain.ValidationResult
	v.RequireNonBlank(approverID, "approver id is required")
	v.RequireNonBlank(reason, "approval reason is required")
	if err := v.Err(); err != nil {
		return r, err
	}

	next := r.Clone()
	next.Status = StatusApproved
	next.ApprovedBy = approverID
	next.ApprovalReason = strings.TrimSpace(reason)
	approvedAt := at.UTC()
	next.ApprovedAt = &approvedAt
	next.Touch(approverID, at)
	return next, nil
}

// Reject closes a pending return without refund.
func Reject(r Return, reason, actor string, at time.Time) (Return, error) {
	if err := checkDecision(r, StatusRejected); err != nil {
		return r, err
	}

	var v domain.ValidationResult
	v.RequireNonBlank(reason, "rejection reason is required")
	if err := v.Err(); err != nil {
		return r, err
	}

	next := r.Clone()
	next.Status = StatusRejected
	next.RejectedReason = strings.TrimSpace(reason)
	next.Touch(actor, at)
	return next, nil
}

// Cancel withdraws a return that has not been completed. No stock effect.
func Cancel(r Return, reason, actor string, at time.Time) (Return, error) {
	if !Lifecycle.Can(r.Status, StatusCancelled) {
		switch r.Status {
		case StatusCompleted:
			return r, invalid(r.Status, StatusCancelled, "completed returns cannot be cancelled")
		case StatusCancelled:
			return r, invalid(r.Status, StatusCancelled, "return has already been cancelled")
		default:
			return r, invalid(r.Status, StatusCancelled, "cannot cancel return in %s status", r.Status)
		}
	}

	next := r.Clone()
	next.Status = StatusCancelled
	if reason != "" {
		next.AppendNote("Cancelled: " + reason)
	}
	next.Touch(actor, at)
	return next, nil
}

// CompleteResult is the new return and ledger state after completion.
type CompleteResult struct {
	Return    Return                 `json:"return"`
	Ledger    stock.Ledger           `json:"-"`
	Movements []entity.StockMovement `json:"movements"`
}

// Complete pays out the refund. Resellable items go back on the shelf at the
// return's outlet; damaged ones do not touch the ledger.
func Complete(ledger stock.Ledger, r Return, method RefundMethod, actor string, at time.Time) (CompleteResult, error) {
	switch r.Status {
	case StatusApproved:
	case StatusPendingApproval:
		return CompleteResult{}, invalid(r.Status, StatusCompleted,
			"return requires approval before it can be completed")
	default:
		return CompleteResult{}, invalid(r.Status, StatusCompleted,
			"only approved returns can be completed (current status: %s)", r.Status)
	}

	if !method.IsValid() {
		return CompleteResult{}, apperror.NewValidation(
			fmt.Sprintf("refund method must be one of %s", joinValues(RefundMethods)))
	}

	var movements []entity.StockMovement
	for _, item := range r.Items {
		if !item.IsResellable || item.Quantity <= 0 {
			continue
		}
		movements = append(movements, entity.NewStockMovement(
			r.ID, DocumentType, r.Number, entity.MovementReturn,
			r.OutletID, item.ProductID, item.Quantity, actor, at))
	}

	nextLedger, err := ledger.Apply(movements)
	if err != nil {
		return CompleteResult{}, err
	}

	next := r.Clone()
	next.Status = StatusCompleted
	next.RefundMethod = method
	completedAt := at.UTC()
	next.CompletedAt = &completedAt
	next.Touch(actor, at)

	return CompleteResult{
		Return:    next,
		Ledger:    nextLedger,
		Movements: movements,
	}, nil
}
