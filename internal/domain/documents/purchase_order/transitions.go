package purchase_order

import (
	"fmt"
	"time"
)

// checkTransition validates from → to against Lifecycle.
func checkTransition(from, to Status) error {
	if Lifecycle.IsTerminal(from) {
		return Lifecycle.Invalid(from, to, fmt.Sprintf("cannot change status of %s order", from))
	}
	if !Lifecycle.Can(from, to) {
		return Lifecycle.Invalid(from, to, fmt.Sprintf("cannot transition order from %s to %s", from, to))
	}
	return nil
}

// ChangeStatus moves po to target and stamps the update.
// Receiving carries stock effects and must go through Receive.
func ChangeStatus(po PurchaseOrder, target Status, actor string, at time.Time) (PurchaseOrder, error) {
	if err := checkTransition(po.Status, target); err != nil {
		return po, err
	}
	if target == StatusReceived {
		return po, Lifecycle.Invalid(po.Status, target,
			"orders are received through the receive operation with item quantities")
	}

	next := po.Clone()
	next.Status = target
	next.Touch(actor, at)
	return next, nil
}

// Approve moves a pending order to approved.
func Approve(po PurchaseOrder, actor string, at time.Time) (PurchaseOrder, error) {
	return ChangeStatus(po, StatusApproved, actor, at)
}

// Cancel moves a pending or approved order to cancelled, appending reason to the notes.
func Cancel(po PurchaseOrder, reason, actor string, at time.Time) (PurchaseOrder, error) {
	next, err := ChangeStatus(po, StatusCancelled, actor, at)
	if err != nil {
		return po, err
	}
	if reason != "" {
		next.AppendNote("Cancelled: " + reason)
	}
	return next, nil
}
