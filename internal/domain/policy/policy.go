// Package policy evaluates return eligibility against the active return policy.
// The predicates are pure; callers supply every input including "now".
package policy

import (
	"slices"
	"time"

	"backoffice/internal/core/id"
)

// ReturnPolicy is read-only configuration supplied by the policy store.
type ReturnPolicy struct {
	ID                      id.ID    `db:"id" json:"id"`
	Name                    string   `db:"name" json:"name"`
	MaxReturnDays           int      `db:"max_return_days" json:"maxReturnDays"`
	NonReturnableCategories []string `db:"non_returnable_categories" json:"nonReturnableCategories"`
	RequireReceipt          bool     `db:"require_receipt" json:"requireReceipt"`
	IsActive                bool     `db:"is_active" json:"isActive"`

	// ApprovalRule is an optional CEL expression; when it evaluates to true
	// the return needs approval even inside the window.
	ApprovalRule string `db:"approval_rule" json:"approvalRule,omitempty"`
}

// DefaultPolicy is used when the store has no active policy.
func DefaultPolicy() ReturnPolicy {
	return ReturnPolicy{
		Name:          "default",
		MaxReturnDays: 30,
		IsActive:      true,
	}
}

// DaysBetween is the whole-day absolute difference between a and b.
func DaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

// IsWithinReturnWindow reports whether the sale is no older than MaxReturnDays.
func IsWithinReturnWindow(p ReturnPolicy, saleDate, now time.Time) bool {
	return DaysBetween(saleDate, now) <= p.MaxReturnDays
}

// IsCategoryReturnable reports whether a category is not deny-listed.
// Products without a category are always returnable.
func IsCategoryReturnable(p ReturnPolicy, categoryID string) bool {
	if categoryID == "" {
		return true
	}
	return !slices.Contains(p.NonReturnableCategories, categoryID)
}

// Product is the slice of catalog data the evaluator needs.
type Product struct {
	ProductID  string
	CategoryID string
}

// Decision is the outcome of Evaluate.
type Decision struct {
	// Allowed is false when a product is blocked outright.
	Allowed bool

	// RequiresApproval is set when the sale is outside the return window.
	RequiresApproval bool

	DaysSinceSale     int
	BlockedProductID  string
	BlockedCategoryID string
}

// Evaluate composes the category and date predicates.
// A blocked category fails the whole check regardless of the date;
// the date only decides whether approval is required.
// An inactive policy imposes nothing.
func Evaluate(p ReturnPolicy, saleDate, now time.Time, products []Product) Decision {
	d := Decision{
		Allowed:       true,
		DaysSinceSale: DaysBetween(saleDate, now),
	}
	if !p.IsActive {
		return d
	}

	for _, prod := range products {
		if !IsCategoryReturnable(p, prod.CategoryID) {
			d.Allowed = false
			d.BlockedProductID = prod.ProductID
			d.BlockedCategoryID = prod.CategoryID
			return d
		}
	}

	d.RequiresApproval = d.DaysSinceSale > p.MaxReturnDays
	return d
}
