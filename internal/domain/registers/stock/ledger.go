// Package stock provides the per-(outlet, product) stock ledger.
package stock

import (
	"cmp"
	"maps"
	"slices"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
)

// Key identifies one ledger entry.
type Key struct {
	OutletID  string
	ProductID string
}

// LockKey is the name under which writes to this entry are serialized.
func (k Key) LockKey() string {
	return "stock:" + k.OutletID + ":" + k.ProductID
}

// Ledger maps (outlet, product) to an on-hand quantity. Absent keys read as zero.
//
// Lifecycle code treats a Ledger as a value: it never mutates the map it was
// given and returns a new one instead.
type Ledger map[Key]int64

// Shortage is a structured insufficient-stock entry attached to validation
// errors under the "shortages" detail key.
type Shortage struct {
	OutletID  string `json:"outlet_id"`
	ProductID string `json:"product_id"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
}

// Shortages extracts the shortage entries carried by a validation error.
func Shortages(err error) []Shortage {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return nil
	}
	entries, _ := appErr.Details["shortages"].([]any)
	out := make([]Shortage, 0, len(entries))
	for _, e := range entries {
		if s, ok := e.(Shortage); ok {
			out = append(out, s)
		}
	}
	return out
}

// NewLedger returns an empty ledger.
func NewLedger() Ledger { return Ledger{} }

// FromBalances builds a ledger from persisted balance rows.
func FromBalances(balances []entity.StockBalance) Ledger {
	l := make(Ledger, len(balances))
	for _, b := range balances {
		l[Key{OutletID: b.OutletID, ProductID: b.ProductID}] = b.Quantity
	}
	return l
}

// Get returns the quantity at (outletID, productID).
func (l Ledger) Get(outletID, productID string) int64 {
	return l[Key{OutletID: outletID, ProductID: productID}]
}

// With returns a copy of l with (outletID, productID) set to qty.
func (l Ledger) With(outletID, productID string, qty int64) Ledger {
	next := l.Clone()
	next[Key{OutletID: outletID, ProductID: productID}] = qty
	return next
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return Ledger{}
	}
	return maps.Clone(l)
}

// ProductTotal sums a product's quantity across every outlet in the ledger.
func (l Ledger) ProductTotal(productID string) int64 {
	var total int64
	for k, qty := range l {
		if k.ProductID == productID {
			total += qty
		}
	}
	return total
}

// Apply returns a new ledger with movements applied in order.
// It fails with INSUFFICIENT_STOCK, leaving l untouched, if any entry would go negative.
func (l Ledger) Apply(movements []entity.StockMovement) (Ledger, error) {
	next := l.Clone()
	for _, m := range movements {
		k := Key{OutletID: m.OutletID, ProductID: m.ProductID}
		current := next[k]
		if current+m.Quantity < 0 {
			return l, apperror.NewInsufficientStock(m.OutletID, m.ProductID, -m.Quantity, current)
		}
		next[k] = current + m.Quantity
	}
	return next, nil
}

// Subset returns the entries of l for keys (zero when absent).
func (l Ledger) Subset(keys []Key) Ledger {
	out := make(Ledger, len(keys))
	for _, k := range keys {
		out[k] = l[k]
	}
	return out
}

// Keys returns the ledger keys in deterministic order.
func (l Ledger) Keys() []Key {
	return SortKeys(slices.Collect(maps.Keys(l)))
}

// Balances converts the ledger into balance rows ordered by key.
func (l Ledger) Balances() []entity.StockBalance {
	keys := l.Keys()
	out := make([]entity.StockBalance, 0, len(keys))
	for _, k := range keys {
		out = append(out, entity.StockBalance{OutletID: k.OutletID, ProductID: k.ProductID, Quantity: l[k]})
	}
	return out
}

// KeysOf returns the distinct keys touched by movements, sorted.
func KeysOf(movements []entity.StockMovement) []Key {
	seen := make(map[Key]struct{}, len(movements))
	keys := make([]Key, 0, len(movements))
	for _, m := range movements {
		k := Key{OutletID: m.OutletID, ProductID: m.ProductID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return SortKeys(keys)
}

// SortKeys orders keys by outlet then product, removing duplicates.
func SortKeys(keys []Key) []Key {
	sorted := slices.Clone(keys)
	slices.SortFunc(sorted, func(a, b Key) int {
		if c := cmp.Compare(a.OutletID, b.OutletID); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return slices.Compact(sorted)
}

// LockKeys maps keys to their lock names.
func LockKeys(keys []Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range SortKeys(keys) {
		out = append(out, k.LockKey())
	}
	return out
}
