// Package types provides common value types.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultDecimalPlaces is the minor-unit exponent used for display.
const DefaultDecimalPlaces = 2

// MinorUnits represents a monetary value in minor currency units (cents).
// All arithmetic is integer; conversion happens only for display.
type MinorUnits int64

// Mul multiplies an amount by a unit quantity.
func (m MinorUnits) Mul(qty int64) MinorUnits { return m * MinorUnits(qty) }

// Decimal converts minor units to a major-unit decimal (12345 → 123.45).
func (m MinorUnits) Decimal(decimalPlaces int) decimal.Decimal {
	return decimal.New(int64(m), int32(-decimalPlaces))
}

// String renders the amount with DefaultDecimalPlaces.
func (m MinorUnits) String() string {
	return m.Decimal(DefaultDecimalPlaces).StringFixed(DefaultDecimalPlaces)
}

// ParseMinorUnits parses a major-unit string ("123.45") into minor units.
// Fractions finer than decimalPlaces are rejected.
func ParseMinorUnits(s string, decimalPlaces int) (MinorUnits, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}
	scaled := d.Shift(int32(decimalPlaces))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("parse amount: %q has more than %d decimal places", s, decimalPlaces)
	}
	return MinorUnits(scaled.IntPart()), nil
}
