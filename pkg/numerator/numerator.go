// Package numerator produces date-scoped sequential document identifiers
// of the form PREFIX-YYYYMMDD-#### (e.g. PO-20260115-0001).
// The sequence restarts at 0001 for every calendar date and is never reused.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core/apperror"
)

// Prefixes of the numbered documents.
const (
	PrefixPurchaseOrder = "PO"
	PrefixReturn        = "RTN"
	PrefixTransfer      = "TRF"
)

const (
	// DefaultPadWidth is the zero-padded width of the sequence part.
	DefaultPadWidth = 4

	dateLayout = "20060102"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers ("PO", "RTN", "TRF")
	Prefix string

	// PadWidth is the exact sequence width (default 4). It also caps the
	// daily sequence: 9999 numbers per date at width 4.
	PadWidth int
}

// DefaultConfig returns the standard four-digit daily scheme for prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: DefaultPadWidth,
	}
}

func (c Config) padWidth() int {
	if c.PadWidth <= 0 {
		return DefaultPadWidth
	}
	return c.PadWidth
}

// Capacity is the highest sequence that fits the pad width.
func (c Config) Capacity() int64 {
	limit := int64(1)
	for range c.padWidth() {
		limit *= 10
	}
	return limit - 1
}

// DatePrefix returns the part shared by every number of one date: "PO-20260115-".
func DatePrefix(prefix string, date time.Time) string {
	return prefix + "-" + date.Format(dateLayout) + "-"
}

// Format creates the final number string. A sequence wider than the pad
// width fails with IDENTIFIER_EXHAUSTED wrapping ErrExhausted.
func Format(cfg Config, date time.Time, seq int64) (string, error) {
	if seq < 1 || seq > cfg.Capacity() {
		return "", apperror.NewIdentifierExhausted(cfg.Prefix, 0).
			WithDetail("date", date.Format(dateLayout)).
			WithDetail("max_sequence", cfg.Capacity()).
			WithCause(fmt.Errorf("%w: sequence %d out of range", ErrExhausted, seq))
	}
	return fmt.Sprintf("%s%0*d", DatePrefix(cfg.Prefix, date), cfg.padWidth(), seq), nil
}

// ParseSequence extracts the sequence of number when it belongs to datePrefix.
// Returns false for numbers of another prefix or date, or a malformed suffix.
func ParseSequence(number, datePrefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(number, datePrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// MaxSequence returns the highest sequence among existing for datePrefix, 0 when none.
func MaxSequence(existing []string, datePrefix string) int64 {
	var highest int64
	for _, number := range existing {
		if seq, ok := ParseSequence(number, datePrefix); ok && seq > highest {
			highest = seq
		}
	}
	return highest
}

// Generate returns the next identifier for date given the identifiers already used.
// Identifiers of other dates or prefixes are ignored. The result is max(existing)+1,
// so gaps left by invalidated documents are never refilled.
func Generate(cfg Config, date time.Time, existing []string) (string, error) {
	datePrefix := DatePrefix(cfg.Prefix, date)
	return Format(cfg, date, MaxSequence(existing, datePrefix)+1)
}
