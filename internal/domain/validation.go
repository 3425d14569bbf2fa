package domain

import (
	"fmt"
	"slices"
	"strings"

	"backoffice/internal/core/apperror"
)

// ValidationResult collects every violation found in an input.
// It never short-circuits: all problems are reported together.
type ValidationResult struct {
	Errors []string `json:"errors"`

	// Details holds machine-readable entries keyed by kind, e.g. "shortages".
	Details map[string][]any `json:"details,omitempty"`
}

// Valid reports whether no violation was recorded.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Add records a violation.
func (r *ValidationResult) Add(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Addf records a formatted violation.
func (r *ValidationResult) Addf(format string, args ...any) {
	r.Add(fmt.Sprintf(format, args...))
}

// AddDetail appends a structured entry under key.
func (r *ValidationResult) AddDetail(key string, entry any) {
	if r.Details == nil {
		r.Details = make(map[string][]any)
	}
	r.Details[key] = append(r.Details[key], entry)
}

// RequireNonBlank records msg when value is empty after trimming.
func (r *ValidationResult) RequireNonBlank(value, msg string) {
	if strings.TrimSpace(value) == "" {
		r.Add(msg)
	}
}

// Err converts the result into a VALIDATION AppError, nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	appErr := apperror.NewValidationList(r.Errors)
	for key, entries := range r.Details {
		appErr.WithDetail(key, slices.Clone(entries))
	}
	return appErr
}
