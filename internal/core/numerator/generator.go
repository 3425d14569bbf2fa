// Package numerator provides the domain contract for document numbering.
// The implementation lives in pkg/numerator.
package numerator

import (
	"context"
	"time"
)

// Generator issues the next date-scoped identifier for one document type.
type Generator interface {
	Next(ctx context.Context, date time.Time) (string, error)
}
