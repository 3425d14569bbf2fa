// Package idempotency defines how replayed mutating requests are recognized.
package idempotency

import (
	"context"
	"time"
)

// Status of a recorded request.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StaleAfter is how long a pending key may stay claimed before it is reclaimed.
const StaleAfter = time.Minute

// Replay is a stored response returned instead of executing the request again.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store records idempotency keys and their outcome.
//
// AcquireKey returns (nil, nil) when the caller now owns the key, a Replay
// when the request already finished, and an error when the key is in flight
// or was used for a different request.
type Store interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
}

// NormalizeReplay fills defaults for records stored without status or content type.
func NormalizeReplay(r *Replay) *Replay {
	if r.StatusCode == 0 {
		r.StatusCode = 200
	}
	if r.ContentType == "" && len(r.Body) > 0 {
		r.ContentType = "application/json"
	}
	return r
}
