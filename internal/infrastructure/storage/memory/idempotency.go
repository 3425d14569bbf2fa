package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

type idempotencyRecord struct {
	userID      string
	operation   string
	requestHash string
	status      idempotency.Status
	replay      idempotency.Replay
	updatedAt   time.Time
	expiresAt   time.Time
}

// IdempotencyStore keeps idempotency keys in process memory.
// It lives outside DB state so document rollbacks never drop a claimed key.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]*idempotencyRecord
	ttl  time.Duration
	now  func() time.Time
}

// NewIdempotencyStore creates a store whose keys expire after ttl.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{keys: make(map[string]*idempotencyRecord), ttl: ttl, now: time.Now}
}

// SetClock overrides the time source.
func (s *IdempotencyStore) SetClock(now func() time.Time) { s.now = now }

func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.keys[key]
	if !ok || now.After(rec.expiresAt) {
		s.keys[key] = &idempotencyRecord{
			userID:      userID,
			operation:   operation,
			requestHash: requestHash,
			status:      idempotency.StatusPending,
			updatedAt:   now,
			expiresAt:   now.Add(s.ttl),
		}
		return nil, nil
	}

	if rec.userID != userID || rec.operation != operation || rec.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", rec.operation).
			WithDetail("request_operation", operation)
	}

	if rec.status != idempotency.StatusPending {
		replay := rec.replay
		replay.Body = slices.Clone(rec.replay.Body)
		return idempotency.NormalizeReplay(&replay), nil
	}

	if now.Sub(rec.updatedAt) <= idempotency.StaleAfter {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	rec.updatedAt = now
	return nil, nil
}

func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	s.finish(key, idempotency.StatusSuccess, statusCode, contentType, body)
	return nil
}

func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	s.finish(key, idempotency.StatusFailed, statusCode, contentType, body)
	return nil
}

func (s *IdempotencyStore) finish(key string, status idempotency.Status, statusCode int, contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[key]
	if !ok {
		return
	}
	rec.status = status
	rec.replay = idempotency.Replay{StatusCode: statusCode, ContentType: contentType, Body: slices.Clone(body)}
	rec.updatedAt = s.now()
}

// CleanupExpired removes expired keys.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for k, rec := range s.keys {
		if now.After(rec.expiresAt) {
			delete(s.keys, k)
			n++
		}
	}
	return n, nil
}
