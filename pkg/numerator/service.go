package numerator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/pkg/logger"
)

// DefaultMaxRetries is the number of candidates tried before giving up.
const DefaultMaxRetries = 3

// ErrExhausted is wrapped by the error returned when every candidate collided.
var ErrExhausted = errors.New("could not generate unique identifier")

// Store gives the numerator read access to persisted identifiers of one document type.
type Store interface {
	// MaxSequence returns the highest sequence persisted under datePrefix, 0 when none.
	MaxSequence(ctx context.Context, datePrefix string) (int64, error)

	// Exists reports whether number is already taken.
	Exists(ctx context.Context, number string) (bool, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// Service issues identifiers backed by a persistent Store.
//
// Each attempt takes the larger of the store's max sequence and the last
// sequence issued by this process, adds one, and re-checks existence.
// The store's uniqueness constraint remains the final backstop.
type Service struct {
	cfg        Config
	store      Store
	maxRetries int

	mu   sync.Mutex
	last map[string]int64 // datePrefix -> last issued sequence
}

// New creates a numerator service for one document type.
func New(cfg Config, store Store, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		store:      store,
		maxRetries: DefaultMaxRetries,
		last:       make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next generates the next identifier for date.
func (s *Service) Next(ctx context.Context, date time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	datePrefix := DatePrefix(s.cfg.Prefix, date)

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		dbMax, err := s.store.MaxSequence(ctx, datePrefix)
		if err != nil {
			return "", fmt.Errorf("numerator max sequence: %w", err)
		}

		candidate, err := Format(s.cfg, date, s.reserve(datePrefix, dbMax))
		if err != nil {
			return "", err
		}

		exists, err := s.store.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("numerator exists check: %w", err)
		}
		if !exists {
			return candidate, nil
		}

		logger.Warn(ctx, "identifier collision",
			"candidate", candidate,
			"attempt", attempt,
		)
	}

	return "", apperror.NewIdentifierExhausted(s.cfg.Prefix, s.maxRetries).WithCause(ErrExhausted)
}

// reserve hands out max(dbMax, last issued)+1 for datePrefix and forgets other dates.
func (s *Service) reserve(datePrefix string, dbMax int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.last {
		if k != datePrefix {
			delete(s.last, k)
		}
	}
	seq := max(dbMax, s.last[datePrefix]) + 1
	s.last[datePrefix] = seq
	return seq
}
