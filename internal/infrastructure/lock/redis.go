// Package lock implements core/lock.Locker with Redis for multi-instance
// deployments and in process for a single instance.
package lock

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	corelock "backoffice/internal/core/lock"
	"backoffice/pkg/logger"
)

const (
	defaultTTL          = 30 * time.Second
	defaultWait         = 5 * time.Second
	defaultPollInterval = 25 * time.Millisecond
	keyPrefix           = "backoffice:lock:"
)

// releaseSource deletes KEYS[1] only while it still holds the caller's token.
const releaseSource = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

var releaseScript = redis.NewScript(releaseSource)

// redisStore defines the operations used by RedisLocker.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) (any, error)
	Eval(ctx context.Context, script string, keys []string, args ...any) (any, error)
}

type clientStore struct {
	client redis.Cmdable
}

func (s clientStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s clientStore) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) (any, error) {
	return s.client.EvalSha(ctx, sha1, keys, args...).Result()
}

func (s clientStore) Eval(ctx context.Context, script string, keys []string, args ...any) (any, error) {
	return s.client.Eval(ctx, script, keys, args...).Result()
}

// RedisConfig tunes RedisLocker.
type RedisConfig struct {
	// TTL bounds how long a crashed holder can block others
	TTL time.Duration

	// Wait is how long Lock retries a held key before giving up
	Wait time.Duration

	PollInterval time.Duration
}

// RedisLocker implements corelock.Locker with SET NX + TTL per key.
type RedisLocker struct {
	store redisStore
	cfg   RedisConfig
}

var _ corelock.Locker = (*RedisLocker)(nil)

// NewRedisLocker constructs a Redis-backed locker.
func NewRedisLocker(client redis.Cmdable, cfg RedisConfig) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for locker")
	}
	return newRedisLocker(clientStore{client: client}, cfg), nil
}

func newRedisLocker(store redisStore, cfg RedisConfig) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Wait <= 0 {
		cfg.Wait = defaultWait
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &RedisLocker{store: store, cfg: cfg}
}

// Lock acquires keys in sorted order, retrying each until Wait elapses.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	owner := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.Wait)
	defer cancel()

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.acquire(waitCtx, keyPrefix+key, owner); err != nil {
			l.release(held, owner)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s: %v", corelock.ErrNotAcquired, key, err)
		}
		held = append(held, keyPrefix+key)
	}

	return sync.OnceFunc(func() { l.release(held, owner) }), nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, owner string) error {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.store.SetNX(ctx, key, owner, l.cfg.TTL)
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("setnx: %w", err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// release frees keys still owned by owner, in reverse order. The owner
// check and the delete run as one script so a key that expired and was
// taken by another process is left alone.
func (l *RedisLocker) release(keys []string, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, key := range slices.Backward(keys) {
		if err := l.releaseKey(ctx, key, owner); err != nil {
			logger.Warn(ctx, "release lock failed", "key", key, "error", err)
		}
	}
}

func (l *RedisLocker) releaseKey(ctx context.Context, key, owner string) error {
	keys := []string{key}
	_, err := l.store.EvalSha(ctx, releaseScript.Hash(), keys, owner)
	if err != nil && redis.HasErrorPrefix(err, "NOSCRIPT") {
		_, err = l.store.Eval(ctx, releaseSource, keys, owner)
	}
	return err
}

// normalize sorts keys and drops duplicates and blanks.
func normalize(keys []string) []string {
	out := slices.DeleteFunc(slices.Clone(keys), func(k string) bool { return k == "" })
	slices.Sort(out)
	return slices.Compact(out)
}
