package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelock "backoffice/internal/core/lock"
)

// fakeStore runs the release script as one step under its mutex.
// takeover, when set, replaces a key's owner just before that step, as if
// the TTL had expired and another process had locked it.
type fakeStore struct {
	mu       sync.Mutex
	values   map[string]string
	setErr   error
	scripts  map[string]bool
	evals    int
	takeover map[string]string
}

type noScriptError struct{}

func (noScriptError) Error() string { return "NOSCRIPT No matching script" }
func (noScriptError) RedisError()   {}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeStore) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.scripts[sha1] {
		return nil, noScriptError{}
	}
	return f.compareAndDelete(keys[0], args[0].(string)), nil
}

func (f *fakeStore) Eval(ctx context.Context, script string, keys []string, args ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scripts == nil {
		f.scripts = make(map[string]bool)
	}
	f.scripts[redis.NewScript(script).Hash()] = true
	return f.compareAndDelete(keys[0], args[0].(string)), nil
}

func (f *fakeStore) compareAndDelete(key, owner string) int64 {
	f.evals++
	if other, ok := f.takeover[key]; ok {
		f.values[key] = other
	}
	if f.values[key] != owner {
		return 0
	}
	delete(f.values, key)
	return 1
}

func (f *fakeStore) held() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}

func fastConfig() RedisConfig {
	return RedisConfig{TTL: time.Second, Wait: 50 * time.Millisecond, PollInterval: time.Millisecond}
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	store := newFakeStore()
	l := newRedisLocker(store, fastConfig())

	release, err := l.Lock(context.Background(), "stock:o1:p2", "stock:o1:p1", "stock:o1:p1")
	require.NoError(t, err)
	assert.Equal(t, 2, store.held())

	release()
	assert.Equal(t, 0, store.held())

	release()
	assert.Equal(t, 0, store.held())
}

func TestRedisLocker_HeldKeyTimesOut(t *testing.T) {
	store := newFakeStore()
	l := newRedisLocker(store, fastConfig())

	release, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	defer release()

	_, err = l.Lock(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, corelock.ErrNotAcquired)

	// "a" was taken then given back
	assert.Equal(t, 1, store.held())
}

func TestRedisLocker_ReleaseKeepsForeignOwner(t *testing.T) {
	store := newFakeStore()
	l := newRedisLocker(store, fastConfig())

	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// the TTL expired and another process took the key
	store.values[keyPrefix+"k"] = "someone-else"
	release()

	assert.Equal(t, "someone-else", store.values[keyPrefix+"k"])
}

func TestRedisLocker_ReleaseAfterTakeoverKeepsNewOwner(t *testing.T) {
	store := newFakeStore()
	l := newRedisLocker(store, fastConfig())

	release, err := l.Lock(context.Background(), "stock:A:P1")
	require.NoError(t, err)

	store.takeover = map[string]string{keyPrefix + "stock:A:P1": "other-owner"}
	release()

	assert.Equal(t, "other-owner", store.values[keyPrefix+"stock:A:P1"])
	assert.Equal(t, 1, store.evals)
}

func TestRedisLocker_ReleaseLoadsScriptOnce(t *testing.T) {
	store := newFakeStore()
	l := newRedisLocker(store, fastConfig())

	for range 2 {
		release, err := l.Lock(context.Background(), "k")
		require.NoError(t, err)
		release()
		assert.Equal(t, 0, store.held())
	}

	// First release falls back to EVAL, the second hits the cached hash.
	assert.True(t, store.scripts[releaseScript.Hash()])
	assert.Equal(t, 2, store.evals)
}

func TestRedisLocker_StoreError(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("connection refused")
	l := newRedisLocker(store, fastConfig())

	_, err := l.Lock(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	store := newFakeStore()
	cfg := fastConfig()
	cfg.Wait = time.Second
	l := newRedisLocker(store, cfg)

	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()

	second, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	second()
}

func TestNewRedisLocker_RequiresClient(t *testing.T) {
	_, err := NewRedisLocker(nil, RedisConfig{})
	require.Error(t, err)
}

func TestLocalLocker_MutualExclusion(t *testing.T) {
	l := NewLocalLocker()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), "stock:o1:p1", "stock:o2:p1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.slots)
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a", "b")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// "a" must be free again
	other, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	other()

	release()
	assert.Empty(t, l.slots)
}

func TestLocalLocker_DisjointKeysDoNotBlock(t *testing.T) {
	l := NewLocalLocker()

	first, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer first()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	second, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	second()
}
