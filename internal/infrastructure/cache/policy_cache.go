// Package cache keeps the active return policy in memory and reloads it when
// PostgreSQL announces a change via LISTEN/NOTIFY.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/policy"
	"backoffice/pkg/logger"
)

// PolicyChangedChannel is notified by triggers on cfg_return_policies.
const PolicyChangedChannel = "return_policy_changed"

var _ sales_return.PolicyStore = (*PolicyCache)(nil)

// PolicyCache serves ActivePolicy from memory.
// Until Start is called every read goes to the source.
type PolicyCache struct {
	source sales_return.PolicyStore
	pool   *pgxpool.Pool

	mu     sync.RWMutex
	loaded bool
	active *policy.ReturnPolicy

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewPolicyCache creates a cache in front of source. pool may be nil, in which
// case changes are only picked up through Invalidate.
func NewPolicyCache(source sales_return.PolicyStore, pool *pgxpool.Pool) *PolicyCache {
	return &PolicyCache{source: source, pool: pool}
}

// ActivePolicy returns the cached policy, loading it on first use.
func (c *PolicyCache) ActivePolicy(ctx context.Context) (*policy.ReturnPolicy, error) {
	c.mu.RLock()
	if c.loaded {
		p := clonePolicy(c.active)
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	if err := c.reload(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePolicy(c.active), nil
}

// Invalidate drops the cached policy; the next read reloads it.
func (c *PolicyCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.active = nil
	c.mu.Unlock()
}

func (c *PolicyCache) reload(ctx context.Context) error {
	p, err := c.source.ActivePolicy(ctx)
	if err != nil {
		return fmt.Errorf("load active policy: %w", err)
	}

	c.mu.Lock()
	c.active = p
	c.loaded = true
	c.mu.Unlock()

	name := "default"
	if p != nil {
		name = p.Name
	}
	logger.Debug(ctx, "return policy loaded", "policy", name)
	return nil
}

func clonePolicy(p *policy.ReturnPolicy) *policy.ReturnPolicy {
	if p == nil {
		return nil
	}
	out := *p
	out.NonReturnableCategories = append([]string(nil), p.NonReturnableCategories...)
	return &out
}

// Start loads the policy and begins listening for change notifications.
func (c *PolicyCache) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.reload(c.ctx); err != nil {
		c.Stop()
		return err
	}

	if c.pool != nil {
		c.wg.Add(1)
		go c.listenLoop()
	}
	logger.Info(c.ctx, "policy cache started")
	return nil
}

// Stop gracefully stops the listener.
func (c *PolicyCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "policy cache stopped")
}

func (c *PolicyCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			c.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, "LISTEN "+PolicyChangedChannel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			c.sleep(time.Second)
			continue
		}

		// A notification may have been missed while reconnecting.
		c.handleNotification(PolicyChangedChannel)
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *PolicyCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				// listen timeout
				continue
			}
			logger.Warn(c.ctx, "notification wait failed, reconnecting", "error", err)
			return
		}

		c.handleNotification(notification.Channel)
	}
}

func (c *PolicyCache) handleNotification(channel string) {
	if channel != PolicyChangedChannel {
		return
	}
	if err := c.reload(c.ctx); err != nil {
		logger.Error(c.ctx, "failed to reload return policy", "error", err)
		c.Invalidate()
	}
}

func (c *PolicyCache) sleep(d time.Duration) {
	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}
