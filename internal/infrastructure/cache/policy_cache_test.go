package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/domain/policy"
)

type fakeSource struct {
	calls  int
	policy *policy.ReturnPolicy
	err    error
}

func (f *fakeSource) ActivePolicy(ctx context.Context) (*policy.ReturnPolicy, error) {
	f.calls++
	return f.policy, f.err
}

func TestPolicyCache_LoadsOnce(t *testing.T) {
	src := &fakeSource{policy: &policy.ReturnPolicy{Name: "standard", MaxReturnDays: 14, IsActive: true}}
	c := NewPolicyCache(src, nil)

	for range 3 {
		p, err := c.ActivePolicy(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 14, p.MaxReturnDays)
	}
	assert.Equal(t, 1, src.calls)
}

func TestPolicyCache_CachesAbsentPolicy(t *testing.T) {
	src := &fakeSource{}
	c := NewPolicyCache(src, nil)

	p, err := c.ActivePolicy(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)

	_, _ = c.ActivePolicy(context.Background())
	assert.Equal(t, 1, src.calls)
}

func TestPolicyCache_ReturnsCopies(t *testing.T) {
	src := &fakeSource{policy: &policy.ReturnPolicy{NonReturnableCategories: []string{"food"}}}
	c := NewPolicyCache(src, nil)

	p, err := c.ActivePolicy(context.Background())
	require.NoError(t, err)
	p.NonReturnableCategories[0] = "changed"
	p.MaxReturnDays = 99

	again, err := c.ActivePolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"food"}, again.NonReturnableCategories)
	assert.Zero(t, again.MaxReturnDays)
}

func TestPolicyCache_InvalidateReloads(t *testing.T) {
	src := &fakeSource{policy: &policy.ReturnPolicy{MaxReturnDays: 30}}
	c := NewPolicyCache(src, nil)

	_, err := c.ActivePolicy(context.Background())
	require.NoError(t, err)

	src.policy = &policy.ReturnPolicy{MaxReturnDays: 7}
	c.Invalidate()

	p, err := c.ActivePolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, p.MaxReturnDays)
	assert.Equal(t, 2, src.calls)
}

func TestPolicyCache_NotificationReloads(t *testing.T) {
	src := &fakeSource{policy: &policy.ReturnPolicy{MaxReturnDays: 30}}
	c := NewPolicyCache(src, nil)
	c.ctx = context.Background()

	_, err := c.ActivePolicy(context.Background())
	require.NoError(t, err)

	src.policy = &policy.ReturnPolicy{MaxReturnDays: 10}
	c.handleNotification("unrelated")
	p, _ := c.ActivePolicy(context.Background())
	assert.Equal(t, 30, p.MaxReturnDays)

	c.handleNotification(PolicyChangedChannel)
	p, _ = c.ActivePolicy(context.Background())
	assert.Equal(t, 10, p.MaxReturnDays)
}

func TestPolicyCache_SourceErrorIsNotCached(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	c := NewPolicyCache(src, nil)

	_, err := c.ActivePolicy(context.Background())
	require.Error(t, err)

	src.err = nil
	src.policy = &policy.ReturnPolicy{MaxReturnDays: 30}
	p, err := c.ActivePolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, p.MaxReturnDays)
}
