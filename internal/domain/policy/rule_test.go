package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleEngine(t *testing.T) {
	engine, err := NewRuleEngine()
	require.NoError(t, err)

	in := RuleInput{DaysSinceSale: 2, MaxReturnDays: 30, TotalRefund: 150000, ItemCount: 3}

	got, err := engine.RequiresApproval("", in)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = engine.RequiresApproval("total_refund > 100000", in)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = engine.RequiresApproval("item_count > 5 || damaged_count > 0", in)
	require.NoError(t, err)
	assert.False(t, got)

	_, err = engine.RequiresApproval("total_refund + 1", in)
	assert.Error(t, err, "non-boolean rule must be rejected")

	_, err = engine.RequiresApproval("unknown_var > 1", in)
	assert.Error(t, err)
}
