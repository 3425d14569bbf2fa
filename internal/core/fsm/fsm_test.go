package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/core/apperror"
)

type status string

func TestTable(t *testing.T) {
	table := New("order", map[status][]status{
		"pending":  {"approved", "cancelled"},
		"approved": {"done"},
	})

	assert.Equal(t, "order", table.Entity())
	assert.True(t, table.Can("pending", "approved"))
	assert.False(t, table.Can("pending", "done"))
	assert.False(t, table.Can("done", "pending"))
	assert.True(t, table.IsTerminal("done"))
	assert.True(t, table.IsTerminal("cancelled"))
	assert.False(t, table.IsTerminal("approved"))
	assert.Equal(t, []status{"approved", "cancelled"}, table.Next("pending"))

	next := table.Next("pending")
	next[0] = "mutated"
	assert.True(t, table.Can("pending", "approved"))
}

func TestTable_Invalid(t *testing.T) {
	table := New("transfer", map[status][]status{
		"pending":  {"approved", "cancelled"},
		"approved": {"completed"},
	})

	err := table.Invalid("pending", "completed", "transfer must be approved first")
	assert.Equal(t, apperror.CodeInvalidTransition, err.Code)
	assert.Equal(t, "transfer must be approved first", err.Message)
	assert.Equal(t, "transfer", err.Details["entity"])
	assert.Equal(t, "pending", err.Details["from"])
	assert.Equal(t, "completed", err.Details["to"])
	assert.Equal(t, []string{"approved", "cancelled"}, err.Details["allowed"])

	terminal := table.Invalid("completed", "cancelled", "transfer already completed")
	assert.Equal(t, []string{}, terminal.Details["allowed"])
}
