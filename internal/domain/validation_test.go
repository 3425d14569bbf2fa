package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/core/apperror"
)

func TestValidationResult_CollectsAll(t *testing.T) {
	var r ValidationResult
	assert.True(t, r.Valid())
	assert.NoError(t, r.Err())

	r.RequireNonBlank("  ", "supplier id is required")
	r.RequireNonBlank("s-1", "never added")
	r.Addf("item %d: quantity must be greater than 0", 2)

	assert.False(t, r.Valid())
	err := r.Err()
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, []string{
		"supplier id is required",
		"item 2: quantity must be greater than 0",
	}, apperror.ValidationMessages(err))
}

func TestValidationResult_Details(t *testing.T) {
	var r ValidationResult
	r.Add("item 1: insufficient stock")
	r.AddDetail("shortages", map[string]any{"product_id": "P1", "available": int64(2)})

	appErr, ok := apperror.AsAppError(r.Err())
	assert.True(t, ok)
	assert.Equal(t, []any{
		map[string]any{"product_id": "P1", "available": int64(2)},
	}, appErr.Details["shortages"])

	// details alone never make a result invalid
	var clean ValidationResult
	clean.AddDetail("shortages", "x")
	assert.NoError(t, clean.Err())
}
