package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits_String(t *testing.T) {
	assert.Equal(t, "123.45", MinorUnits(12345).String())
	assert.Equal(t, "0.05", MinorUnits(5).String())
	assert.Equal(t, "-10.00", MinorUnits(-1000).String())
}

func TestMinorUnits_Mul(t *testing.T) {
	assert.Equal(t, MinorUnits(18000), MinorUnits(9000).Mul(2))
	assert.Equal(t, MinorUnits(0), MinorUnits(9000).Mul(0))
}

func TestParseMinorUnits(t *testing.T) {
	v, err := ParseMinorUnits("100.50", 2)
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(10050), v)

	_, err = ParseMinorUnits("1.005", 2)
	assert.Error(t, err)

	_, err = ParseMinorUnits("abc", 2)
	assert.Error(t, err)
}
