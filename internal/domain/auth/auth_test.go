package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	token, exp, err := svc.GenerateAccessToken("u-1", "outlet-a", []string{"manager"}, time.Now())
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UserID)
	assert.Equal(t, "outlet-a", user.OutletID)
	assert.Equal(t, []string{"manager"}, user.Roles)
}

func TestJWTService_RejectsWrongSecretAndExpired(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret"))
	token, _, err := issuer.GenerateAccessToken("u-1", "", nil, time.Now())
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("other")).ValidateToken(token)
	assert.Error(t, err)

	old, _, err := issuer.GenerateAccessToken("u-1", "", nil, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = issuer.ValidateToken(old)
	assert.Error(t, err)
}

func TestPINVerifier(t *testing.T) {
	hash, err := HashPIN("4321")
	require.NoError(t, err)

	v := NewPINVerifier(hash)
	assert.True(t, v.Enabled())
	assert.NoError(t, v.Verify("4321"))
	assert.ErrorIs(t, v.Verify("1234"), ErrPINMismatch)
	assert.ErrorIs(t, v.Verify(""), ErrPINMismatch)

	disabled := NewPINVerifier("")
	assert.False(t, disabled.Enabled())
	assert.ErrorIs(t, disabled.Verify("4321"), ErrPINMismatch)
}
