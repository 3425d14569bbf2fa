package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPINMismatch is returned when a manager PIN does not match.
var ErrPINMismatch = errors.New("manager pin mismatch")

// PINVerifier checks manager override PINs against a bcrypt hash.
type PINVerifier struct {
	hash []byte
}

// NewPINVerifier creates a verifier; an empty hash disables PIN overrides.
func NewPINVerifier(hash string) *PINVerifier {
	return &PINVerifier{hash: []byte(hash)}
}

// HashPIN produces a bcrypt hash suitable for MANAGER_PIN_HASH.
func HashPIN(pin string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(h), nil
}

// Enabled reports whether a PIN hash is configured.
func (v *PINVerifier) Enabled() bool {
	return v != nil && len(v.hash) > 0
}

// Verify returns nil when pin matches the configured hash.
func (v *PINVerifier) Verify(pin string) error {
	if !v.Enabled() || pin == "" {
		return ErrPINMismatch
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(pin)); err != nil {
		return ErrPINMismatch
	}
	return nil
}
