// Package secret turns passwords into stored verifiers and checks them.
package secret

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt at a fixed cost.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's valid range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Used to spend a comparison on unknown emails.
	dummy, err := bcrypt.GenerateFromPassword([]byte("atenas-dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("secret: dummy hash: %v", err))
	}
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash returns the verifier for password.
func (h *Hasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

// Matches reports whether password produces verifier. An empty verifier
// (unknown account) is compared against a dummy so both outcomes cost one
// bcrypt comparison.
func (h *Hasher) Matches(verifier, password string) bool {
	if verifier == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(verifier), []byte(password)) == nil
}
