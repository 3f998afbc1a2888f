package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt at a configurable cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost factor.
// Costs outside bcrypt's supported range fall back to the default cost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash hashes one plaintext password for persistent storage.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify verifies a plaintext password against a bcrypt hash.
func (h *Hasher) Verify(passwordHash, candidate string) bool {
	if strings.TrimSpace(passwordHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}

// dummyHash is a bcrypt hash of a random string. Verifying against it when an
// email is unknown keeps authentication timing independent of account existence.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// VerifyDummy burns one bcrypt comparison without revealing anything.
func (h *Hasher) VerifyDummy(candidate string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(candidate))
}
