// Package hasher provides password hashing implementations.
package hasher

import (
	"github.com/artpar/contractgate/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt uses bcrypt for hashing.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher with the given cost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash generates a bcrypt hash from plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Compare checks if plaintext matches hash.
func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

// Ensure interface compliance.
var _ ports.Hasher = (*Bcrypt)(nil)

// FakePrefix is prepended to the plaintext by Fake.
const FakePrefix = "supersecret"

// Fake "hashes" by prefixing the plaintext (NOT FOR PRODUCTION).
// It keeps the users tutorial output predictable.
type Fake struct{}

// Hash returns FakePrefix followed by the plaintext.
func (Fake) Hash(plaintext string) ([]byte, error) {
	return []byte(FakePrefix + plaintext), nil
}

// Compare checks the prefixed form.
func (Fake) Compare(hash []byte, plaintext string) bool {
	return string(hash) == FakePrefix+plaintext
}

// Ensure interface compliance.
var _ ports.Hasher = Fake{}

// New returns the hasher named by kind ("fake" or "bcrypt").
func New(kind string, cost int) ports.Hasher {
	if kind == "bcrypt" {
		return NewBcrypt(cost)
	}
	return Fake{}
}
