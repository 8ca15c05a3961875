package credential

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Alphabet excludes visually ambiguous characters (0/O/o, 1/I/l) because
// access keys get typed by hand on physical terminals.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// SecretLength is the number of characters in a generated access key.
const SecretLength = 20

// bcrypt only looks at the first 72 bytes.
const maxSecretBytes = 72

var ErrSecretTooLong = errors.New("secret exceeds 72 bytes")

// Hasher derives salted one-way hashes of access secrets.
type Hasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher. Costs outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of secret.
func (h *Hasher) Hash(secret string) ([]byte, error) {
	if len(secret) > maxSecretBytes {
		return nil, ErrSecretTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}
	return hash, nil
}

// Verifier checks presented secrets against stored hashes.
type Verifier struct{}

// NewVerifier returns a Verifier.
func NewVerifier() Verifier { return Verifier{} }

// Verify reports whether presented matches stored. bcrypt compares the
// derived hashes in constant time. Malformed hashes and empty input yield false.
func (Verifier) Verify(presented string, stored []byte) bool {
	if presented == "" || len(stored) == 0 || len(presented) > maxSecretBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword(stored, []byte(presented)) == nil
}

// GenerateSecret returns a random string of n characters drawn from Alphabet
// using crypto/rand.
func GenerateSecret(n int) (string, error) {
	return RandomString(n, Alphabet)
}

// RandomString draws n characters uniformly from alphabet.
func RandomString(n int, alphabet string) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
