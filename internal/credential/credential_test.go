package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	v := NewVerifier()

	hash, err := h.Hash("K7pQ2mXr9TfzWb4nHc3d")
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "K7pQ2mXr9TfzWb4nHc3d")

	assert.True(t, v.Verify("K7pQ2mXr9TfzWb4nHc3d", hash))
	assert.False(t, v.Verify("K7pQ2mXr9TfzWb4nHc3e", hash))
	assert.False(t, v.Verify("", hash))
}

func TestVerifyMalformedInputReturnsFalse(t *testing.T) {
	v := NewVerifier()
	assert.False(t, v.Verify("secret", nil))
	assert.False(t, v.Verify("secret", []byte("not-a-bcrypt-hash")))
	assert.False(t, v.Verify(strings.Repeat("x", 200), []byte("$2a$04$abc")))
}

func TestHashRejectsOversizedSecret(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrSecretTooLong)
}

func TestNewHasherFallsBackOnInvalidCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
}

func TestGenerateSecretUsesUnambiguousAlphabet(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		s, err := GenerateSecret(SecretLength)
		require.NoError(t, err)
		require.Len(t, s, SecretLength)
		assert.NotContains(t, s, "0")
		assert.NotContains(t, s, "O")
		assert.NotContains(t, s, "1")
		assert.NotContains(t, s, "I")
		assert.NotContains(t, s, "l")
		for _, r := range s {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q", r)
		}
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, 50)
}

func TestRandomStringRejectsNonPositiveLength(t *testing.T) {
	_, err := RandomString(0, Alphabet)
	assert.Error(t, err)
}
