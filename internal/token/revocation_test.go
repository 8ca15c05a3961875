package token

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsIssuedAt(t time.Time) *Claims {
	return &Claims{TerminalID: "POS-1", RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t)}}
}

func exerciseRevocationList(t *testing.T, list RevocationList) {
	ctx := context.Background()
	cutoff := testStart.Add(time.Hour)

	revoked, err := IsRevoked(ctx, list, claimsIssuedAt(testStart))
	require.NoError(t, err)
	assert.False(t, revoked, "no cutoff recorded yet")

	require.NoError(t, list.RevokeIssuedBefore(ctx, "POS-1", cutoff))

	revoked, err = IsRevoked(ctx, list, claimsIssuedAt(testStart))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = IsRevoked(ctx, list, claimsIssuedAt(cutoff))
	require.NoError(t, err)
	assert.True(t, revoked, "cutoff itself is revoked")

	revoked, err = IsRevoked(ctx, list, claimsIssuedAt(cutoff.Add(time.Second)))
	require.NoError(t, err)
	assert.False(t, revoked)

	// an older cutoff never moves the fence back
	require.NoError(t, list.RevokeIssuedBefore(ctx, "POS-1", testStart))
	got, ok, err := list.Cutoff(ctx, "POS-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(cutoff))
}

func TestMemoryRevocationList(t *testing.T) {
	exerciseRevocationList(t, NewMemoryRevocationList())
}

func TestRedisRevocationList(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	list := NewRedisRevocationList(cache, 12*time.Hour)
	exerciseRevocationList(t, list)

	assert.True(t, mr.Exists(revocationPrefix+"POS-1"))
	assert.Equal(t, 12*time.Hour, mr.TTL(revocationPrefix+"POS-1"))
}

func TestIsRevokedWithoutList(t *testing.T) {
	revoked, err := IsRevoked(context.Background(), nil, claimsIssuedAt(testStart))
	require.NoError(t, err)
	assert.False(t, revoked)
}
