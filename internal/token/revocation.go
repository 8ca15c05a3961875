package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList maps a terminal to the latest issued-at that is no longer
// honoured. Tokens issued at or before the cutoff are rejected.
type RevocationList interface {
	RevokeIssuedBefore(ctx context.Context, terminalID string, cutoff time.Time) error
	Cutoff(ctx context.Context, terminalID string) (time.Time, bool, error)
}

// IsRevoked reports whether claims fall at or before the terminal's cutoff.
func IsRevoked(ctx context.Context, list RevocationList, claims *Claims) (bool, error) {
	if list == nil || claims == nil || claims.IssuedAt == nil {
		return false, nil
	}
	cutoff, ok, err := list.Cutoff(ctx, claims.TerminalID)
	if err != nil || !ok {
		return false, err
	}
	return !claims.IssuedAt.Time.After(cutoff), nil
}

type memoryRevocations struct {
	mu      sync.RWMutex
	cutoffs map[string]time.Time
}

// NewMemoryRevocationList returns a process-local RevocationList.
func NewMemoryRevocationList() RevocationList {
	return &memoryRevocations{cutoffs: make(map[string]time.Time)}
}

func (m *memoryRevocations) RevokeIssuedBefore(_ context.Context, terminalID string, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.cutoffs[terminalID]; ok && cur.After(cutoff) {
		return nil
	}
	m.cutoffs[terminalID] = cutoff.UTC()
	return nil
}

func (m *memoryRevocations) Cutoff(_ context.Context, terminalID string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.cutoffs[terminalID]
	return t, ok, nil
}

const revocationPrefix = "revocation:v1:"

// RedisRevocationList stores cutoffs in Redis so every instance shares them.
// Keys expire after the token lifetime because older tokens are dead anyway.
type RedisRevocationList struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisRevocationList builds a Redis-backed RevocationList.
func NewRedisRevocationList(cache *redis.Client, tokenLifetime time.Duration) *RedisRevocationList {
	return &RedisRevocationList{cache: cache, ttl: tokenLifetime}
}

// RevokeIssuedBefore moves the cutoff forward; it never moves it back.
func (r *RedisRevocationList) RevokeIssuedBefore(ctx context.Context, terminalID string, cutoff time.Time) error {
	key := revocationPrefix + terminalID
	current, ok, err := r.Cutoff(ctx, terminalID)
	if err != nil {
		return err
	}
	if ok && current.After(cutoff) {
		return nil
	}
	if err := r.cache.Set(ctx, key, strconv.FormatInt(cutoff.Unix(), 10), r.ttl).Err(); err != nil {
		return fmt.Errorf("store revocation: %w", err)
	}
	return nil
}

// Cutoff returns the terminal's cutoff, if any.
func (r *RedisRevocationList) Cutoff(ctx context.Context, terminalID string) (time.Time, bool, error) {
	raw, err := r.cache.Get(ctx, revocationPrefix+terminalID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load revocation: %w", err)
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decode revocation: %w", err)
	}
	return time.Unix(secs, 0).UTC(), true, nil
}
