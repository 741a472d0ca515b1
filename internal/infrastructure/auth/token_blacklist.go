package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates access tokens before they expire (logout, deactivation)
type TokenBlacklist interface {
	// AddToBlacklist revokes one token by its JTI until ttl elapses
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted checks if a token's JTI has been revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateEmployeeTokens revokes every token issued to the employee up to now
	InvalidateEmployeeTokens(ctx context.Context, employeeID string, ttl time.Duration) error

	// IsEmployeeTokenInvalidated reports whether a token issued at issuedAt was revoked wholesale
	IsEmployeeTokenInvalidated(ctx context.Context, employeeID string, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
	clock     clock.Clock
}

// NewRedisTokenBlacklist creates a token blacklist on an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient, clk clock.Clock) *RedisTokenBlacklist {
	if clk == nil {
		clk = clock.Real()
	}
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: "merchpulse:token:blacklist:",
		clock:     clk,
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) employeeKey(employeeID string) string {
	return b.keyPrefix + "employee:" + employeeID
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// InvalidateEmployeeTokens stores the invalidation instant; older tokens are rejected
func (b *RedisTokenBlacklist) InvalidateEmployeeTokens(ctx context.Context, employeeID string, ttl time.Duration) error {
	at := b.clock.Now().Unix()
	if err := b.client.Set(ctx, b.employeeKey(employeeID), at, ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate employee tokens: %w", err)
	}
	return nil
}

// IsEmployeeTokenInvalidated checks a token against the employee's invalidation instant
func (b *RedisTokenBlacklist) IsEmployeeTokenInvalidated(ctx context.Context, employeeID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.employeeKey(employeeID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check employee token invalidation: %w", err)
	}

	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return issuedAt.Unix() <= invalidatedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is a single-instance TokenBlacklist
type InMemoryTokenBlacklist struct {
	mu           sync.Mutex
	clock        clock.Clock
	revoked      map[string]time.Time // JTI -> expiry of the entry
	invalidation map[string]time.Time // employee ID -> invalidation instant
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist(clk clock.Clock) *InMemoryTokenBlacklist {
	if clk == nil {
		clk = clock.Real()
	}
	return &InMemoryTokenBlacklist{
		clock:        clk,
		revoked:      make(map[string]time.Time),
		invalidation: make(map[string]time.Time),
	}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = b.clock.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted and the entry has not expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if !b.clock.Now().Before(expiry) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}

// InvalidateEmployeeTokens records the invalidation instant for the employee
func (b *InMemoryTokenBlacklist) InvalidateEmployeeTokens(_ context.Context, employeeID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidation[employeeID] = b.clock.Now()
	return nil
}

// IsEmployeeTokenInvalidated reports whether issuedAt is at or before the invalidation instant
func (b *InMemoryTokenBlacklist) IsEmployeeTokenInvalidated(_ context.Context, employeeID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	at, ok := b.invalidation[employeeID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(at), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
