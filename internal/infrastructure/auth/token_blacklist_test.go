package auth_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/infrastructure/auth"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func TestInMemoryTokenBlacklist_AddToBlacklist(t *testing.T) {
	clk := clock.Fake(now)
	blacklist := auth.NewInMemoryTokenBlacklist(clk)
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	clk.Advance(time.Hour)
	revoked, err = blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entries expire with the token")
}

func TestInMemoryTokenBlacklist_ZeroTTLIsIgnored(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist(clock.Fake(now))
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), "jti", 0))

	revoked, err := blacklist.IsBlacklisted(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_EmployeeInvalidation(t *testing.T) {
	clk := clock.Fake(now)
	blacklist := auth.NewInMemoryTokenBlacklist(clk)
	ctx := context.Background()

	invalidated, err := blacklist.IsEmployeeTokenInvalidated(ctx, "emp-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.InvalidateEmployeeTokens(ctx, "emp-1", time.Hour))

	invalidated, err = blacklist.IsEmployeeTokenInvalidated(ctx, "emp-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsEmployeeTokenInvalidated(ctx, "emp-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated, "tokens issued afterwards stay valid")

	invalidated, err = blacklist.IsEmployeeTokenInvalidated(ctx, "emp-2", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	blacklist := auth.NewRedisTokenBlacklist(client, clock.Real())
	jti := uuid.NewString()

	require.NoError(t, blacklist.AddToBlacklist(ctx, jti, time.Minute))
	revoked, err := blacklist.IsBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	employeeID := uuid.NewString()
	require.NoError(t, blacklist.InvalidateEmployeeTokens(ctx, employeeID, time.Minute))
	invalidated, err := blacklist.IsEmployeeTokenInvalidated(ctx, employeeID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, invalidated)
}
