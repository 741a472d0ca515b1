package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Factory builds Redis-backed or in-memory stores from configuration and
// shares a single lazily-connected Redis client between them.
type Factory struct {
	redisConfig           config.RedisConfig
	clock                 clock.Clock
	logger                *zap.Logger
	allowInMemoryFallback bool

	mu         sync.Mutex
	client     redis.UniversalClient
	ownsClient bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithClock sets the clock used by in-memory stores
func WithClock(clk clock.Clock) FactoryOption {
	return func(f *Factory) {
		f.clock = clk
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true (allow fallback).
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRedisClient supplies an existing client. The factory will not close it.
func WithRedisClient(client redis.UniversalClient) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		clock:                 clock.Real(),
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Redis returns the shared client, connecting on first use
func (f *Factory) Redis(ctx context.Context) (redis.UniversalClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, err
	}
	f.client = client
	f.ownsClient = true
	return client, nil
}

// IdempotencyStore creates the store for the given backend. A redis backend that cannot
// connect falls back to memory when fallback is allowed.
func (f *Factory) IdempotencyStore(ctx context.Context, backend string) (shared.IdempotencyStore, error) {
	if backend != BackendRedis {
		return NewInMemoryIdempotencyStore(f.clock), nil
	}

	client, err := f.Redis(ctx)
	if err == nil {
		f.logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStore(client, ""), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"Retried punches may be applied twice across instances.",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(f.clock), nil
}

// Close closes the Redis client if the factory opened it
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil || !f.ownsClient {
		return nil
	}
	err := f.client.Close()
	f.client = nil
	return err
}
