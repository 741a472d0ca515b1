package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultLockPrefix = "merchpulse:lock:employee:"
	lockRetryDelay    = 10 * time.Millisecond
	lockRetryMaxDelay = 250 * time.Millisecond
)

var (
	// ErrLockTimeout is returned when the lock could not be taken within the wait budget
	ErrLockTimeout = errors.New("timed out waiting for employee lock")

	errLockHeld = errors.New("employee lock held")
)

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes punch mutations per employee across server instances.
// Each lock is a SET NX PX key holding a random token; the TTL bounds how long a
// crashed holder can block the employee.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

// NewRedisLocker creates a Redis-backed employee locker
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client: client,
		prefix: defaultLockPrefix,
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

// Lock takes the employee's lock, retrying with backoff until the wait budget or ctx runs out.
// The returned unlock function is safe to call more than once.
func (l *RedisLocker) Lock(ctx context.Context, employeeID uuid.UUID) (func(), error) {
	key := l.prefix + employeeID.String()
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	err := retry.Do(
		func() error {
			ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
			if err != nil {
				return err
			}
			if !ok {
				return errLockHeld
			}
			return nil
		},
		retry.Attempts(0),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(lockRetryDelay),
		retry.MaxDelay(lockRetryMaxDelay),
		retry.MaxJitter(lockRetryDelay),
		retry.LastErrorOnly(true),
		retry.Context(waitCtx),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errLockHeld) {
			return nil, fmt.Errorf("%w: employee %s", ErrLockTimeout, employeeID)
		}
		return nil, fmt.Errorf("failed to acquire employee lock: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("Failed to release employee lock; it will expire",
					zap.String("employee_id", employeeID.String()),
					zap.Duration("ttl", l.ttl),
					zap.Error(err))
			}
		})
	}, nil
}
