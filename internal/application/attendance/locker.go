package attendance

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EmployeeLocker serializes the read-validate-write sequence of punch mutations per employee.
// The returned unlock function must be called exactly once.
type EmployeeLocker interface {
	Lock(ctx context.Context, employeeID uuid.UUID) (unlock func(), err error)
}

// KeyedMutex is an in-process EmployeeLocker. Idle keys are released.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*keyedLock)}
}

// Lock blocks until the employee's lock is held or ctx is done
func (k *KeyedMutex) Lock(ctx context.Context, employeeID uuid.UUID) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[employeeID]
	if !ok {
		l = &keyedLock{sem: make(chan struct{}, 1)}
		k.locks[employeeID] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(employeeID, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			k.release(employeeID, l)
		})
	}, nil
}

func (k *KeyedMutex) release(employeeID uuid.UUID, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, employeeID)
	}
}

// Len returns the number of keys currently held or awaited
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
