// Package session tracks who is acting. Holder serves long-lived clients such as the
// terminal punch clock; ContextProvider serves per-request HTTP handling.
package session

import (
	"context"
	"sync"

	"github.com/merchpulse/backend/internal/domain/identity"
)

// Holder is an explicit, observable session for a single signed-in employee.
// It implements identity.SessionProvider; the ctx argument is ignored.
type Holder struct {
	mu       sync.RWMutex
	actor    *identity.Employee
	watchers []chan *identity.Employee
}

// NewHolder creates an empty session
func NewHolder() *Holder {
	return &Holder{}
}

// Start signs actor in, replacing any previous actor
func (h *Holder) Start(actor *identity.Employee) {
	h.set(actor)
}

// End signs the current actor out
func (h *Holder) End() {
	h.set(nil)
}

// CurrentActor returns the signed-in employee or nil
func (h *Holder) CurrentActor(context.Context) *identity.Employee {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.actor
}

// Watch returns a channel receiving the actor (nil on sign-out) after every change.
// Only the latest change is kept for a slow reader. The channel closes when ctx ends.
func (h *Holder) Watch(ctx context.Context) <-chan *identity.Employee {
	ch := make(chan *identity.Employee, 1)

	h.mu.Lock()
	h.watchers = append(h.watchers, ch)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, w := range h.watchers {
			if w == ch {
				h.watchers = append(h.watchers[:i], h.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch
}

func (h *Holder) set(actor *identity.Employee) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.actor = actor
	for _, w := range h.watchers {
		// drop a stale pending value so the reader always sees the latest actor
		select {
		case <-w:
		default:
		}
		w <- actor
	}
}
