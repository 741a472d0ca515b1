package session

import (
	"context"
	"testing"
	"time"

	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmployee(t *testing.T, username string) *identity.Employee {
	t.Helper()
	e, err := identity.NewEmployee("Test "+username, username, "1234", identity.RoleStaff, time.Now())
	require.NoError(t, err)
	return e
}

func TestHolder_Lifecycle(t *testing.T) {
	h := NewHolder()
	ctx := context.Background()
	assert.Nil(t, h.CurrentActor(ctx))

	alice := newEmployee(t, "alice")
	h.Start(alice)
	assert.Same(t, alice, h.CurrentActor(ctx))

	h.End()
	assert.Nil(t, h.CurrentActor(ctx))
}

func TestHolder_Watch(t *testing.T) {
	h := NewHolder()
	ctx, cancel := context.WithCancel(context.Background())

	updates := h.Watch(ctx)
	alice := newEmployee(t, "alice")
	bob := newEmployee(t, "bob")

	h.Start(alice)
	assert.Same(t, alice, <-updates)

	// a slow reader sees only the latest actor
	h.Start(bob)
	h.End()
	assert.Nil(t, <-updates)

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-updates
		return !open
	}, time.Second, 10*time.Millisecond)

	assert.NotPanics(t, func() { h.Start(alice) })
}

func TestContextProvider(t *testing.T) {
	var p ContextProvider
	ctx := context.Background()
	assert.Nil(t, p.CurrentActor(ctx))

	alice := newEmployee(t, "alice")
	ctx = WithActor(ctx, alice)
	assert.Same(t, alice, p.CurrentActor(ctx))
	assert.Same(t, alice, ActorFromContext(ctx))
}
