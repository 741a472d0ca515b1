package session

import (
	"context"

	"github.com/merchpulse/backend/internal/domain/identity"
)

type actorKey struct{}

// WithActor returns a context carrying the authenticated employee
func WithActor(ctx context.Context, actor *identity.Employee) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the employee installed by WithActor, or nil
func ActorFromContext(ctx context.Context) *identity.Employee {
	actor, _ := ctx.Value(actorKey{}).(*identity.Employee)
	return actor
}

// ContextProvider reads the actor from the request context
type ContextProvider struct{}

// CurrentActor implements identity.SessionProvider
func (ContextProvider) CurrentActor(ctx context.Context) *identity.Employee {
	return ActorFromContext(ctx)
}

var (
	_ identity.SessionProvider = (*Holder)(nil)
	_ identity.SessionProvider = ContextProvider{}
)
