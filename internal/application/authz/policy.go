// Package authz gates actions on the capabilities of the current session actor.
package authz

import (
	"context"
	"fmt"

	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// UnauthorizedError reports the capability the actor was missing.
// It matches shared.ErrUnauthorized through errors.Is.
type UnauthorizedError struct {
	Permission identity.Permission
}

// Error implements the error interface
func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("Missing permission: %s", e.Permission)
}

// Is matches shared.ErrUnauthorized
func (e *UnauthorizedError) Is(target error) bool {
	return target == shared.ErrUnauthorized
}

// As exposes the error as a DomainError carrying the UNAUTHORIZED code
func (e *UnauthorizedError) As(target any) bool {
	if de, ok := target.(**shared.DomainError); ok {
		*de = shared.NewDomainError(shared.CodeUnauthorized, e.Error())
		return true
	}
	return false
}

// Policy answers capability questions against the session provider.
// It only reads session state.
type Policy struct {
	session identity.SessionProvider
	metrics *telemetry.AttendanceMetrics
	logger  *zap.Logger
}

// NewPolicy creates a policy. metrics may be nil.
func NewPolicy(session identity.SessionProvider, metrics *telemetry.AttendanceMetrics, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		session: session,
		metrics: metrics,
		logger:  logger,
	}
}

// CheckPermission reports whether the current actor holds p.
// With no actor it returns false for every permission.
func (p *Policy) CheckPermission(ctx context.Context, perm identity.Permission) bool {
	return p.session.CurrentActor(ctx).HasPermission(perm)
}

// RequirePermission fails with *UnauthorizedError when the current actor lacks perm
func (p *Policy) RequirePermission(ctx context.Context, perm identity.Permission) error {
	actor := p.session.CurrentActor(ctx)
	if actor.HasPermission(perm) {
		return nil
	}

	fields := []zap.Field{zap.String("permission", perm.String())}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID.String()))
	}
	p.logger.Debug("Permission denied", fields...)
	p.metrics.PermissionDenied(ctx, perm.String())

	return &UnauthorizedError{Permission: perm}
}

// Actor returns the current actor, or *UnauthorizedError for perm when nobody is signed in
// or the actor lacks perm
func (p *Policy) Actor(ctx context.Context, perm identity.Permission) (*identity.Employee, error) {
	if err := p.RequirePermission(ctx, perm); err != nil {
		return nil, err
	}
	return p.session.CurrentActor(ctx), nil
}
