// Package audit records consummated mutating actions and serves the audit trail.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/merchpulse/backend/internal/application/authz"
	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultRecentLimit is used when RecentEntries is called with limit <= 0
	DefaultRecentLimit = 50
	// MaxRecentLimit caps RecentEntries
	MaxRecentLimit = 500
)

// Sink is the write side of the audit trail used by the attendance engine and employee service
type Sink interface {
	LogAction(ctx context.Context, action audit.Action, entityType audit.EntityType, entityID string, previous, next any, note string) (*audit.LogEntry, error)
}

// Service is the audit sink and reader
type Service struct {
	repo         audit.LogRepository
	session      identity.SessionProvider
	policy       *authz.Policy
	clock        clock.Clock
	defaultLimit int
	logger       *zap.Logger
}

// NewService creates an audit service. A defaultLimit <= 0 falls back to DefaultRecentLimit.
func NewService(
	repo audit.LogRepository,
	session identity.SessionProvider,
	policy *authz.Policy,
	clk clock.Clock,
	defaultLimit int,
	logger *zap.Logger,
) *Service {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRecentLimit
	}
	return &Service{
		repo:         repo,
		session:      session,
		policy:       policy,
		clock:        clk,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// LogAction appends one entry. Snapshots are serialized to JSON; nil means no snapshot.
// The actor is read from the session at call time and falls back to SYSTEM.
func (s *Service) LogAction(
	ctx context.Context,
	action audit.Action,
	entityType audit.EntityType,
	entityID string,
	previous, next any,
	note string,
) (*audit.LogEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "audit", "log_action",
		telemetry.WithAttribute(telemetry.SpanAttrAction, action.String()),
		telemetry.WithAttribute(telemetry.SpanAttrEntityType, entityType.String()),
		telemetry.WithAttribute(telemetry.SpanAttrEntityID, entityID),
	)
	defer span.End()

	prevJSON, err := marshalSnapshot(previous)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	nextJSON, err := marshalSnapshot(next)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	actorID := audit.SystemActor
	if actor := s.session.CurrentActor(ctx); actor != nil {
		actorID = actor.ID.String()
	}

	entry, err := audit.NewLogEntry(action, entityType, entityID, actorID, prevJSON, nextJSON, note, s.clock.Now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError("append audit entry", err)
	}

	s.logger.Debug("Audit entry recorded",
		zap.String("entry_id", entry.ID.String()),
		zap.String("action", action.String()),
		zap.String("entity_id", entityID),
		zap.String("actor_id", actorID),
	)
	telemetry.SetOK(span)
	return entry, nil
}

// RecentEntries returns the newest entries first. Requires audit:view.
// limit is clamped to 1..MaxRecentLimit; limit <= 0 uses the configured default.
func (s *Service) RecentEntries(ctx context.Context, limit int) ([]*audit.LogEntry, error) {
	if err := s.policy.RequirePermission(ctx, identity.PermissionViewAuditLog); err != nil {
		return nil, err
	}

	entries, err := s.repo.FindRecent(ctx, ClampLimit(limit, s.defaultLimit))
	if err != nil {
		return nil, shared.NewPersistenceError("load recent audit entries", err)
	}
	return entries, nil
}

// EntriesFor returns one entity's history, newest first. Requires audit:view.
func (s *Service) EntriesFor(ctx context.Context, entityType audit.EntityType, entityID string) ([]*audit.LogEntry, error) {
	if err := s.policy.RequirePermission(ctx, identity.PermissionViewAuditLog); err != nil {
		return nil, err
	}
	if !entityType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown entity type")
	}

	entries, err := s.repo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, shared.NewPersistenceError("load audit entries", err)
	}
	return entries, nil
}

// ClampLimit bounds a requested page size
func ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize audit snapshot: %w", err)
	}
	return data, nil
}
