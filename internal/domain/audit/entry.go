// Package audit defines the append-only record of consummated mutating actions.
package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/shared"
)

// SystemActor is recorded as the actor when no session exists, e.g. during seeding
const SystemActor = "SYSTEM"

// Action tags what happened to an entity
type Action string

const (
	ActionPunchCorrected      Action = "PUNCH_CORRECTED"
	ActionEmployeeCreated     Action = "EMPLOYEE_CREATED"
	ActionEmployeeUpdated     Action = "EMPLOYEE_UPDATED"
	ActionEmployeeDeactivated Action = "EMPLOYEE_DEACTIVATED"
)

// AllActions returns all valid actions
func AllActions() []Action {
	return []Action{
		ActionPunchCorrected,
		ActionEmployeeCreated,
		ActionEmployeeUpdated,
		ActionEmployeeDeactivated,
	}
}

// IsValid checks if the action is known
func (a Action) IsValid() bool {
	switch a {
	case ActionPunchCorrected, ActionEmployeeCreated, ActionEmployeeUpdated, ActionEmployeeDeactivated:
		return true
	default:
		return false
	}
}

// String returns the action tag
func (a Action) String() string {
	return string(a)
}

// EntityType names the kind of record an entry refers to
type EntityType string

const (
	EntityPunch    EntityType = "PUNCH"
	EntityEmployee EntityType = "EMPLOYEE"
)

// ParseEntityType accepts "punch" or "PUNCH" style input
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_ENTITY_TYPE", "Entity type must be PUNCH or EMPLOYEE")
	}
	return t, nil
}

// IsValid checks if the entity type is known
func (t EntityType) IsValid() bool {
	return t == EntityPunch || t == EntityEmployee
}

// String returns the entity type name
func (t EntityType) String() string {
	return string(t)
}

// LogEntry is one immutable audit record.
// PreviousState and NewState hold JSON snapshots; either may be nil.
type LogEntry struct {
	ID            uuid.UUID
	Action        Action
	EntityType    EntityType
	EntityID      string
	ActorID       string
	PreviousState json.RawMessage
	NewState      json.RawMessage
	Reason        *string
	Timestamp     time.Time
}

// NewLogEntry builds an entry with a fresh id stamped at the given instant.
// A blank actor is recorded as SystemActor.
func NewLogEntry(
	action Action,
	entityType EntityType,
	entityID string,
	actorID string,
	previous, next json.RawMessage,
	reason string,
	at time.Time,
) (*LogEntry, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Invalid audit action")
	}
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Invalid audit entity type")
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Entity ID cannot be empty")
	}
	if strings.TrimSpace(actorID) == "" {
		actorID = SystemActor
	}

	entry := &LogEntry{
		ID:            uuid.New(),
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		ActorID:       actorID,
		PreviousState: previous,
		NewState:      next,
		Timestamp:     at,
	}
	if r := strings.TrimSpace(reason); r != "" {
		entry.Reason = &r
	}
	return entry, nil
}

// IsSystem reports whether the entry was written without a signed-in actor
func (e *LogEntry) IsSystem() bool {
	return e.ActorID == SystemActor
}
