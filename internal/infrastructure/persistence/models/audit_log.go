package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/audit"
)

// AuditLogModel is the persistence model for audit entries. Rows are only ever inserted.
type AuditLogModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Action        audit.Action     `gorm:"type:varchar(50);not null"`
	EntityType    audit.EntityType `gorm:"type:varchar(50);not null;index:idx_audit_log_entity,priority:1"`
	EntityID      string           `gorm:"type:varchar(100);not null;index:idx_audit_log_entity,priority:2"`
	ActorID       string           `gorm:"type:varchar(100);not null"`
	PreviousState *string          `gorm:"type:jsonb"`
	NewState      *string          `gorm:"type:jsonb"`
	Reason        *string          `gorm:"type:varchar(500)"`
	Timestamp     time.Time        `gorm:"column:logged_at;not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_log"
}

// ToDomain converts the persistence model to a domain LogEntry.
func (m *AuditLogModel) ToDomain() *audit.LogEntry {
	return &audit.LogEntry{
		ID:            m.ID,
		Action:        m.Action,
		EntityType:    m.EntityType,
		EntityID:      m.EntityID,
		ActorID:       m.ActorID,
		PreviousState: rawJSON(m.PreviousState),
		NewState:      rawJSON(m.NewState),
		Reason:        m.Reason,
		Timestamp:     m.Timestamp,
	}
}

// AuditLogModelFromDomain creates a new persistence model from a domain LogEntry.
func AuditLogModelFromDomain(e *audit.LogEntry) *AuditLogModel {
	return &AuditLogModel{
		ID:            e.ID,
		Action:        e.Action,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		ActorID:       e.ActorID,
		PreviousState: jsonText(e.PreviousState),
		NewState:      jsonText(e.NewState),
		Reason:        e.Reason,
		Timestamp:     e.Timestamp.UTC(),
	}
}

func rawJSON(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(*s)
}

func jsonText(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
