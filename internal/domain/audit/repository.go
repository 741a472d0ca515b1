package audit

import (
	"context"
	"time"
)

// LogRepository persists audit entries.
// Entries are append-only: there is deliberately no update or delete.
type LogRepository interface {
	// Create appends an entry
	Create(ctx context.Context, entry *LogEntry) error

	// FindRecent returns at most limit entries, newest first
	FindRecent(ctx context.Context, limit int) ([]*LogEntry, error)

	// FindByEntity returns every entry for one entity, newest first
	FindByEntity(ctx context.Context, entityType EntityType, entityID string) ([]*LogEntry, error)

	// FindInRange returns entries with from <= timestamp < to, oldest first
	FindInRange(ctx context.Context, from, to time.Time) ([]*LogEntry, error)
}
