package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ArchiveContentType is the content type of an exported day
const ArchiveContentType = "application/x-ndjson"

// ObjectStore is the write side of the archive bucket
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// ArchiveResult describes one exported day
type ArchiveResult struct {
	Date    string
	Key     string
	Entries int
	Skipped bool // the object already existed
}

// Archiver exports a day of audit entries as JSON lines, one object per day.
// Re-running a day that already has an object is a no-op.
type Archiver struct {
	repo     audit.LogRepository
	store    ObjectStore
	prefix   string
	location *time.Location
	clock    clock.Clock
	logger   *zap.Logger
}

// NewArchiver creates an archiver writing under prefix
func NewArchiver(
	repo audit.LogRepository,
	store ObjectStore,
	prefix string,
	loc *time.Location,
	clk clock.Clock,
	logger *zap.Logger,
) *Archiver {
	if loc == nil {
		loc = time.UTC
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Archiver{
		repo:     repo,
		store:    store,
		prefix:   strings.Trim(prefix, "/"),
		location: loc,
		clock:    clk,
		logger:   logger,
	}
}

// ArchivePreviousDay exports yesterday in the configured zone
func (a *Archiver) ArchivePreviousDay(ctx context.Context) (*ArchiveResult, error) {
	return a.ArchiveDay(ctx, attendance.DayOf(a.clock.Now(), a.location).Previous())
}

// ArchiveDay exports every entry with a timestamp inside day
func (a *Archiver) ArchiveDay(ctx context.Context, day attendance.DayWindow) (*ArchiveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "audit", "archive_day",
		telemetry.WithAttribute(telemetry.SpanAttrDate, day.Date()),
	)
	defer span.End()

	result := &ArchiveResult{Date: day.Date(), Key: a.KeyFor(day)}

	exists, err := a.store.ObjectExists(ctx, result.Key)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("check archive object: %w", err)
	}
	if exists {
		a.logger.Info("Audit archive already present", zap.String("key", result.Key))
		result.Skipped = true
		return result, nil
	}

	entries, err := a.repo.FindInRange(ctx, day.Start, day.End)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError("load audit entries for archive", err)
	}

	data, err := EncodeJSONLines(entries)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := a.store.Upload(ctx, result.Key, data, ArchiveContentType); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("upload audit archive: %w", err)
	}

	result.Entries = len(entries)
	a.logger.Info("Audit archive written",
		zap.String("key", result.Key),
		zap.String("date", result.Date),
		zap.Int("entries", result.Entries),
	)
	telemetry.SetOK(span)
	return result, nil
}

// KeyFor returns prefix/YYYY/MM/DD.jsonl for the day
func (a *Archiver) KeyFor(day attendance.DayWindow) string {
	name := day.Start.Format("2006/01/02") + ".jsonl"
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

type archivedEntry struct {
	ID            string          `json:"id"`
	Action        string          `json:"action"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	ActorID       string          `json:"actor_id"`
	PreviousState json.RawMessage `json:"previous_state"`
	NewState      json.RawMessage `json:"new_state"`
	Reason        *string         `json:"reason"`
	Timestamp     time.Time       `json:"timestamp"`
}

// EncodeJSONLines renders entries one JSON object per line, in the given order
func EncodeJSONLines(entries []*audit.LogEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		line := archivedEntry{
			ID:            e.ID.String(),
			Action:        e.Action.String(),
			EntityType:    e.EntityType.String(),
			EntityID:      e.EntityID,
			ActorID:       e.ActorID,
			PreviousState: nullIfEmpty(e.PreviousState),
			NewState:      nullIfEmpty(e.NewState),
			Reason:        e.Reason,
			Timestamp:     e.Timestamp.UTC(),
		}
		if err := enc.Encode(line); err != nil {
			return nil, fmt.Errorf("encode audit entry %s: %w", e.ID, err)
		}
	}
	return buf.Bytes(), nil
}

func nullIfEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
