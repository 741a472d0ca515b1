package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(t *testing.T, entityID string, at time.Time, prev, next string) *audit.LogEntry {
	t.Helper()
	var p, n json.RawMessage
	if prev != "" {
		p = json.RawMessage(prev)
	}
	if next != "" {
		n = json.RawMessage(next)
	}
	entry, err := audit.NewLogEntry(audit.ActionPunchCorrected, audit.EntityPunch, entityID, "manager-1", p, n, "clock drift", at)
	require.NoError(t, err)
	return entry
}

func TestGormAuditLogRepository_CreateAndRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAuditLogRepository(db.DB)
	ctx := context.Background()

	first := newTestEntry(t, "punch-1", day.Add(9*time.Hour), `{"type":"IN"}`, `{"type":"OUT"}`)
	second := newTestEntry(t, "punch-2", day.Add(10*time.Hour), "", `{"type":"IN"}`)
	third := newTestEntry(t, "punch-1", day.Add(26*time.Hour), `{"type":"OUT"}`, `{"type":"IN"}`)
	for _, e := range []*audit.LogEntry{first, second, third} {
		require.NoError(t, repo.Create(ctx, e))
	}

	t.Run("recent newest first", func(t *testing.T) {
		entries, err := repo.FindRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, third.ID, entries[0].ID)
		assert.Equal(t, second.ID, entries[1].ID)
	})

	t.Run("by entity", func(t *testing.T) {
		entries, err := repo.FindByEntity(ctx, audit.EntityPunch, "punch-1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, third.ID, entries[0].ID)
		assert.JSONEq(t, `{"type":"IN"}`, string(entries[1].PreviousState))
		assert.JSONEq(t, `{"type":"OUT"}`, string(entries[1].NewState))
		require.NotNil(t, entries[1].Reason)
		assert.Equal(t, "clock drift", *entries[1].Reason)
	})

	t.Run("absent snapshot stays nil", func(t *testing.T) {
		entries, err := repo.FindByEntity(ctx, audit.EntityPunch, "punch-2")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].PreviousState)
	})

	t.Run("range oldest first", func(t *testing.T) {
		entries, err := repo.FindInRange(ctx, day, day.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, first.ID, entries[0].ID)
		assert.Equal(t, second.ID, entries[1].ID)
	})
}

func TestGormAuditLogRepository_SameTimestampOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAuditLogRepository(db.DB)
	ctx := context.Background()

	at := day.Add(9 * time.Hour)
	ids := []uuid.UUID{
		uuid.MustParse("00000000-0000-4000-8000-000000000002"),
		uuid.MustParse("00000000-0000-4000-8000-000000000003"),
		uuid.MustParse("00000000-0000-4000-8000-000000000001"),
	}
	for _, id := range ids {
		entry := newTestEntry(t, "punch-1", at, `{"type":"IN"}`, `{"type":"OUT"}`)
		entry.ID = id
		require.NoError(t, repo.Create(ctx, entry))
	}

	idsOf := func(entries []*audit.LogEntry) []uuid.UUID {
		out := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			out[i] = e.ID
		}
		return out
	}
	desc := []uuid.UUID{ids[1], ids[0], ids[2]}
	asc := []uuid.UUID{ids[2], ids[0], ids[1]}

	for range 3 {
		recent, err := repo.FindRecent(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, desc, idsOf(recent))

		byEntity, err := repo.FindByEntity(ctx, audit.EntityPunch, "punch-1")
		require.NoError(t, err)
		assert.Equal(t, desc, idsOf(byEntity))

		inRange, err := repo.FindInRange(ctx, day, day.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, asc, idsOf(inRange))
	}
}
