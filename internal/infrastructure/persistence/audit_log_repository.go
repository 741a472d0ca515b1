package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/merchpulse/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements audit.LogRepository using GORM.
// It only ever inserts and reads.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an entry
func (r *GormAuditLogRepository) Create(ctx context.Context, entry *audit.LogEntry) error {
	if err := r.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(entry)).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// FindRecent returns at most limit entries, newest first
func (r *GormAuditLogRepository) FindRecent(ctx context.Context, limit int) ([]*audit.LogEntry, error) {
	var rows []models.AuditLogModel
	err := r.db.WithContext(ctx).
		Order("logged_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list recent audit entries: %w", err)
	}
	return toEntries(rows), nil
}

// FindByEntity returns the history of one entity, newest first
func (r *GormAuditLogRepository) FindByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]*audit.LogEntry, error) {
	var rows []models.AuditLogModel
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("logged_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries of %s %s: %w", entityType, entityID, err)
	}
	return toEntries(rows), nil
}

// FindInRange returns entries logged in [from, to), oldest first
func (r *GormAuditLogRepository) FindInRange(ctx context.Context, from, to time.Time) ([]*audit.LogEntry, error) {
	var rows []models.AuditLogModel
	err := r.db.WithContext(ctx).
		Where("logged_at >= ? AND logged_at < ?", from.UTC(), to.UTC()).
		Order("logged_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries in range: %w", err)
	}
	return toEntries(rows), nil
}

func toEntries(rows []models.AuditLogModel) []*audit.LogEntry {
	entries := make([]*audit.LogEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}

var _ audit.LogRepository = (*GormAuditLogRepository)(nil)
