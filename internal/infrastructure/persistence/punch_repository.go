package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPunchRepository implements attendance.PunchRepository using GORM
type GormPunchRepository struct {
	db *gorm.DB
}

// NewGormPunchRepository creates a new GormPunchRepository
func NewGormPunchRepository(db *gorm.DB) *GormPunchRepository {
	return &GormPunchRepository{db: db}
}

// FindLast returns the most recent punch of the employee, or nil when there is none
func (r *GormPunchRepository) FindLast(ctx context.Context, employeeID uuid.UUID) (*attendance.TimePunch, error) {
	var model models.PunchModel
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("punched_at DESC").
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find last punch: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a punch by ID
func (r *GormPunchRepository) FindByID(ctx context.Context, id uuid.UUID) (*attendance.TimePunch, error) {
	var model models.PunchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find punch %s: %w", id, err)
	}
	return model.ToDomain(), nil
}

// FindByEmployee returns one employee's punches in [from, to)
func (r *GormPunchRepository) FindByEmployee(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]*attendance.TimePunch, error) {
	var rows []models.PunchModel
	err := r.inRange(ctx, from, to).
		Where("employee_id = ?", employeeID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list punches of employee %s: %w", employeeID, err)
	}
	return toPunches(rows), nil
}

// FindAll returns every punch in [from, to)
func (r *GormPunchRepository) FindAll(ctx context.Context, from, to time.Time) ([]*attendance.TimePunch, error) {
	var rows []models.PunchModel
	if err := r.inRange(ctx, from, to).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list punches: %w", err)
	}
	return toPunches(rows), nil
}

// Create appends a punch
func (r *GormPunchRepository) Create(ctx context.Context, punch *attendance.TimePunch) error {
	model := models.PunchModelFromDomain(punch)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create punch: %w", err)
	}
	return nil
}

// Update rewrites every mutable column of an existing punch
func (r *GormPunchRepository) Update(ctx context.Context, punch *attendance.TimePunch) error {
	model := models.PunchModelFromDomain(punch)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("update punch %s: %w", punch.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountInRange counts punches of all employees in [from, to)
func (r *GormPunchRepository) CountInRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	if err := r.inRange(ctx, from, to).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count punches: %w", err)
	}
	return count, nil
}

func (r *GormPunchRepository) inRange(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.PunchModel{}).
		Where("punched_at >= ? AND punched_at < ?", from.UTC(), to.UTC()).
		Order("punched_at ASC").
		Order("created_at ASC")
}

func toPunches(rows []models.PunchModel) []*attendance.TimePunch {
	punches := make([]*attendance.TimePunch, len(rows))
	for i := range rows {
		punches[i] = rows[i].ToDomain()
	}
	return punches
}

var _ attendance.PunchRepository = (*GormPunchRepository)(nil)
