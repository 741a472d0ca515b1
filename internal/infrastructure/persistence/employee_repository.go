package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEmployeeRepository implements identity.EmployeeRepository using GORM
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new GormEmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// FindByID finds an employee by ID
func (r *GormEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find employee %s: %w", id, err)
	}
	return model.ToDomain(), nil
}

// FindByUsername finds an employee by login name, case-insensitively
func (r *GormEmployeeRepository) FindByUsername(ctx context.Context, username string) (*identity.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find employee by username: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll returns the whole roster ordered by name
func (r *GormEmployeeRepository) FindAll(ctx context.Context) ([]*identity.Employee, error) {
	var rows []models.EmployeeModel
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	employees := make([]*identity.Employee, len(rows))
	for i := range rows {
		employees[i] = rows[i].ToDomain()
	}
	return employees, nil
}

// Save inserts the employee or overwrites the stored row with the same ID
func (r *GormEmployeeRepository) Save(ctx context.Context, employee *identity.Employee) error {
	model := models.EmployeeModelFromDomain(employee)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Username is already taken")
		}
		return fmt.Errorf("save employee %s: %w", employee.ID, err)
	}
	return nil
}

var _ identity.EmployeeRepository = (*GormEmployeeRepository)(nil)
