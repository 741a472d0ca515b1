package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PunchRepository defines the interface for time-punch persistence.
// All ranges are half-open [from, to) and results are ordered by timestamp ascending.
// Punches are never deleted, so there is no delete operation.
type PunchRepository interface {
	// FindLast returns the employee's most recent punch by timestamp, or nil when there is none
	FindLast(ctx context.Context, employeeID uuid.UUID) (*TimePunch, error)

	// FindByID finds a punch by ID, returning shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*TimePunch, error)

	// FindByEmployee returns one employee's punches inside the range
	FindByEmployee(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]*TimePunch, error)

	// FindAll returns every employee's punches inside the range
	FindAll(ctx context.Context, from, to time.Time) ([]*TimePunch, error)

	// Create appends a new punch
	Create(ctx context.Context, punch *TimePunch) error

	// Update rewrites an existing punch in place, returning shared.ErrNotFound when absent
	Update(ctx context.Context, punch *TimePunch) error

	// CountInRange counts punches of all employees inside the range
	CountInRange(ctx context.Context, from, to time.Time) (int64, error)
}
