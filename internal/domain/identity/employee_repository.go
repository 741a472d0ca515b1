package identity

import (
	"context"

	"github.com/google/uuid"
)

// EmployeeRepository defines the interface for employee persistence
type EmployeeRepository interface {
	// FindByID finds an employee by ID, returning shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)

	// FindByUsername finds an employee by login name, returning shared.ErrNotFound when absent
	FindByUsername(ctx context.Context, username string) (*Employee, error)

	// FindAll returns the full roster, active and inactive, ordered by name
	FindAll(ctx context.Context) ([]*Employee, error)

	// Save creates or updates an employee
	Save(ctx context.Context, employee *Employee) error
}

// SessionProvider exposes the currently authenticated actor.
// CurrentActor returns nil when nobody is signed in.
type SessionProvider interface {
	CurrentActor(ctx context.Context) *Employee
}
