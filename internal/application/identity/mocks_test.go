package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/stretchr/testify/mock"
)

// MockEmployeeRepository is a mock implementation of identity.EmployeeRepository
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindByUsername(ctx context.Context, username string) (*identity.Employee, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindAll(ctx context.Context) ([]*identity.Employee, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Save(ctx context.Context, employee *identity.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

// MockAuditSink is a mock implementation of the audit sink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) LogAction(
	ctx context.Context,
	action audit.Action,
	entityType audit.EntityType,
	entityID string,
	previous, next any,
	note string,
) (*audit.LogEntry, error) {
	args := m.Called(ctx, action, entityType, entityID, previous, next, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.LogEntry), args.Error(1)
}

// MockTokenBlacklist is a mock implementation of auth.TokenBlacklist
type MockTokenBlacklist struct {
	mock.Mock
}

func (m *MockTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *MockTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenBlacklist) InvalidateEmployeeTokens(ctx context.Context, employeeID string, ttl time.Duration) error {
	args := m.Called(ctx, employeeID, ttl)
	return args.Error(0)
}

func (m *MockTokenBlacklist) IsEmployeeTokenInvalidated(ctx context.Context, employeeID string, issuedAt time.Time) (bool, error) {
	args := m.Called(ctx, employeeID, issuedAt)
	return args.Bool(0), args.Error(1)
}
