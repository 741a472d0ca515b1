package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockSessionProvider is a mock implementation of identity.SessionProvider
type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) CurrentActor(ctx context.Context) *identity.Employee {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*identity.Employee)
}

func createEmployee(t *testing.T, role identity.Role) *identity.Employee {
	t.Helper()
	e, err := identity.NewEmployee("Test User", "test_"+string(role), "1234", role, time.Now())
	require.NoError(t, err)
	return e
}

func TestPolicy_CheckPermission(t *testing.T) {
	staff := createEmployee(t, identity.RoleStaff)
	manager := createEmployee(t, identity.RoleManager)
	inactive := createEmployee(t, identity.RoleAdmin)
	require.NoError(t, inactive.Deactivate(time.Now()))

	tests := []struct {
		name  string
		actor *identity.Employee
		perm  identity.Permission
		want  bool
	}{
		{"staff can punch", staff, identity.PermissionSelfPunch, true},
		{"staff cannot adjust", staff, identity.PermissionAdjustPunch, false},
		{"manager can view all", manager, identity.PermissionViewAllPunches, true},
		{"manager cannot manage employees", manager, identity.PermissionManageEmployees, false},
		{"inactive admin holds nothing", inactive, identity.PermissionSelfPunch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := new(MockSessionProvider)
			session.On("CurrentActor", mock.Anything).Return(tt.actor)

			p := NewPolicy(session, nil, zap.NewNop())
			assert.Equal(t, tt.want, p.CheckPermission(context.Background(), tt.perm))
		})
	}
}

func TestPolicy_NoActorDeniesEverything(t *testing.T) {
	session := new(MockSessionProvider)
	session.On("CurrentActor", mock.Anything).Return(nil)
	p := NewPolicy(session, nil, nil)

	for _, perm := range identity.AllPermissions() {
		assert.False(t, p.CheckPermission(context.Background(), perm), perm)
		assert.ErrorIs(t, p.RequirePermission(context.Background(), perm), shared.ErrUnauthorized)
	}
}

func TestPolicy_RequirePermission(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	staff := createEmployee(t, identity.RoleStaff)
	session := new(MockSessionProvider)
	session.On("CurrentActor", mock.Anything).Return(staff)
	p := NewPolicy(session, nil, zap.New(core))

	require.NoError(t, p.RequirePermission(context.Background(), identity.PermissionSelfPunch))
	assert.Zero(t, recorded.Len())

	err := p.RequirePermission(context.Background(), identity.PermissionAdjustPunch)
	require.Error(t, err)

	var unauthorized *UnauthorizedError
	require.True(t, errors.As(err, &unauthorized))
	assert.Equal(t, identity.PermissionAdjustPunch, unauthorized.Permission)
	assert.Contains(t, err.Error(), "punch:adjust")

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeUnauthorized, domainErr.Code)

	entries := recorded.FilterMessage("Permission denied").All()
	require.Len(t, entries, 1)
	assert.Equal(t, staff.ID.String(), entries[0].ContextMap()["actor_id"])
}

func TestPolicy_Actor(t *testing.T) {
	manager := createEmployee(t, identity.RoleManager)
	session := new(MockSessionProvider)
	session.On("CurrentActor", mock.Anything).Return(manager)
	p := NewPolicy(session, nil, nil)

	actor, err := p.Actor(context.Background(), identity.PermissionAdjustPunch)
	require.NoError(t, err)
	assert.Same(t, manager, actor)

	_, err = p.Actor(context.Background(), identity.PermissionManageEmployees)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
