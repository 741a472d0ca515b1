package identity

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	appaudit "github.com/merchpulse/backend/internal/application/audit"
	"github.com/merchpulse/backend/internal/application/authz"
	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/auth"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrEmployeeNotFound is returned when an employee id does not exist
var ErrEmployeeNotFound = shared.NewDomainError(shared.CodeNotFound, "Employee not found")

// EmployeeService manages the roster. Every mutation requires employee:manage
// and writes exactly one audit entry.
type EmployeeService struct {
	employees identity.EmployeeRepository
	policy    *authz.Policy
	audit     appaudit.Sink
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	clock     clock.Clock
	validate  *validator.Validate
	metrics   *telemetry.AttendanceMetrics
	logger    *zap.Logger
}

// NewEmployeeService creates an employee service. blacklist and metrics may be nil;
// tokenTTL bounds how long a deactivation keeps old tokens revoked.
func NewEmployeeService(
	employees identity.EmployeeRepository,
	policy *authz.Policy,
	sink appaudit.Sink,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	clk clock.Clock,
	metrics *telemetry.AttendanceMetrics,
	logger *zap.Logger,
) *EmployeeService {
	if clk == nil {
		clk = clock.Real()
	}
	return &EmployeeService{
		employees: employees,
		policy:    policy,
		audit:     sink,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		clock:     clk,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		metrics:   metrics,
		logger:    logger,
	}
}

// List returns the roster ordered by name. Requires punch:view_all or employee:manage.
func (s *EmployeeService) List(ctx context.Context) ([]*identity.Employee, error) {
	if !s.policy.CheckPermission(ctx, identity.PermissionViewAllPunches) {
		if err := s.policy.RequirePermission(ctx, identity.PermissionManageEmployees); err != nil {
			return nil, err
		}
	}

	roster, err := s.employees.FindAll(ctx)
	if err != nil {
		return nil, shared.NewPersistenceError("load roster", err)
	}
	return roster, nil
}

// Create adds an employee
func (s *EmployeeService) Create(ctx context.Context, input CreateEmployeeInput) (*identity.Employee, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if err := s.policy.RequirePermission(ctx, identity.PermissionManageEmployees); err != nil {
		return nil, err
	}

	employee, err := s.newEmployee(ctx, input.Name, input.Username, input.PIN, identity.Role(input.Role))
	if err != nil {
		return nil, err
	}
	if input.Permissions != nil {
		perms, err := identity.ParsePermissionSet(input.Permissions)
		if err != nil {
			return nil, err
		}
		employee.SetPermissions(perms, employee.CreatedAt)
	}

	if err := s.employees.Save(ctx, employee); err != nil {
		s.logger.Error("Failed to create employee", zap.Error(err))
		return nil, shared.NewPersistenceError("create employee", err)
	}

	s.recordAudit(ctx, audit.ActionEmployeeCreated, employee.ID, nil, employee.Snapshot())
	s.logger.Info("Employee created",
		zap.String("employee_id", employee.ID.String()),
		zap.String("username", employee.Username),
		zap.String("role", employee.Role.String()))
	return employee, nil
}

// Update renames, re-roles, re-grants or re-PINs an employee
func (s *EmployeeService) Update(ctx context.Context, id uuid.UUID, input UpdateEmployeeInput) (*identity.Employee, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if err := s.policy.RequirePermission(ctx, identity.PermissionManageEmployees); err != nil {
		return nil, err
	}

	employee, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := employee.Snapshot()
	now := s.clock.Now()

	if input.Name != nil {
		if err := employee.Rename(*input.Name, now); err != nil {
			return nil, err
		}
	}
	if input.Role != nil {
		if err := employee.ChangeRole(identity.Role(*input.Role), now); err != nil {
			return nil, err
		}
	}
	if input.Permissions != nil {
		perms, err := identity.ParsePermissionSet(*input.Permissions)
		if err != nil {
			return nil, err
		}
		employee.SetPermissions(perms, now)
	}
	if input.PIN != nil {
		if err := employee.SetPIN(*input.PIN, now); err != nil {
			return nil, err
		}
	}

	if err := s.employees.Save(ctx, employee); err != nil {
		s.logger.Error("Failed to update employee", zap.Error(err))
		return nil, shared.NewPersistenceError("update employee", err)
	}

	s.recordAudit(ctx, audit.ActionEmployeeUpdated, employee.ID, before, employee.Snapshot())
	return employee, nil
}

// Deactivate marks an employee inactive and revokes their outstanding tokens.
// Employees cannot deactivate themselves.
func (s *EmployeeService) Deactivate(ctx context.Context, id uuid.UUID) (*identity.Employee, error) {
	actor, err := s.policy.Actor(ctx, identity.PermissionManageEmployees)
	if err != nil {
		return nil, err
	}
	if actor.ID == id {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "You cannot deactivate your own account")
	}

	employee, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := employee.Snapshot()

	if err := employee.Deactivate(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.employees.Save(ctx, employee); err != nil {
		s.logger.Error("Failed to deactivate employee", zap.Error(err))
		return nil, shared.NewPersistenceError("deactivate employee", err)
	}

	if s.blacklist != nil {
		if err := s.blacklist.InvalidateEmployeeTokens(ctx, employee.ID.String(), s.tokenTTL); err != nil {
			s.logger.Warn("Failed to revoke tokens of deactivated employee", zap.Error(err))
		}
	}

	s.recordAudit(ctx, audit.ActionEmployeeDeactivated, employee.ID, before, employee.Snapshot())
	s.logger.Info("Employee deactivated", zap.String("employee_id", employee.ID.String()))
	return employee, nil
}

// Bootstrap creates the first administrator when the roster is empty.
// It runs without a session, so the audit entry is attributed to SYSTEM.
// Returns nil, nil when employees already exist.
func (s *EmployeeService) Bootstrap(ctx context.Context, input BootstrapInput) (*identity.Employee, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	roster, err := s.employees.FindAll(ctx)
	if err != nil {
		return nil, shared.NewPersistenceError("load roster", err)
	}
	if len(roster) > 0 {
		return nil, nil
	}

	admin, err := s.newEmployee(ctx, input.Name, input.Username, input.PIN, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.employees.Save(ctx, admin); err != nil {
		return nil, shared.NewPersistenceError("create employee", err)
	}

	s.recordAudit(ctx, audit.ActionEmployeeCreated, admin.ID, nil, admin.Snapshot())
	s.logger.Info("Bootstrap administrator created", zap.String("username", admin.Username))
	return admin, nil
}

func (s *EmployeeService) newEmployee(ctx context.Context, name, username, pin string, role identity.Role) (*identity.Employee, error) {
	employee, err := identity.NewEmployee(name, username, pin, role, s.clock.Now())
	if err != nil {
		return nil, err
	}

	_, err = s.employees.FindByUsername(ctx, employee.Username)
	switch {
	case err == nil:
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username is already taken")
	case !errors.Is(err, shared.ErrNotFound):
		return nil, shared.NewPersistenceError("check username", err)
	}
	return employee, nil
}

func (s *EmployeeService) find(ctx context.Context, id uuid.UUID) (*identity.Employee, error) {
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, shared.NewPersistenceError("load employee", err)
	}
	return employee, nil
}

// recordAudit writes the entry after a committed mutation. A failure is logged and
// counted; the mutation stands.
func (s *EmployeeService) recordAudit(ctx context.Context, action audit.Action, id uuid.UUID, before, after any) {
	if _, err := s.audit.LogAction(context.WithoutCancel(ctx), action, audit.EntityEmployee, id.String(), before, after, ""); err != nil {
		s.logger.Error("Employee change committed without audit entry",
			zap.String("action", action.String()),
			zap.String("employee_id", id.String()),
			zap.Any("previous_state", before),
			zap.Any("new_state", after),
			zap.Error(err))
		s.metrics.AuditWriteFailed(ctx, action.String())
	}
}
