package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_\-.]+$`)
	pinPattern      = regexp.MustCompile(`^[0-9]{4,12}$`)
)

// Employee is a staff member who punches in and out and may act on others' records.
// CreatedAt doubles as the join timestamp.
type Employee struct {
	shared.BaseEntity
	Name        string
	Username    string
	PINHash     string
	Role        Role
	Permissions PermissionSet
	Active      bool
}

// EmployeeSnapshot is the serializable view of an employee used in audit entries.
// It never carries the PIN hash.
type EmployeeSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions"`
	Active      bool      `json:"active"`
	JoinedAt    time.Time `json:"joined_at"`
}

// NewEmployee creates an active employee holding the role's default grants
func NewEmployee(name, username, pin string, role Role, joinedAt time.Time) (*Employee, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	e := &Employee{
		BaseEntity:  shared.NewBaseEntity(joinedAt),
		Name:        strings.TrimSpace(name),
		Username:    username,
		Role:        role,
		Permissions: DefaultPermissions(role),
		Active:      true,
	}
	if err := e.SetPIN(pin, joinedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// JoinedAt returns when the employee joined
func (e *Employee) JoinedAt() time.Time {
	return e.CreatedAt
}

// HasPermission reports whether the employee currently holds p.
// Inactive employees hold nothing.
func (e *Employee) HasPermission(p Permission) bool {
	if e == nil || !e.Active {
		return false
	}
	return e.Permissions.Has(p)
}

// SetPIN replaces the login PIN
func (e *Employee) SetPIN(pin string, at time.Time) error {
	if !pinPattern.MatchString(pin) {
		return shared.NewDomainError("INVALID_PIN", "PIN must be 4 to 12 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return shared.NewDomainError("PIN_HASH_ERROR", "Failed to hash PIN")
	}
	e.PINHash = string(hash)
	e.Touch(at)
	return nil
}

// CheckPIN compares a candidate PIN with the stored hash
func (e *Employee) CheckPIN(pin string) bool {
	if e.PINHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(e.PINHash), []byte(pin)) == nil
}

// Rename changes the display name
func (e *Employee) Rename(name string, at time.Time) error {
	if err := validateName(name); err != nil {
		return err
	}
	e.Name = strings.TrimSpace(name)
	e.Touch(at)
	return nil
}

// ChangeRole moves the employee to another role and resets grants to that role's defaults
func (e *Employee) ChangeRole(role Role, at time.Time) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	e.Role = role
	e.Permissions = DefaultPermissions(role)
	e.Touch(at)
	return nil
}

// SetPermissions replaces the granted capability set
func (e *Employee) SetPermissions(perms PermissionSet, at time.Time) {
	e.Permissions = perms.Clone()
	e.Touch(at)
}

// Deactivate marks the employee inactive
func (e *Employee) Deactivate(at time.Time) error {
	if !e.Active {
		return shared.NewDomainError(shared.CodeInvalidState, "Employee is already inactive")
	}
	e.Active = false
	e.Touch(at)
	return nil
}

// Snapshot returns the audit view of the employee
func (e *Employee) Snapshot() EmployeeSnapshot {
	return EmployeeSnapshot{
		ID:          e.ID,
		Name:        e.Name,
		Username:    e.Username,
		Role:        e.Role,
		Permissions: e.Permissions.Strings(),
		Active:      e.Active,
		JoinedAt:    e.CreatedAt,
	}
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}
