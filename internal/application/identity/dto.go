package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/identity"
)

// LoginInput contains the input for employee login
type LoginInput struct {
	Username string `validate:"required,max=100"`
	PIN      string `validate:"required,numeric,min=4,max=12"`
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	TokenType            string
	Employee             EmployeeInfo
}

// EmployeeInfo is the public view of an employee
type EmployeeInfo struct {
	ID          uuid.UUID
	Name        string
	Username    string
	Role        identity.Role
	Permissions []string
	Active      bool
	JoinedAt    time.Time
}

// ToEmployeeInfo converts a domain employee to its public view
func ToEmployeeInfo(e *identity.Employee) EmployeeInfo {
	return EmployeeInfo{
		ID:          e.ID,
		Name:        e.Name,
		Username:    e.Username,
		Role:        e.Role,
		Permissions: e.Permissions.Strings(),
		Active:      e.Active,
		JoinedAt:    e.JoinedAt(),
	}
}

// LogoutInput contains the input for employee logout
type LogoutInput struct {
	EmployeeID uuid.UUID
	TokenJTI   string
	ExpiresAt  time.Time
}

// CreateEmployeeInput contains the input for adding an employee.
// A nil Permissions uses the role's defaults.
type CreateEmployeeInput struct {
	Name        string   `validate:"required,max=200"`
	Username    string   `validate:"required,min=3,max=100"`
	PIN         string   `validate:"required,numeric,min=4,max=12"`
	Role        string   `validate:"required,oneof=ADMIN MANAGER STAFF"`
	Permissions []string `validate:"omitempty,dive,required"`
}

// UpdateEmployeeInput contains the changes to apply; nil fields are left as they are.
// A role change resets grants to the new role's defaults before Permissions is applied.
type UpdateEmployeeInput struct {
	Name        *string   `validate:"omitempty,max=200"`
	PIN         *string   `validate:"omitempty,numeric,min=4,max=12"`
	Role        *string   `validate:"omitempty,oneof=ADMIN MANAGER STAFF"`
	Permissions *[]string `validate:"omitempty"`
}

// BootstrapInput describes the first administrator created on an empty roster
type BootstrapInput struct {
	Name     string `validate:"required,max=200"`
	Username string `validate:"required,min=3,max=100"`
	PIN      string `validate:"required,numeric,min=4,max=12"`
}
