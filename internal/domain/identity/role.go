package identity

import (
	"strings"

	"github.com/merchpulse/backend/internal/domain/shared"
)

// Role is one of a small closed set of staff roles
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// ErrInvalidRole is returned for role names outside the closed set
var ErrInvalidRole = shared.NewDomainError("INVALID_ROLE", "Unknown role")

// RolePermissions is the default grant table. It is data, consulted when an
// employee is created or moved to another role; checks never look at the role directly.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: AllPermissions(),
	RoleManager: {
		PermissionSelfPunch,
		PermissionViewOwnPunch,
		PermissionViewAllPunches,
		PermissionAdjustPunch,
		PermissionAdjustStock,
		PermissionViewAuditLog,
	},
	RoleStaff: {
		PermissionSelfPunch,
		PermissionViewOwnPunch,
	},
}

// AllRoles returns every role
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleStaff}
}

// ParseRole converts a role name into a Role
func ParseRole(name string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(name)))
	if !r.IsValid() {
		return "", shared.NewDomainError(ErrInvalidRole.Code, "Unknown role: "+name)
	}
	return r, nil
}

// IsValid returns true if the role is part of the closed set
func (r Role) IsValid() bool {
	_, ok := RolePermissions[r]
	return ok
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// DefaultPermissions returns a fresh set holding the role's default grants
func DefaultPermissions(r Role) PermissionSet {
	return NewPermissionSet(RolePermissions[r]...)
}
