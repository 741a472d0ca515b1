package identity

import (
	"slices"
	"strings"

	"github.com/merchpulse/backend/internal/domain/shared"
)

// Permission is a named capability in resource:action form.
// The set of permissions is closed; ParsePermission rejects anything not listed below.
type Permission string

const (
	PermissionSelfPunch       Permission = "punch:self"
	PermissionViewOwnPunch    Permission = "punch:view_own"
	PermissionViewAllPunches  Permission = "punch:view_all"
	PermissionAdjustPunch     Permission = "punch:adjust"
	PermissionManageEmployees Permission = "employee:manage"
	PermissionAdjustStock     Permission = "stock:adjust"
	PermissionViewAuditLog    Permission = "audit:view"
)

// ErrInvalidPermission is returned when a permission code is not part of the closed set
var ErrInvalidPermission = shared.NewDomainError("INVALID_PERMISSION", "Unknown permission code")

// AllPermissions returns every permission in declaration order
func AllPermissions() []Permission {
	return []Permission{
		PermissionSelfPunch,
		PermissionViewOwnPunch,
		PermissionViewAllPunches,
		PermissionAdjustPunch,
		PermissionManageEmployees,
		PermissionAdjustStock,
		PermissionViewAuditLog,
	}
}

// ParsePermission converts a code such as "punch:adjust" into a Permission
func ParsePermission(code string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(code)))
	if !p.IsValid() {
		return "", shared.NewDomainError(ErrInvalidPermission.Code, "Unknown permission code: "+code)
	}
	return p, nil
}

// IsValid returns true if the permission belongs to the closed set
func (p Permission) IsValid() bool {
	return slices.Contains(AllPermissions(), p)
}

// String returns the permission code
func (p Permission) String() string {
	return string(p)
}

// Resource returns the part before the colon
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ":")
	return resource
}

// Action returns the part after the colon
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ":")
	return action
}

// PermissionSet is an unordered set of granted permissions
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ParsePermissionSet builds a set from permission codes, failing on the first unknown code
func ParsePermissionSet(codes []string) (PermissionSet, error) {
	set := make(PermissionSet, len(codes))
	for _, code := range codes {
		p, err := ParsePermission(code)
		if err != nil {
			return nil, err
		}
		set[p] = struct{}{}
	}
	return set, nil
}

// Has reports whether the set contains p
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Grant adds p to the set
func (s PermissionSet) Grant(p Permission) {
	s[p] = struct{}{}
}

// Revoke removes p from the set
func (s PermissionSet) Revoke(p Permission) {
	delete(s, p)
}

// Clone returns an independent copy
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Slice returns the permissions sorted by code
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Strings returns the permission codes sorted
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
