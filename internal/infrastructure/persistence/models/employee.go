package models

import (
	"strings"

	"github.com/merchpulse/backend/internal/domain/identity"
)

// EmployeeModel is the persistence model for the Employee domain entity.
type EmployeeModel struct {
	BaseModel
	Name        string        `gorm:"type:varchar(200);not null"`
	Username    string        `gorm:"type:varchar(100);not null;uniqueIndex"`
	PINHash     string        `gorm:"column:pin_hash;type:varchar(255);not null"`
	Role        identity.Role `gorm:"type:varchar(20);not null"`
	Permissions string        `gorm:"type:text;not null;default:''"`
	Active      bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the persistence model to a domain Employee.
// Unknown permission codes left over from older releases are dropped.
func (m *EmployeeModel) ToDomain() *identity.Employee {
	perms := identity.NewPermissionSet()
	for _, code := range strings.Split(m.Permissions, ",") {
		if p, err := identity.ParsePermission(code); err == nil {
			perms.Grant(p)
		}
	}
	return &identity.Employee{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Username:    m.Username,
		PINHash:     m.PINHash,
		Role:        m.Role,
		Permissions: perms,
		Active:      m.Active,
	}
}

// FromDomain populates the persistence model from a domain Employee.
func (m *EmployeeModel) FromDomain(e *identity.Employee) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.Name = e.Name
	m.Username = e.Username
	m.PINHash = e.PINHash
	m.Role = e.Role
	m.Permissions = strings.Join(e.Permissions.Strings(), ",")
	m.Active = e.Active
}

// EmployeeModelFromDomain creates a new persistence model from a domain Employee.
func EmployeeModelFromDomain(e *identity.Employee) *EmployeeModel {
	m := &EmployeeModel{}
	m.FromDomain(e)
	return m
}
