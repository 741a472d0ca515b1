package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/attendance"
)

// PunchModel is the persistence model for the TimePunch domain entity.
type PunchModel struct {
	BaseModel
	EmployeeID uuid.UUID            `gorm:"type:uuid;not null;index:idx_time_punches_employee_ts,priority:1"`
	Timestamp  time.Time            `gorm:"column:punched_at;not null;index:idx_time_punches_employee_ts,priority:2;index"`
	Type       attendance.PunchType `gorm:"column:punch_type;type:varchar(3);not null"`
	DeviceID   *string              `gorm:"type:varchar(100)"`
	Note       *string              `gorm:"type:varchar(500)"`
	CreatedBy  uuid.UUID            `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (PunchModel) TableName() string {
	return "time_punches"
}

// ToDomain converts the persistence model to a domain TimePunch.
func (m *PunchModel) ToDomain() *attendance.TimePunch {
	return &attendance.TimePunch{
		BaseEntity: m.BaseModel.ToDomain(),
		EmployeeID: m.EmployeeID,
		Timestamp:  m.Timestamp,
		Type:       m.Type,
		DeviceID:   m.DeviceID,
		Note:       m.Note,
		CreatedBy:  m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain TimePunch.
func (m *PunchModel) FromDomain(p *attendance.TimePunch) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.EmployeeID = p.EmployeeID
	m.Timestamp = p.Timestamp.UTC()
	m.Type = p.Type
	m.DeviceID = p.DeviceID
	m.Note = p.Note
	m.CreatedBy = p.CreatedBy
}

// PunchModelFromDomain creates a new persistence model from a domain TimePunch.
func PunchModelFromDomain(p *attendance.TimePunch) *PunchModel {
	m := &PunchModel{}
	m.FromDomain(p)
	return m
}
