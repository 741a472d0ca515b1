// Package attendance holds the time-punch model: punch records, the per-day
// clock-in state machine, shift duration and earnings derivation, and the
// team daily summary projection.
package attendance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/shared"
)

// PunchType is the direction of a punch
type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// ParsePunchType converts "in"/"OUT" style input into a PunchType
func ParsePunchType(s string) (PunchType, error) {
	t := PunchType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidPunchType
	}
	return t, nil
}

// IsValid returns true for IN and OUT
func (t PunchType) IsValid() bool {
	return t == PunchIn || t == PunchOut
}

// String returns the punch type name
func (t PunchType) String() string {
	return string(t)
}

const maxNoteLength = 500

// TimePunch is a single timestamped IN or OUT event for one employee.
// Punches are appended by RecordPunch and edited in place by corrections; they are never deleted.
type TimePunch struct {
	shared.BaseEntity
	EmployeeID uuid.UUID
	Timestamp  time.Time
	Type       PunchType
	DeviceID   *string
	Note       *string
	CreatedBy  uuid.UUID
}

// PunchSnapshot is the serialized form of a punch stored in audit entries
type PunchSnapshot struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Timestamp  time.Time `json:"timestamp"`
	Type       PunchType `json:"type"`
	DeviceID   *string   `json:"device_id,omitempty"`
	Note       *string   `json:"note,omitempty"`
	CreatedBy  uuid.UUID `json:"created_by"`
}

// NewTimePunch creates a punch with a fresh id
func NewTimePunch(employeeID uuid.UUID, at time.Time, typ PunchType, createdBy uuid.UUID, now time.Time) (*TimePunch, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Employee ID is required")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Creator ID is required")
	}
	if !typ.IsValid() {
		return nil, ErrInvalidPunchType
	}
	if at.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Punch timestamp is required")
	}

	return &TimePunch{
		BaseEntity: shared.NewBaseEntity(now),
		EmployeeID: employeeID,
		Timestamp:  at,
		Type:       typ,
		CreatedBy:  createdBy,
	}, nil
}

// SetNote attaches a free-text note; blank notes clear it
func (p *TimePunch) SetNote(note string) error {
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return shared.NewDomainError(shared.CodeInvalidInput, "Note cannot exceed 500 characters")
	}
	p.Note = optional(note)
	return nil
}

// SetDeviceID records which device submitted the punch
func (p *TimePunch) SetDeviceID(deviceID string) {
	p.DeviceID = optional(strings.TrimSpace(deviceID))
}

// Correct rewrites the punch in place on behalf of a supervisor.
// The id is kept; the reason becomes the note and the supervisor becomes the creator.
func (p *TimePunch) Correct(at time.Time, typ PunchType, reason string, by uuid.UUID, now time.Time) error {
	if !typ.IsValid() {
		return ErrInvalidPunchType
	}
	if at.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Punch timestamp is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "A correction reason is required")
	}
	if by == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Corrector ID is required")
	}
	if err := p.SetNote(reason); err != nil {
		return err
	}
	p.Timestamp = at
	p.Type = typ
	p.CreatedBy = by
	p.Touch(now)
	return nil
}

// Snapshot returns a copy suitable for serialization
func (p *TimePunch) Snapshot() PunchSnapshot {
	return PunchSnapshot{
		ID:         p.ID,
		EmployeeID: p.EmployeeID,
		Timestamp:  p.Timestamp,
		Type:       p.Type,
		DeviceID:   copyString(p.DeviceID),
		Note:       copyString(p.Note),
		CreatedBy:  p.CreatedBy,
	}
}

// Clone returns a deep copy of the punch
func (p *TimePunch) Clone() *TimePunch {
	c := *p
	c.DeviceID = copyString(p.DeviceID)
	c.Note = copyString(p.Note)
	return &c
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
