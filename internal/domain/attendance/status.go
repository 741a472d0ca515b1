package attendance

import (
	"time"

	"github.com/google/uuid"
)

// PunchStatus is an employee's clock state for a day
type PunchStatus string

const (
	StatusNotStarted PunchStatus = "NOT_STARTED"
	StatusClockedIn  PunchStatus = "CLOCKED_IN"
	StatusClockedOut PunchStatus = "CLOCKED_OUT"
)

// String returns the status name
func (s PunchStatus) String() string {
	return string(s)
}

// StatusFor derives the day's status from the employee's last recorded punch.
// An open IN keeps the employee clocked in even if it was recorded on an earlier day;
// an OUT only counts as CLOCKED_OUT when it falls inside the day.
func StatusFor(last *TimePunch, day DayWindow) PunchStatus {
	switch {
	case last == nil:
		return StatusNotStarted
	case last.Type == PunchIn:
		return StatusClockedIn
	case day.Contains(last.Timestamp):
		return StatusClockedOut
	default:
		return StatusNotStarted
	}
}

// ValidateNext checks a new punch against the last recorded punch.
// With no prior punch only IN is accepted, as if the last punch had been an OUT.
func ValidateNext(last *TimePunch, typ PunchType, at time.Time) error {
	if !typ.IsValid() {
		return ErrInvalidPunchType
	}

	lastType := PunchOut
	if last != nil {
		lastType = last.Type
	}
	if typ == lastType {
		return ErrDuplicatePunchType
	}
	if last != nil && !at.After(last.Timestamp) {
		return ErrPunchOutOfOrder
	}
	return nil
}

// StatusAfter returns the status reached by recording a punch of the given type
func StatusAfter(typ PunchType) PunchStatus {
	if typ == PunchIn {
		return StatusClockedIn
	}
	return StatusClockedOut
}

// BreaksAlternation reports whether the punch with the given id sits next to a
// punch of the same type once the set is put in chronological order
func BreaksAlternation(punches []*TimePunch, id uuid.UUID) bool {
	sorted := SortPunches(punches)
	for i, p := range sorted {
		if p.ID != id {
			continue
		}
		if i > 0 && sorted[i-1].Type == p.Type {
			return true
		}
		return i+1 < len(sorted) && sorted[i+1].Type == p.Type
	}
	return false
}
