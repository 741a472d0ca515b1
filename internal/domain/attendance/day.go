package attendance

import (
	"time"

	"github.com/merchpulse/backend/internal/domain/shared"
)

// DateLayout is the calendar date format used for day selection
const DateLayout = "2006-01-02"

// DayWindow is one calendar day in a given zone as the half-open range [Start, End).
// A punch at exactly midnight belongs to the day that starts at that midnight.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day containing t in loc
func DayOf(t time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// ParseDay parses a YYYY-MM-DD date into its window in loc
func ParseDay(date string, loc *time.Location) (DayWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return DayWindow{}, shared.NewDomainError(shared.CodeInvalidInput, "Date must be in YYYY-MM-DD format")
	}
	return DayOf(t, loc), nil
}

// Contains reports whether t falls inside the window
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Date returns the window's calendar date as YYYY-MM-DD
func (w DayWindow) Date() string {
	return w.Start.Format(DateLayout)
}

// Previous returns the day before this one
func (w DayWindow) Previous() DayWindow {
	return DayWindow{Start: w.Start.AddDate(0, 0, -1), End: w.Start}
}
