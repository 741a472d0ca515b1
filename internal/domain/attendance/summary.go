package attendance

import (
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/identity"
)

// DailySummary is the per-employee projection of one day's punches.
// It is derived on demand and never stored.
type DailySummary struct {
	EmployeeID   uuid.UUID
	EmployeeName string
	Role         identity.Role
	Active       bool
	FirstIn      *time.Time
	LastOut      *time.Time
	TotalPunches int
}

// BuildDailySummaries produces one summary per roster entry, in roster order.
// Only punches inside the window are counted; punches of employees missing from
// the roster are ignored and reported through the returned orphan count.
func BuildDailySummaries(roster []*identity.Employee, punches []*TimePunch, day DayWindow) ([]DailySummary, int) {
	byEmployee := make(map[uuid.UUID][]*TimePunch, len(roster))
	for _, p := range punches {
		if !day.Contains(p.Timestamp) {
			continue
		}
		byEmployee[p.EmployeeID] = append(byEmployee[p.EmployeeID], p)
	}

	summaries := make([]DailySummary, 0, len(roster))
	for _, e := range roster {
		s := DailySummary{
			EmployeeID:   e.ID,
			EmployeeName: e.Name,
			Role:         e.Role,
			Active:       e.Active,
		}
		own := byEmployee[e.ID]
		delete(byEmployee, e.ID)
		s.TotalPunches = len(own)

		for _, p := range own {
			ts := p.Timestamp
			switch p.Type {
			case PunchIn:
				if s.FirstIn == nil || ts.Before(*s.FirstIn) {
					s.FirstIn = &ts
				}
			case PunchOut:
				if s.LastOut == nil || ts.After(*s.LastOut) {
					s.LastOut = &ts
				}
			}
		}
		summaries = append(summaries, s)
	}

	orphans := 0
	for _, rest := range byEmployee {
		orphans += len(rest)
	}
	return summaries, orphans
}
