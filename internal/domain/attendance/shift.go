package attendance

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// SortPunches returns a copy of punches ordered by timestamp, oldest first.
// Ties are broken by creation time so the result is deterministic.
func SortPunches(punches []*TimePunch) []*TimePunch {
	sorted := slices.Clone(punches)
	slices.SortStableFunc(sorted, func(a, b *TimePunch) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}

// ShiftDuration is the end-to-end span from the first IN to now (when the last punch is IN)
// or to the last punch (when it is an OUT). Gaps between sessions are included.
func ShiftDuration(punches []*TimePunch, now time.Time) time.Duration {
	sorted := SortPunches(punches)

	firstIn := slices.IndexFunc(sorted, func(p *TimePunch) bool { return p.Type == PunchIn })
	if firstIn < 0 {
		return 0
	}

	last := sorted[len(sorted)-1]
	end := last.Timestamp
	if last.Type == PunchIn {
		end = now
	}

	d := end.Sub(sorted[firstIn].Timestamp)
	if d < 0 {
		return 0
	}
	return d
}

// WorkedDuration sums each IN->OUT pair, counting an open IN up to now.
// Unlike ShiftDuration it excludes the gaps between sessions.
func WorkedDuration(punches []*TimePunch, now time.Time) time.Duration {
	var (
		total  time.Duration
		openAt *time.Time
	)
	for _, p := range SortPunches(punches) {
		switch p.Type {
		case PunchIn:
			if openAt == nil {
				ts := p.Timestamp
				openAt = &ts
			}
		case PunchOut:
			if openAt != nil {
				total += p.Timestamp.Sub(*openAt)
				openAt = nil
			}
		}
	}
	if openAt != nil && now.After(*openAt) {
		total += now.Sub(*openAt)
	}
	return total
}

// FormatDuration renders a duration as "<hours>h <minutes>m", truncating seconds
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// EstimatedEarnings is the elapsed hours multiplied by the hourly rate, rounded to cents
func EstimatedEarnings(d time.Duration, hourlyRate decimal.Decimal) decimal.Decimal {
	if d <= 0 {
		return decimal.Zero
	}
	hours := decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour)
	return hours.Mul(hourlyRate).Round(2)
}
