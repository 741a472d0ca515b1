package attendance

import (
	"testing"
	"time"

	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRosterEmployee(t *testing.T, name, username string) *identity.Employee {
	t.Helper()
	e, err := identity.NewEmployee(name, username, "1234", identity.RoleStaff, day.AddDate(-1, 0, 0))
	require.NoError(t, err)
	return e
}

func punchFor(t *testing.T, e *identity.Employee, typ PunchType, ts time.Time) *TimePunch {
	t.Helper()
	p, err := NewTimePunch(e.ID, ts, typ, e.ID, ts)
	require.NoError(t, err)
	return p
}

func TestBuildDailySummaries(t *testing.T) {
	alice := newRosterEmployee(t, "Alice", "alice")
	bob := newRosterEmployee(t, "Bob", "bob")
	carol := newRosterEmployee(t, "Carol", "carol")
	window := DayOf(at(12, 0), time.UTC)

	punches := []*TimePunch{
		punchFor(t, alice, PunchIn, at(9, 0)),
		punchFor(t, alice, PunchOut, at(12, 0)),
		punchFor(t, alice, PunchIn, at(13, 0)),
		punchFor(t, alice, PunchOut, at(17, 30)),
		punchFor(t, bob, PunchIn, at(10, 0)),
		punchFor(t, bob, PunchIn, window.End),                 // next day, excluded
		punchFor(t, carol, PunchOut, window.Start.Add(-time.Second)), // previous day, excluded
	}

	summaries, orphans := BuildDailySummaries([]*identity.Employee{alice, bob, carol}, punches, window)
	require.Len(t, summaries, 3)
	assert.Zero(t, orphans)

	a := summaries[0]
	assert.Equal(t, "Alice", a.EmployeeName)
	assert.Equal(t, 4, a.TotalPunches)
	require.NotNil(t, a.FirstIn)
	require.NotNil(t, a.LastOut)
	assert.Equal(t, at(9, 0), *a.FirstIn)
	assert.Equal(t, at(17, 30), *a.LastOut)

	b := summaries[1]
	assert.Equal(t, 1, b.TotalPunches)
	assert.Nil(t, b.LastOut)

	c := summaries[2]
	assert.Equal(t, 0, c.TotalPunches)
	assert.Nil(t, c.FirstIn)
	assert.True(t, c.Active)
}

func TestBuildDailySummaries_TotalsMatchWindowCount(t *testing.T) {
	alice := newRosterEmployee(t, "Alice", "alice")
	bob := newRosterEmployee(t, "Bob", "bob")
	window := DayOf(at(0, 0), time.UTC)

	var inWindow []*TimePunch
	for i := 0; i < 6; i++ {
		typ := PunchIn
		if i%2 == 1 {
			typ = PunchOut
		}
		inWindow = append(inWindow, punchFor(t, alice, typ, at(8+i, 0)))
		inWindow = append(inWindow, punchFor(t, bob, typ, at(8+i, 30)))
	}
	// a punch at exactly midnight belongs to this day only
	inWindow = append(inWindow, punchFor(t, bob, PunchIn, window.Start))

	summaries, _ := BuildDailySummaries([]*identity.Employee{alice, bob}, inWindow, window)
	total := 0
	for _, s := range summaries {
		total += s.TotalPunches
	}
	assert.Equal(t, len(inWindow), total)

	prev, _ := BuildDailySummaries([]*identity.Employee{alice, bob}, inWindow, window.Previous())
	for _, s := range prev {
		assert.Zero(t, s.TotalPunches)
	}
}

func TestBuildDailySummaries_Orphans(t *testing.T) {
	alice := newRosterEmployee(t, "Alice", "alice")
	stranger := newRosterEmployee(t, "Stranger", "stranger")
	window := DayOf(at(0, 0), time.UTC)

	_, orphans := BuildDailySummaries(
		[]*identity.Employee{alice},
		[]*TimePunch{punchFor(t, stranger, PunchIn, at(9, 0))},
		window,
	)
	assert.Equal(t, 1, orphans)
}

func TestDayWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST starts 2024-03-10 in New York; that day is 23 hours long
	w, err := ParseDay("2024-03-10", loc)
	require.NoError(t, err)
	assert.Equal(t, 23*time.Hour, w.End.Sub(w.Start))
	assert.Equal(t, "2024-03-10", w.Date())

	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))

	_, err = ParseDay("10/03/2024", loc)
	assert.Error(t, err)
}
