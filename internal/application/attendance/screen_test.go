package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newScreen(t *testing.T) (*PunchScreen, *MockScreenEngine, *clock.FakeClock) {
	t.Helper()
	engine := new(MockScreenEngine)
	clk := clock.Fake(clockAt(9, 0))
	s := NewPunchScreen(engine, clk, time.Minute, nil)
	t.Cleanup(s.Close)
	return s, engine, clk
}

func TestPunchScreen_OpenAndRefresh(t *testing.T) {
	s, engine, clk := newScreen(t)
	employeeID := uuid.New()
	initial := &PunchState{EmployeeID: employeeID, EmployeeName: "Erin", Status: attendance.StatusClockedIn}
	engine.On("LoadStatus", mock.Anything).Return(initial, nil).Once()
	engine.On("Derive", mock.Anything, mock.Anything, clockAt(9, 1)).
		Return(PunchState{Status: attendance.StatusClockedIn, ShiftDurationText: "0h 1m"}).Once()

	outcome := s.Open(context.Background())
	require.True(t, outcome.Success)
	assert.Same(t, initial, (<-s.Updates()).Punch)

	clk.WaitForTimers(1)
	clk.Advance(time.Minute)

	select {
	case st := <-s.Updates():
		require.NotNil(t, st.Punch)
		assert.Equal(t, "0h 1m", st.Punch.ShiftDurationText)
		assert.Equal(t, employeeID, st.Punch.EmployeeID)
		assert.Equal(t, "Erin", st.Punch.EmployeeName)
	case <-time.After(time.Second):
		t.Fatal("no refresh after tick")
	}
	engine.AssertExpectations(t)
}

func TestPunchScreen_RefreshAcrossMidnightReloads(t *testing.T) {
	engine := new(MockScreenEngine)
	clk := clock.Fake(clockAt(23, 59))
	s := NewPunchScreen(engine, clk, time.Minute, nil)
	t.Cleanup(s.Close)

	yesterday := &PunchState{
		Date:              "2024-05-06",
		Status:            attendance.StatusClockedOut,
		Punches:           []*attendance.TimePunch{{Type: attendance.PunchIn}, {Type: attendance.PunchOut}},
		ShiftDurationText: "8h 0m",
	}
	today := &PunchState{Date: "2024-05-07", Status: attendance.StatusNotStarted, ShiftDurationText: "0h 0m"}
	engine.On("LoadStatus", mock.Anything).Return(yesterday, nil).Once()
	engine.On("Derive", mock.Anything, yesterday.Punches, clockAt(24, 0)).
		Return(PunchState{Date: "2024-05-07", Status: attendance.StatusNotStarted, ShiftDurationText: "8h 0m"}).Once()
	engine.On("LoadStatus", mock.Anything).Return(today, nil).Once()

	require.True(t, s.Open(context.Background()).Success)
	assert.Same(t, yesterday, (<-s.Updates()).Punch)

	clk.WaitForTimers(1)
	clk.Advance(time.Minute)

	select {
	case st := <-s.Updates():
		assert.Same(t, today, st.Punch)
		assert.Equal(t, "0h 0m", st.Punch.ShiftDurationText)
	case <-time.After(time.Second):
		t.Fatal("no reload after midnight tick")
	}
	engine.AssertExpectations(t)
}

func TestPunchScreen_Actions(t *testing.T) {
	s, engine, _ := newScreen(t)
	engine.On("LoadStatus", mock.Anything).Return(&PunchState{Status: attendance.StatusNotStarted}, nil)
	require.True(t, s.Open(context.Background()).Success)

	punched := &PunchState{Status: attendance.StatusClockedIn, AsOf: clockAt(9, 0)}
	engine.On("RecordPunch", mock.Anything, RecordPunchInput{Type: attendance.PunchIn}).Return(punched, nil).Once()
	engine.On("RecordPunch", mock.Anything, RecordPunchInput{Type: attendance.PunchIn}).Return(nil, attendance.ErrDuplicatePunchType).Once()

	outcome := s.RecordPunch(attendance.PunchIn, "")
	assert.True(t, outcome.Success)
	assert.Equal(t, "Punched IN at 09:00", outcome.Message)
	assert.Same(t, punched, s.State().Punch)

	outcome = s.RecordPunch(attendance.PunchIn, "")
	assert.False(t, outcome.Success)
	assert.Equal(t, KindDuplicatePunchType, outcome.Kind)
	assert.Same(t, punched, s.State().Punch, "failed action keeps the previous state")
	assert.Equal(t, outcome, s.State().LastOutcome)

	engine.On("LoadForDate", mock.Anything, "2024-05-06").Return(&TeamDay{Date: "2024-05-06"}, nil).Once()
	require.True(t, s.LoadForDate("2024-05-06").Success)
	assert.Equal(t, "2024-05-06", s.State().Team.Date)

	input := CorrectPunchInput{PunchID: uuid.NewString(), NewTimestamp: clockAt(8, 0), NewType: attendance.PunchIn, Reason: "x"}
	engine.On("CorrectPunch", mock.Anything, input).Return(&CorrectionResult{AuditRecorded: false}, nil).Once()
	outcome = s.CorrectPunch(input)
	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, "audit entry could not be recorded")
}

func TestPunchScreen_ErrorsBecomeOutcomes(t *testing.T) {
	s, engine, _ := newScreen(t)
	engine.On("LoadStatus", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	outcome := s.Open(context.Background())
	assert.False(t, outcome.Success)
	assert.Equal(t, KindPersistenceFailure, outcome.Kind)

	engine.On("LoadForDate", mock.Anything, "2024-05-06").Return(nil, shared.ErrUnauthorized).Once()
	assert.Equal(t, KindUnauthorized, s.LoadForDate("2024-05-06").Kind)

	engine.On("LoadForDate", mock.Anything, "boom").Panic("unexpected").Once()
	var outcome2 Outcome
	assert.NotPanics(t, func() { outcome2 = s.LoadForDate("boom") })
	assert.False(t, outcome2.Success)
}

func TestPunchScreen_ResultAfterCloseIsDiscarded(t *testing.T) {
	engine := new(MockScreenEngine)
	s := NewPunchScreen(engine, clock.Fake(clockAt(9, 0)), time.Minute, nil)

	engine.On("LoadStatus", mock.Anything).Return(&PunchState{Status: attendance.StatusNotStarted}, nil).Once()
	require.True(t, s.Open(context.Background()).Success)

	started := make(chan struct{})
	release := make(chan struct{})
	engine.On("RecordPunch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&PunchState{Status: attendance.StatusClockedIn}, nil).Once()

	done := make(chan Outcome)
	go func() { done <- s.RecordPunch(attendance.PunchIn, "") }()
	<-started

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	// Close waits for the in-flight action
	select {
	case <-closed:
		t.Fatal("Close returned before the in-flight action finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
	<-closed

	assert.Equal(t, attendance.StatusNotStarted, s.State().Punch.Status)

	_, open := <-s.Updates()
	for open {
		_, open = <-s.Updates()
	}

	outcome := s.RecordPunch(attendance.PunchOut, "")
	assert.False(t, outcome.Success)
	assert.Equal(t, KindInvalidInput, outcome.Kind)
}

func TestPunchScreen_NotOpen(t *testing.T) {
	s, _, _ := newScreen(t)
	assert.False(t, s.RecordPunch(attendance.PunchIn, "").Success)

	s.Close()
	assert.NotPanics(t, s.Close)
}
