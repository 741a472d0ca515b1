package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"go.uber.org/zap"
)

// DefaultRefreshInterval is how often an open screen recomputes durations
const DefaultRefreshInterval = time.Minute

// ScreenEngine is the part of Engine a PunchScreen drives
type ScreenEngine interface {
	LoadStatus(ctx context.Context) (*PunchState, error)
	RecordPunch(ctx context.Context, input RecordPunchInput) (*PunchState, error)
	CorrectPunch(ctx context.Context, input CorrectPunchInput) (*CorrectionResult, error)
	LoadForDate(ctx context.Context, date string) (*TeamDay, error)
	Derive(employee *identity.Employee, punches []*attendance.TimePunch, now time.Time) PunchState
}

// ScreenState is what a display layer renders
type ScreenState struct {
	Punch       *PunchState
	Team        *TeamDay
	LastOutcome Outcome
}

// PunchScreen is the view model behind a punch clock display.
// Between Open and Close it refreshes the derived state on every tick.
// Actions never panic and report failures as an Outcome.
type PunchScreen struct {
	engine   ScreenEngine
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	state   ScreenState
	updates chan ScreenState
	scope   context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	opened  bool
	closed  bool
}

// NewPunchScreen creates a closed screen. A non-positive interval uses DefaultRefreshInterval.
func NewPunchScreen(engine ScreenEngine, clk clock.Clock, interval time.Duration, logger *zap.Logger) *PunchScreen {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PunchScreen{
		engine:   engine,
		clock:    clk,
		interval: interval,
		logger:   logger.Named("punch_screen"),
		updates:  make(chan ScreenState, 1),
	}
}

// Updates delivers the latest state after every change. It is closed by Close.
func (s *PunchScreen) Updates() <-chan ScreenState {
	return s.updates
}

// State returns the current state
func (s *PunchScreen) State() ScreenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open loads the actor's status and starts the refresh ticker.
// The screen's lifetime is bounded by ctx and by Close.
func (s *PunchScreen) Open(ctx context.Context) Outcome {
	s.mu.Lock()
	if s.opened {
		s.mu.Unlock()
		return Outcome{Kind: KindInvalidInput, Message: "Screen is already open"}
	}
	s.opened = true
	s.scope, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()

	ticker := s.clock.NewTicker(s.interval)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.scope.Done():
				return
			case <-ticker.C:
				s.refresh()
			}
		}
	}()

	return s.run(s.loadStatus)
}

// Close cancels in-flight work, stops the ticker and waits for both.
// Results that arrive afterwards are discarded. Close is idempotent.
func (s *PunchScreen) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	close(s.updates)
}

// RecordPunch punches the signed-in employee in or out
func (s *PunchScreen) RecordPunch(typ attendance.PunchType, note string) Outcome {
	return s.run(func(ctx context.Context) (func(*ScreenState), Outcome) {
		state, err := s.engine.RecordPunch(ctx, RecordPunchInput{Type: typ, Note: note})
		if err != nil {
			return nil, OutcomeFromError(err)
		}
		return func(st *ScreenState) { st.Punch = state },
			Succeeded(fmt.Sprintf("Punched %s at %s", typ, state.AsOf.Format("15:04")))
	})
}

// CorrectPunch applies a supervisor correction and reloads the actor's status
func (s *PunchScreen) CorrectPunch(input CorrectPunchInput) Outcome {
	return s.run(func(ctx context.Context) (func(*ScreenState), Outcome) {
		result, err := s.engine.CorrectPunch(ctx, input)
		if err != nil {
			return nil, OutcomeFromError(err)
		}

		outcome := Succeeded("Punch corrected")
		if !result.AuditRecorded {
			outcome.Message = "Punch corrected, but the audit entry could not be recorded"
		}

		state, err := s.engine.LoadStatus(ctx)
		if err != nil {
			return nil, outcome
		}
		return func(st *ScreenState) { st.Punch = state }, outcome
	})
}

// LoadForDate loads the team view for a YYYY-MM-DD date
func (s *PunchScreen) LoadForDate(date string) Outcome {
	return s.run(func(ctx context.Context) (func(*ScreenState), Outcome) {
		team, err := s.engine.LoadForDate(ctx, date)
		if err != nil {
			return nil, OutcomeFromError(err)
		}
		return func(st *ScreenState) { st.Team = team }, Succeeded("")
	})
}

func (s *PunchScreen) loadStatus(ctx context.Context) (func(*ScreenState), Outcome) {
	state, err := s.engine.LoadStatus(ctx)
	if err != nil {
		return nil, OutcomeFromError(err)
	}
	return func(st *ScreenState) { st.Punch = state }, Succeeded("")
}

// run executes one action inside the screen scope and applies its result only if
// the screen is still open when the action returns
func (s *PunchScreen) run(action func(ctx context.Context) (func(*ScreenState), Outcome)) (outcome Outcome) {
	s.mu.Lock()
	if !s.opened || s.closed {
		s.mu.Unlock()
		return Outcome{Kind: KindInvalidInput, Message: "Screen is not open"}
	}
	ctx := s.scope
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	var apply func(*ScreenState)
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Screen action panicked", zap.Any("panic", r))
				apply = nil
				outcome = OutcomeFromError(fmt.Errorf("screen action panicked: %v", r))
			}
		}()
		apply, outcome = action(ctx)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || ctx.Err() != nil {
		return outcome
	}
	if apply != nil {
		apply(&s.state)
	}
	s.state.LastOutcome = outcome
	s.publish()
	return outcome
}

// refresh re-derives the cached punches at the current instant. Once the
// calendar day rolls over the cached set no longer belongs to the day, so the
// state is reloaded instead.
func (s *PunchScreen) refresh() {
	now := s.clock.Now()

	s.mu.Lock()
	if s.closed || s.state.Punch == nil {
		s.mu.Unlock()
		return
	}

	cur := s.state.Punch
	next := s.engine.Derive(nil, cur.Punches, now)
	if cur.Date != "" && next.Date != cur.Date {
		s.mu.Unlock()
		s.logger.Debug("Day rolled over, reloading status", zap.String("from", cur.Date), zap.String("to", next.Date))
		s.run(s.loadStatus)
		return
	}

	next.EmployeeID = cur.EmployeeID
	next.EmployeeName = cur.EmployeeName
	s.state.Punch = &next
	s.publish()
	s.mu.Unlock()
}

// publish hands the latest state to Updates, replacing an unread one. Caller holds mu.
func (s *PunchScreen) publish() {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- s.state
}
