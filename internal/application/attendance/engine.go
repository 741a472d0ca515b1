// Package attendance coordinates punch recording, corrections and team views
// around the domain state machine, with permission checks and the audit trail.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	appaudit "github.com/merchpulse/backend/internal/application/audit"
	"github.com/merchpulse/backend/internal/application/authz"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/infrastructure/logger"
	"github.com/merchpulse/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// EngineConfig holds the engine's tunables
type EngineConfig struct {
	Location           *time.Location
	Earnings           EarningsPolicy
	IdempotencyTTL     time.Duration
	AuditRetryAttempts uint
	AuditRetryDelay    time.Duration
	AuditRetryMaxDelay time.Duration
}

// RecordPunchInput is a self-punch request
type RecordPunchInput struct {
	Type           attendance.PunchType `validate:"required,oneof=IN OUT"`
	Note           string               `validate:"max=500"`
	DeviceID       string               `validate:"max=100"`
	IdempotencyKey string               `validate:"max=128"`
}

// CorrectPunchInput is a supervisor correction request
type CorrectPunchInput struct {
	PunchID      string               `validate:"required,uuid"`
	NewTimestamp time.Time            `validate:"-"`
	NewType      attendance.PunchType `validate:"required,oneof=IN OUT"`
	Reason       string               `validate:"required,max=500"`
}

// CorrectionResult describes a consummated correction
type CorrectionResult struct {
	Punch         *attendance.TimePunch
	Previous      attendance.PunchSnapshot
	AuditEntry    *audit.LogEntry
	AuditRecorded bool
}

// TeamDay is the team-wide view of one calendar day
type TeamDay struct {
	Date         string
	Window       attendance.DayWindow
	Summaries    []attendance.DailySummary
	TotalPunches int
	ClockedIn    int
}

// Engine is the attendance service
type Engine struct {
	punches     attendance.PunchRepository
	employees   identity.EmployeeRepository
	session     identity.SessionProvider
	policy      *authz.Policy
	audit       appaudit.Sink
	locker      EmployeeLocker
	idempotency shared.IdempotencyStore
	clock       clock.Clock
	validate    *validator.Validate
	metrics     *telemetry.AttendanceMetrics
	config      EngineConfig
	logger      *zap.Logger
}

// EngineDeps groups the engine's collaborators
type EngineDeps struct {
	Punches     attendance.PunchRepository
	Employees   identity.EmployeeRepository
	Session     identity.SessionProvider
	Policy      *authz.Policy
	Audit       appaudit.Sink
	Locker      EmployeeLocker
	Idempotency shared.IdempotencyStore
	Clock       clock.Clock
	Metrics     *telemetry.AttendanceMetrics
	Logger      *zap.Logger
}

// NewEngine creates an attendance engine.
// Locker defaults to an in-process KeyedMutex; Idempotency and Metrics may be nil.
func NewEngine(deps EngineDeps, config EngineConfig) *Engine {
	if deps.Locker == nil {
		deps.Locker = NewKeyedMutex()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.AuditRetryAttempts == 0 {
		config.AuditRetryAttempts = 1
	}
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = 24 * time.Hour
	}

	return &Engine{
		punches:     deps.Punches,
		employees:   deps.Employees,
		session:     deps.Session,
		policy:      deps.Policy,
		audit:       deps.Audit,
		locker:      deps.Locker,
		idempotency: deps.Idempotency,
		clock:       deps.Clock,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		metrics:     deps.Metrics,
		config:      config,
		logger:      deps.Logger.Named("attendance"),
	}
}

// Location returns the zone day windows are computed in
func (e *Engine) Location() *time.Location {
	return e.config.Location
}

// Derive recomputes an employee's state at now from punches already loaded
func (e *Engine) Derive(employee *identity.Employee, punches []*attendance.TimePunch, now time.Time) PunchState {
	return Derive(employee, punches, now, e.config.Location, e.config.Earnings)
}

// LoadStatus returns the current actor's state for today. Requires punch:view_own.
func (e *Engine) LoadStatus(ctx context.Context) (state *PunchState, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "attendance", "load_status")
	defer span.End()
	defer e.observe(ctx, "load_status", e.clock.Now(), &err)

	actor, err := e.policy.Actor(ctx, identity.PermissionViewOwnPunch)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrEmployeeID, actor.ID.String())

	state, err = e.loadState(ctx, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return state, nil
}

// RecordPunch appends a punch for the current actor at the clock's now. Requires punch:self.
// Punches are serialized per employee; the new type must differ from the last recorded punch.
// Self-punches are not audited.
func (e *Engine) RecordPunch(ctx context.Context, input RecordPunchInput) (state *PunchState, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "attendance", "record_punch",
		telemetry.WithAttribute(telemetry.SpanAttrPunchType, input.Type.String()),
	)
	defer span.End()
	defer e.observe(ctx, "record_punch", e.clock.Now(), &err)

	input.Type = attendance.PunchType(strings.ToUpper(strings.TrimSpace(string(input.Type))))
	if err := e.validate.Struct(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	actor, err := e.policy.Actor(ctx, identity.PermissionSelfPunch)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	log := e.log(ctx).With(zap.String("employee_id", actor.ID.String()), zap.String("punch_type", input.Type.String()))
	telemetry.SetAttributes(span, telemetry.SpanAttrEmployeeID, actor.ID.String())

	unlock, err := e.locker.Lock(ctx, actor.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError("acquire employee lock", err)
	}
	defer unlock()

	idemKey := e.idempotencyKey(actor.ID, input.IdempotencyKey)
	if idemKey != "" {
		seen, err := e.idempotency.IsProcessed(ctx, idemKey)
		if err != nil {
			log.Warn("Idempotency lookup failed, processing punch", zap.Error(err))
		} else if seen {
			log.Info("Duplicate punch submission ignored", zap.String("idempotency_key", input.IdempotencyKey))
			state, err := e.loadState(ctx, actor)
			if err != nil {
				return nil, err
			}
			state.Replayed = true
			return state, nil
		}
	}

	last, err := e.punches.FindLast(ctx, actor.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError("load last punch", err)
	}

	now := e.clock.Now()
	if err := attendance.ValidateNext(last, input.Type, now); err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			e.metrics.PunchRejected(ctx, de.Code)
		}
		log.Info("Punch rejected", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	punch, err := attendance.NewTimePunch(actor.ID, now, input.Type, actor.ID, now)
	if err != nil {
		return nil, err
	}
	if err := punch.SetNote(input.Note); err != nil {
		return nil, err
	}
	punch.SetDeviceID(input.DeviceID)

	if err := e.punches.Create(ctx, punch); err != nil {
		log.Error("Failed to record punch", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError("record punch", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPunchID, punch.ID.String())

	if idemKey != "" {
		if _, err := e.idempotency.MarkProcessed(ctx, idemKey, e.config.IdempotencyTTL); err != nil {
			log.Warn("Failed to remember idempotency key", zap.Error(err))
		}
	}

	e.metrics.PunchRecorded(ctx, input.Type.String())
	log.Info("Punch recorded", zap.String("punch_id", punch.ID.String()), zap.Time("timestamp", now))

	state, err = e.loadState(ctx, actor)
	if err != nil {
		return nil, err
	}
	telemetry.SetOK(span)
	return state, nil
}

// LoadForDate builds one summary per roster employee for the calendar day
// (YYYY-MM-DD in the configured zone, today when empty). Requires punch:view_all.
func (e *Engine) LoadForDate(ctx context.Context, date string) (team *TeamDay, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "attendance", "load_for_date",
		telemetry.WithAttribute(telemetry.SpanAttrDate, date),
	)
	defer span.End()
	defer e.observe(ctx, "load_for_date", e.clock.Now(), &err)

	if err := e.policy.RequirePermission(ctx, identity.PermissionViewAllPunches); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	day := attendance.DayOf(e.clock.Now(), e.config.Location)
	if strings.TrimSpace(date) != "" {
		if day, err = attendance.ParseDay(date, e.config.Location); err != nil {
			return nil, err
		}
	}

	roster, err := e.employees.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError("load roster", err)
	}
	punches, err := e.punches.FindAll(ctx, day.Start, day.End)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError("load punches", err)
	}

	summaries, orphans := attendance.BuildDailySummaries(roster, punches, day)
	if orphans > 0 {
		e.log(ctx).Warn("Punches without a roster employee", zap.String("date", day.Date()), zap.Int("count", orphans))
	}

	team = &TeamDay{
		Date:      day.Date(),
		Window:    day,
		Summaries: summaries,
		ClockedIn: countClockedIn(punches, day),
	}
	for _, s := range summaries {
		team.TotalPunches += s.TotalPunches
	}
	if today := attendance.DayOf(e.clock.Now(), e.config.Location); today.Date() == day.Date() {
		e.metrics.EmployeesClockedIn(ctx, team.ClockedIn)
	}

	telemetry.SetOK(span)
	return team, nil
}

// CorrectPunch rewrites an existing punch in place and records exactly one PUNCH_CORRECTED
// audit entry. Requires punch:adjust. The owner's lock is held across read and update.
// A failed update writes no audit entry. A failed audit write after a successful update
// is retried; when retries run out the correction stands and AuditRecorded is false.
func (e *Engine) CorrectPunch(ctx context.Context, input CorrectPunchInput) (result *CorrectionResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "attendance", "correct_punch",
		telemetry.WithAttribute(telemetry.SpanAttrPunchID, input.PunchID),
	)
	defer span.End()
	defer e.observe(ctx, "correct_punch", e.clock.Now(), &err)

	input.NewType = attendance.PunchType(strings.ToUpper(strings.TrimSpace(string(input.NewType))))
	if err := e.validate.Struct(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if input.NewTimestamp.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Punch timestamp is required")
	}
	punchID, err := uuid.Parse(input.PunchID)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid punch ID")
	}

	actor, err := e.policy.Actor(ctx, identity.PermissionAdjustPunch)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	log := e.log(ctx).With(zap.String("actor_id", actor.ID.String()), zap.String("punch_id", punchID.String()))

	punch, err := e.findPunch(ctx, punchID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	unlock, err := e.locker.Lock(ctx, punch.EmployeeID)
	if err != nil {
		return nil, shared.NewPersistenceError("acquire employee lock", err)
	}
	defer unlock()

	// re-read under the lock so the recorded prior state is the one being replaced
	punch, err = e.findPunch(ctx, punchID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	previous := punch.Snapshot()
	corrected := punch.Clone()
	if err := corrected.Correct(input.NewTimestamp, input.NewType, input.Reason, actor.ID, e.clock.Now()); err != nil {
		return nil, err
	}

	if err := e.punches.Update(ctx, corrected); err != nil {
		log.Error("Failed to apply punch correction", zap.Error(err))
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, attendance.ErrPunchNotFound
		}
		return nil, shared.NewPersistenceError("update punch", err)
	}
	e.metrics.PunchCorrected(ctx)
	e.checkAlternation(ctx, log, corrected, previous.Timestamp)

	next := corrected.Snapshot()
	result = &CorrectionResult{Punch: corrected, Previous: previous}

	entry, auditErr := e.writeCorrectionAudit(ctx, punchID, previous, next, input.Reason)
	if auditErr != nil {
		log.Error("Punch corrected without audit entry",
			zap.Error(auditErr),
			zap.Any("previous_state", previous),
			zap.Any("new_state", next),
			zap.String("reason", input.Reason),
		)
		e.metrics.AuditWriteFailed(ctx, audit.ActionPunchCorrected.String())
		telemetry.AddEvent(span, "audit_write_failed", "error", auditErr.Error())
		return result, nil
	}

	result.AuditEntry = entry
	result.AuditRecorded = true
	log.Info("Punch corrected",
		zap.String("employee_id", corrected.EmployeeID.String()),
		zap.String("audit_entry_id", entry.ID.String()),
	)
	telemetry.SetOK(span)
	return result, nil
}

// checkAlternation logs a warning when a correction leaves the punch next to
// one of the same type. Corrections stand either way.
func (e *Engine) checkAlternation(ctx context.Context, log *logger.ContextLogger, corrected *attendance.TimePunch, was time.Time) {
	from, to := corrected.Timestamp, corrected.Timestamp
	if was.Before(from) {
		from = was
	}
	if was.After(to) {
		to = was
	}
	neighbours, err := e.punches.FindByEmployee(ctx, corrected.EmployeeID, from.Add(-24*time.Hour), to.Add(24*time.Hour))
	if err != nil {
		log.Debug("Skipping alternation check", zap.Error(err))
		return
	}
	if attendance.BreaksAlternation(neighbours, corrected.ID) {
		log.Warn("Correction leaves consecutive punches of the same type",
			zap.String("employee_id", corrected.EmployeeID.String()),
			zap.String("punch_type", corrected.Type.String()),
			zap.Time("timestamp", corrected.Timestamp),
		)
	}
}

func (e *Engine) writeCorrectionAudit(ctx context.Context, punchID uuid.UUID, previous, next attendance.PunchSnapshot, reason string) (*audit.LogEntry, error) {
	// the correction is already committed, so the audit write outlives a cancelled request
	ctx = context.WithoutCancel(ctx)

	var entry *audit.LogEntry
	err := retry.Do(
		func() error {
			var err error
			entry, err = e.audit.LogAction(ctx, audit.ActionPunchCorrected, audit.EntityPunch, punchID.String(), previous, next, reason)
			return err
		},
		retry.Attempts(e.config.AuditRetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(e.config.AuditRetryDelay),
		retry.MaxDelay(e.config.AuditRetryMaxDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			e.log(ctx).Warn("Retrying audit write",
				zap.Uint("attempt", n+1),
				zap.String("punch_id", punchID.String()),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) findPunch(ctx context.Context, id uuid.UUID) (*attendance.TimePunch, error) {
	punch, err := e.punches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, attendance.ErrPunchNotFound
		}
		return nil, shared.NewPersistenceError("load punch", err)
	}
	return punch, nil
}

func (e *Engine) loadState(ctx context.Context, actor *identity.Employee) (*PunchState, error) {
	now := e.clock.Now()
	day := attendance.DayOf(now, e.config.Location)

	last, err := e.punches.FindLast(ctx, actor.ID)
	if err != nil {
		return nil, shared.NewPersistenceError("load last punch", err)
	}
	today, err := e.punches.FindByEmployee(ctx, actor.ID, day.Start, day.End)
	if err != nil {
		return nil, shared.NewPersistenceError("load punches", err)
	}

	state := e.Derive(actor, withCarryOver(last, today, day), now)
	return &state, nil
}

func (e *Engine) idempotencyKey(employeeID uuid.UUID, key string) string {
	key = strings.TrimSpace(key)
	if key == "" || e.idempotency == nil {
		return ""
	}
	return fmt.Sprintf("punch:%s:%s", employeeID, key)
}

func (e *Engine) observe(ctx context.Context, op string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = string(OutcomeFromError(*err).Kind)
	}
	e.metrics.ObserveOperation(ctx, op, outcome, e.clock.Now().Sub(start))
}

func countClockedIn(punches []*attendance.TimePunch, day attendance.DayWindow) int {
	last := make(map[uuid.UUID]*attendance.TimePunch)
	for _, p := range attendance.SortPunches(punches) {
		if day.Contains(p.Timestamp) {
			last[p.EmployeeID] = p
		}
	}
	n := 0
	for _, p := range last {
		if p.Type == attendance.PunchIn {
			n++
		}
	}
	return n
}

func (e *Engine) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, e.logger)
}
