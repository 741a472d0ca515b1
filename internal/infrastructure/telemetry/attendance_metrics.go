package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// AttendanceMetrics records attendance and authorization activity.
// A nil *AttendanceMetrics is valid and records nothing.
type AttendanceMetrics struct {
	punchesRecorded    *Counter
	punchesRejected    *Counter
	punchesCorrected   *Counter
	auditWriteFailures *Counter
	permissionDenials  *Counter
	operationDuration  *Histogram
	employeesClockedIn *Gauge
}

// NewAttendanceMetrics registers the attendance instruments on meter.
func NewAttendanceMetrics(meter metric.Meter) (*AttendanceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &AttendanceMetrics{}
	var err error

	if m.punchesRecorded, err = NewCounter(meter,
		"attendance_punches_recorded_total", "Punches appended to the punch store", "{punches}"); err != nil {
		return nil, err
	}
	if m.punchesRejected, err = NewCounter(meter,
		"attendance_punches_rejected_total", "Punch submissions rejected before any write", "{punches}"); err != nil {
		return nil, err
	}
	if m.punchesCorrected, err = NewCounter(meter,
		"attendance_punches_corrected_total", "Supervisor corrections applied", "{punches}"); err != nil {
		return nil, err
	}
	if m.auditWriteFailures, err = NewCounter(meter,
		"attendance_audit_write_failures_total", "Corrections persisted without an audit entry", "{entries}"); err != nil {
		return nil, err
	}
	if m.permissionDenials, err = NewCounter(meter,
		"authz_permission_denials_total", "Capability checks that failed", "{checks}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "attendance_operation_duration_seconds",
		Description: "Duration of attendance engine operations",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.employeesClockedIn, err = NewGauge(meter,
		"attendance_employees_clocked_in", "Employees whose last punch of the loaded day is IN", "{employees}"); err != nil {
		return nil, err
	}

	return m, nil
}

// PunchRecorded counts an appended punch.
func (m *AttendanceMetrics) PunchRecorded(ctx context.Context, punchType string) {
	if m == nil {
		return
	}
	m.punchesRecorded.Inc(ctx, AttrPunchType.String(punchType))
}

// PunchRejected counts a rejected submission by reason code.
func (m *AttendanceMetrics) PunchRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.punchesRejected.Inc(ctx, AttrReason.String(reason))
}

// PunchCorrected counts an applied correction.
func (m *AttendanceMetrics) PunchCorrected(ctx context.Context) {
	if m == nil {
		return
	}
	m.punchesCorrected.Inc(ctx)
}

// AuditWriteFailed counts a mutation that could not be audited.
func (m *AttendanceMetrics) AuditWriteFailed(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc(ctx, attribute.String("action", action))
}

// PermissionDenied counts a failed capability check.
func (m *AttendanceMetrics) PermissionDenied(ctx context.Context, permission string) {
	if m == nil {
		return
	}
	m.permissionDenials.Inc(ctx, AttrPermission.String(permission))
}

// ObserveOperation records how long an engine operation took and how it ended.
func (m *AttendanceMetrics) ObserveOperation(ctx context.Context, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.RecordDuration(ctx, d, AttrOperation.String(operation), AttrOutcome.String(outcome))
}

// EmployeesClockedIn records the clocked-in headcount from a team load.
func (m *AttendanceMetrics) EmployeesClockedIn(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.employeesClockedIn.Record(ctx, int64(n))
}
