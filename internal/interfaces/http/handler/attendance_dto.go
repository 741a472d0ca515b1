package handler

import (
	"time"

	"github.com/google/uuid"
	appattendance "github.com/merchpulse/backend/internal/application/attendance"
	"github.com/merchpulse/backend/internal/domain/attendance"
)

// RecordPunchRequest is the body of a self punch
type RecordPunchRequest struct {
	Type     string `json:"type" binding:"required,oneof=IN OUT in out"`
	Note     string `json:"note" binding:"max=500"`
	DeviceID string `json:"device_id" binding:"max=100"`
}

// CorrectPunchRequest is the body of a supervisor correction
type CorrectPunchRequest struct {
	Timestamp time.Time `json:"timestamp" binding:"required"`
	Type      string    `json:"type" binding:"required,oneof=IN OUT in out"`
	Reason    string    `json:"reason" binding:"required,max=500"`
}

// TeamQuery selects the day of the team view
type TeamQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// PunchResponse is one stored punch
type PunchResponse struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
	DeviceID   *string   `json:"device_id,omitempty"`
	Note       *string   `json:"note,omitempty"`
	CreatedBy  uuid.UUID `json:"created_by"`
}

// PunchStateResponse is the derived attendance state of the caller
type PunchStateResponse struct {
	EmployeeID            uuid.UUID       `json:"employee_id"`
	EmployeeName          string          `json:"employee_name"`
	Date                  string          `json:"date"`
	Status                string          `json:"status"`
	LastPunch             *PunchResponse  `json:"last_punch,omitempty"`
	Punches               []PunchResponse `json:"punches"`
	ShiftDurationSeconds  int64           `json:"shift_duration_seconds"`
	WorkedDurationSeconds int64           `json:"worked_duration_seconds"`
	ShiftDuration         string          `json:"shift_duration"`
	EstimatedEarnings     string          `json:"estimated_earnings"`
	EarningsText          string          `json:"earnings_text"`
	AsOf                  time.Time       `json:"as_of"`
	Replayed              bool            `json:"replayed,omitempty"`
}

// DailySummaryResponse is one employee's line in the team view
type DailySummaryResponse struct {
	EmployeeID   uuid.UUID  `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	FirstIn      *time.Time `json:"first_in,omitempty"`
	LastOut      *time.Time `json:"last_out,omitempty"`
	TotalPunches int        `json:"total_punches"`
}

// TeamDayResponse is the team view of one day
type TeamDayResponse struct {
	Date         string                 `json:"date"`
	Start        time.Time              `json:"start"`
	End          time.Time              `json:"end"`
	Summaries    []DailySummaryResponse `json:"summaries"`
	TotalPunches int                    `json:"total_punches"`
	ClockedIn    int                    `json:"clocked_in"`
}

// CorrectionResponse reports a correction and whether its audit entry was written
type CorrectionResponse struct {
	Punch         PunchResponse `json:"punch"`
	Previous      PunchResponse `json:"previous"`
	AuditEntryID  *uuid.UUID    `json:"audit_entry_id,omitempty"`
	AuditRecorded bool          `json:"audit_recorded"`
}

func toPunchResponse(p *attendance.TimePunch) PunchResponse {
	return PunchResponse{
		ID:         p.ID,
		EmployeeID: p.EmployeeID,
		Timestamp:  p.Timestamp,
		Type:       p.Type.String(),
		DeviceID:   p.DeviceID,
		Note:       p.Note,
		CreatedBy:  p.CreatedBy,
	}
}

func snapshotResponse(s attendance.PunchSnapshot) PunchResponse {
	return PunchResponse{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		Timestamp:  s.Timestamp,
		Type:       s.Type.String(),
		DeviceID:   s.DeviceID,
		Note:       s.Note,
		CreatedBy:  s.CreatedBy,
	}
}

func toPunchStateResponse(s *appattendance.PunchState) PunchStateResponse {
	resp := PunchStateResponse{
		EmployeeID:            s.EmployeeID,
		EmployeeName:          s.EmployeeName,
		Date:                  s.Date,
		Status:                s.Status.String(),
		Punches:               make([]PunchResponse, len(s.Punches)),
		ShiftDurationSeconds:  int64(s.ShiftDuration / time.Second),
		WorkedDurationSeconds: int64(s.WorkedDuration / time.Second),
		ShiftDuration:         s.ShiftDurationText,
		EstimatedEarnings:     s.EstimatedEarnings.StringFixed(2),
		EarningsText:          s.EarningsText,
		AsOf:                  s.AsOf,
		Replayed:              s.Replayed,
	}
	for i, p := range s.Punches {
		resp.Punches[i] = toPunchResponse(p)
	}
	if s.LastPunch != nil {
		last := toPunchResponse(s.LastPunch)
		resp.LastPunch = &last
	}
	return resp
}

func toTeamDayResponse(t *appattendance.TeamDay) TeamDayResponse {
	resp := TeamDayResponse{
		Date:         t.Date,
		Start:        t.Window.Start,
		End:          t.Window.End,
		Summaries:    make([]DailySummaryResponse, len(t.Summaries)),
		TotalPunches: t.TotalPunches,
		ClockedIn:    t.ClockedIn,
	}
	for i, s := range t.Summaries {
		resp.Summaries[i] = DailySummaryResponse{
			EmployeeID:   s.EmployeeID,
			EmployeeName: s.EmployeeName,
			Role:         s.Role.String(),
			Active:       s.Active,
			FirstIn:      s.FirstIn,
			LastOut:      s.LastOut,
			TotalPunches: s.TotalPunches,
		}
	}
	return resp
}

func toCorrectionResponse(r *appattendance.CorrectionResult) CorrectionResponse {
	resp := CorrectionResponse{
		Punch:         toPunchResponse(r.Punch),
		Previous:      snapshotResponse(r.Previous),
		AuditRecorded: r.AuditRecorded,
	}
	if r.AuditEntry != nil {
		id := r.AuditEntry.ID
		resp.AuditEntryID = &id
	}
	return resp
}
