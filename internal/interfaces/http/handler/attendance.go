package handler

import (
	"github.com/gin-gonic/gin"
	appattendance "github.com/merchpulse/backend/internal/application/attendance"
	"github.com/merchpulse/backend/internal/domain/attendance"
)

// IdempotencyKeyHeader lets the punch clock retry a submission without double punching
const IdempotencyKeyHeader = "Idempotency-Key"

// AttendanceHandler exposes the punch engine
type AttendanceHandler struct {
	BaseHandler
	engine *appattendance.Engine
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(engine *appattendance.Engine) *AttendanceHandler {
	return &AttendanceHandler{engine: engine}
}

// Status returns the caller's attendance state for today.
// GET /api/v1/attendance/status
func (h *AttendanceHandler) Status(c *gin.Context) {
	state, err := h.engine.LoadStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPunchStateResponse(state))
}

// RecordPunch records an IN or OUT for the caller.
// POST /api/v1/attendance/punches
func (h *AttendanceHandler) RecordPunch(c *gin.Context) {
	var req RecordPunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	state, err := h.engine.RecordPunch(c.Request.Context(), appattendance.RecordPunchInput{
		Type:           attendance.PunchType(req.Type),
		Note:           req.Note,
		DeviceID:       req.DeviceID,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if state.Replayed {
		h.Success(c, toPunchStateResponse(state))
		return
	}
	h.Created(c, toPunchStateResponse(state))
}

// TeamDay returns every employee's summary for one day, today when date is omitted.
// GET /api/v1/attendance/team?date=2024-05-01
func (h *AttendanceHandler) TeamDay(c *gin.Context) {
	var query TeamQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	team, err := h.engine.LoadForDate(c.Request.Context(), query.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTeamDayResponse(team))
}

// CorrectPunch edits the time or type of an existing punch.
// PUT /api/v1/attendance/punches/:id
func (h *AttendanceHandler) CorrectPunch(c *gin.Context) {
	var req CorrectPunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.engine.CorrectPunch(c.Request.Context(), appattendance.CorrectPunchInput{
		PunchID:      c.Param("id"),
		NewTimestamp: req.Timestamp,
		NewType:      attendance.PunchType(req.Type),
		Reason:       req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCorrectionResponse(result))
}
