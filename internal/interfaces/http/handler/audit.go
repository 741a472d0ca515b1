package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appaudit "github.com/merchpulse/backend/internal/application/audit"
	"github.com/merchpulse/backend/internal/domain/audit"
)

// AuditQuery bounds the recent-entries page
type AuditQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// AuditEntryResponse is one audit record
type AuditEntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	Action        string          `json:"action"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	ActorID       string          `json:"actor_id"`
	PreviousState json.RawMessage `json:"previous_state,omitempty"`
	NewState      json.RawMessage `json:"new_state,omitempty"`
	Reason        *string         `json:"reason,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

func toAuditEntryResponses(entries []*audit.LogEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryResponse{
			ID:            e.ID,
			Action:        e.Action.String(),
			EntityType:    e.EntityType.String(),
			EntityID:      e.EntityID,
			ActorID:       e.ActorID,
			PreviousState: e.PreviousState,
			NewState:      e.NewState,
			Reason:        e.Reason,
			Timestamp:     e.Timestamp,
		}
	}
	return out
}

// AuditHandler serves the audit trail to holders of audit:view
type AuditHandler struct {
	BaseHandler
	service *appaudit.Service
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(service *appaudit.Service) *AuditHandler {
	return &AuditHandler{service: service}
}

// Recent lists the newest entries.
// GET /api/v1/audit/recent?limit=50
func (h *AuditHandler) Recent(c *gin.Context) {
	var query AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	entries, err := h.service.RecentEntries(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAuditEntryResponses(entries))
}

// ForEntity lists the history of one punch or employee.
// GET /api/v1/audit/:entity_type/:entity_id
func (h *AuditHandler) ForEntity(c *gin.Context) {
	entityType, err := audit.ParseEntityType(c.Param("entity_type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries, err := h.service.EntriesFor(c.Request.Context(), entityType, c.Param("entity_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAuditEntryResponses(entries))
}
