package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/internal/services"
	"github.com/rsvphq/guestlist/pkg/errors"
	"github.com/rsvphq/guestlist/pkg/response"
)

// ReportHandler exposes per-event aggregates for the admin dashboard.
type ReportHandler struct {
	rsvps *services.RSVPService
	gate  *access.Gate
}

func NewReportHandler(rsvps *services.RSVPService, gate *access.Gate) *ReportHandler {
	return &ReportHandler{rsvps: rsvps, gate: gate}
}

// GET /api/admin/reports/stats?event_id=...
func (h *ReportHandler) Stats(c *gin.Context) {
	eventID := c.Query("event_id")
	if eventID == "" {
		response.Error(c, errors.NewBadRequest("event_id is required"))
		return
	}
	if _, ok := requireEventRole(c, h.gate, eventID, models.RoleViewer); !ok {
		return
	}

	stats, err := h.rsvps.Stats(requestContext(c), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// GET /api/admin/reports/reminder-status?event_id=...
func (h *ReportHandler) ReminderStatus(c *gin.Context) {
	eventID := c.Query("event_id")
	if eventID == "" {
		response.Error(c, errors.NewBadRequest("event_id is required"))
		return
	}
	if _, ok := requireEventRole(c, h.gate, eventID, models.RoleViewer); !ok {
		return
	}

	report, err := h.rsvps.ReminderStatus(requestContext(c), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}
