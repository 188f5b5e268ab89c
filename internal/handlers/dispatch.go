package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/campaign"
	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/internal/services"
	"github.com/rsvphq/guestlist/pkg/response"
)

// DispatchHandler triggers campaign emails for individual guests or batches.
type DispatchHandler struct {
	rsvps      *services.RSVPService
	events     *services.EventService
	dispatcher *campaign.Dispatcher
	runner     *campaign.Runner
	gate       *access.Gate
}

func NewDispatchHandler(rsvps *services.RSVPService, events *services.EventService, dispatcher *campaign.Dispatcher, runner *campaign.Runner, gate *access.Gate) *DispatchHandler {
	return &DispatchHandler{
		rsvps:      rsvps,
		events:     events,
		dispatcher: dispatcher,
		runner:     runner,
		gate:       gate,
	}
}

type sendRequest struct {
	RSVPID string `json:"rsvp_id" validate:"required"`
}

// POST /api/admin/dispatch/send — send one email, kind derived from history.
func (h *DispatchHandler) Send(c *gin.Context) {
	var req sendRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	rsvp, err := h.rsvps.GetByID(ctx, req.RSVPID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, ok := requireEventRole(c, h.gate, rsvp.EventID, models.RoleManager); !ok {
		return
	}

	event, err := h.events.GetByID(ctx, rsvp.EventID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.dispatcher.Send(ctx, rsvp, event)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"kind": result.Kind, "rsvp_id": rsvp.ID})
}

type bulkSendRequest struct {
	EventID string   `json:"event_id" validate:"required"`
	RSVPIDs []string `json:"rsvp_ids" validate:"required,min=1"`
}

// POST /api/admin/dispatch/bulk — runs the whole batch and reports per-recipient
// outcomes. Partial failure is still a 200; the report carries the errors.
func (h *DispatchHandler) BulkSend(c *gin.Context) {
	var req bulkSendRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if _, ok := requireEventRole(c, h.gate, req.EventID, models.RoleManager); !ok {
		return
	}

	report, err := h.runner.SendBatch(requestContext(c), req.EventID, req.RSVPIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}
