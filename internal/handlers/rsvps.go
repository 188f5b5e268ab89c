package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/internal/services"
	"github.com/rsvphq/guestlist/pkg/response"
)

// RSVPHandler covers the guest-facing RSVP endpoints and the admin guest list.
type RSVPHandler struct {
	rsvps *services.RSVPService
	gate  *access.Gate
}

func NewRSVPHandler(rsvps *services.RSVPService, gate *access.Gate) *RSVPHandler {
	return &RSVPHandler{rsvps: rsvps, gate: gate}
}

type submitRSVPRequest struct {
	EventSlug   string `json:"event_slug" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	PlusOne     bool   `json:"plus_one"`
	PlusOneName string `json:"plus_one_name"`
}

// POST /api/rsvps — public submission from the event page.
func (h *RSVPHandler) Submit(c *gin.Context) {
	var req submitRSVPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rsvp, err := h.rsvps.Submit(requestContext(c), services.SubmitRSVPInput{
		EventSlug:   req.EventSlug,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		PlusOne:     req.PlusOne,
		PlusOneName: req.PlusOneName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, rsvpPayload(rsvp))
}

type guestUpdateRequest struct {
	RSVPID  string  `json:"rsvp_id" validate:"required"`
	Token   string  `json:"token" validate:"required"`
	Name    *string `json:"name"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	PlusOne *bool   `json:"plus_one"`
}

// POST /api/rsvps/update — token-gated self-service edit from the email link.
func (h *RSVPHandler) GuestUpdate(c *gin.Context) {
	var req guestUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rsvp, err := h.rsvps.GuestUpdate(requestContext(c), req.RSVPID, req.Token, services.GuestUpdateRSVPInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		PlusOne: req.PlusOne,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rsvpPayload(rsvp))
}

type tokenActionRequest struct {
	RSVPID string `json:"rsvp_id" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

// POST /api/rsvps/cancel
func (h *RSVPHandler) Cancel(c *gin.Context) {
	h.setStatus(c, models.RSVPStatusCancelled)
}

// POST /api/rsvps/reconfirm
func (h *RSVPHandler) Reconfirm(c *gin.Context) {
	h.setStatus(c, models.RSVPStatusConfirmed)
}

func (h *RSVPHandler) setStatus(c *gin.Context, status string) {
	var req tokenActionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rsvp, err := h.rsvps.SetStatusWithToken(requestContext(c), req.RSVPID, req.Token, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rsvpPayload(rsvp))
}

// GET /api/admin/events/:id/rsvps
func (h *RSVPHandler) ListByEvent(c *gin.Context) {
	eventID := c.Param("id")
	if _, ok := requireEventRole(c, h.gate, eventID, models.RoleViewer); !ok {
		return
	}

	rsvps, err := h.rsvps.ListByEvent(requestContext(c), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rsvps)
}

type adminUpdateRSVPRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	PlusOne     *bool   `json:"plus_one"`
	PlusOneName *string `json:"plus_one_name"`
	Status      *string `json:"status" validate:"omitempty,oneof=confirmed cancelled"`
}

// PATCH /api/admin/rsvps/:id — access is checked against the event the RSVP
// belongs to, so the record is loaded before the gate runs.
func (h *RSVPHandler) AdminUpdate(c *gin.Context) {
	rsvp, err := h.rsvps.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, ok := requireEventRole(c, h.gate, rsvp.EventID, models.RoleManager); !ok {
		return
	}

	var req adminUpdateRSVPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	updated, err := h.rsvps.AdminUpdate(requestContext(c), rsvp.ID, services.AdminUpdateRSVPInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		PlusOne:     req.PlusOne,
		PlusOneName: req.PlusOneName,
		Status:      req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// rsvpPayload is the guest-facing projection; it omits the email history.
func rsvpPayload(rsvp *models.RSVP) gin.H {
	return gin.H{
		"id":            rsvp.ID,
		"event_id":      rsvp.EventID,
		"name":          rsvp.Name,
		"email":         rsvp.Email,
		"phone":         rsvp.Phone,
		"plus_one":      rsvp.PlusOne,
		"plus_one_name": rsvp.PlusOneName,
		"status":        rsvp.Status,
	}
}
