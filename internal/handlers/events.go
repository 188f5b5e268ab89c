package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/middleware"
	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/internal/services"
	"github.com/rsvphq/guestlist/pkg/errors"
	"github.com/rsvphq/guestlist/pkg/response"
)

// EventHandler serves both the public event page payload and the admin
// event management routes.
type EventHandler struct {
	events *services.EventService
	gate   *access.Gate
}

func NewEventHandler(events *services.EventService, gate *access.Gate) *EventHandler {
	return &EventHandler{events: events, gate: gate}
}

// GET /api/events/:slug — the guest-facing page payload. Only active events
// resolve; admin-only fields are not included.
func (h *EventHandler) GetPublic(c *gin.Context) {
	event, err := h.events.GetPublicBySlug(requestContext(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"slug":                 event.Slug,
		"title":                event.Title,
		"subtitle":             event.Subtitle,
		"date":                 event.Date,
		"time":                 event.Time,
		"location":             event.Location,
		"details":              event.Details,
		"price_enabled":        event.PriceEnabled,
		"price_amount":         event.PriceAmount,
		"price_currency":       event.PriceCurrency,
		"background_image_url": event.BackgroundImageURL,
		"theme":                event.Theme,
		"host_name":            event.HostName,
	})
}

// GET /api/admin/events
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.List(requestContext(c), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, events)
}

type createEventRequest struct {
	Slug               string         `json:"slug" validate:"required"`
	Title              string         `json:"title" validate:"required"`
	Subtitle           string         `json:"subtitle"`
	Date               string         `json:"date"`
	Time               string         `json:"time"`
	Location           string         `json:"location"`
	Details            string         `json:"details"`
	PriceEnabled       bool           `json:"price_enabled"`
	PriceAmount        float64        `json:"price_amount"`
	PriceCurrency      string         `json:"price_currency"`
	BackgroundImageURL string         `json:"background_image_url"`
	Theme              datatypes.JSON `json:"theme"`
	HostName           string         `json:"host_name"`
	HostEmail          string         `json:"host_email" validate:"omitempty,email"`
	HostPhone          string         `json:"host_phone"`
}

// POST /api/admin/events (super_admin only, enforced by the router)
func (h *EventHandler) Create(c *gin.Context) {
	var req createEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.Create(requestContext(c), services.CreateEventInput{
		Slug:               req.Slug,
		Title:              req.Title,
		Subtitle:           req.Subtitle,
		Date:               req.Date,
		Time:               req.Time,
		Location:           req.Location,
		Details:            req.Details,
		PriceEnabled:       req.PriceEnabled,
		PriceAmount:        req.PriceAmount,
		PriceCurrency:      req.PriceCurrency,
		BackgroundImageURL: req.BackgroundImageURL,
		Theme:              req.Theme,
		HostName:           req.HostName,
		HostEmail:          req.HostEmail,
		HostPhone:          req.HostPhone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, event)
}

// GET /api/admin/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	eventID := c.Param("id")
	if _, ok := requireEventRole(c, h.gate, eventID, models.RoleViewer); !ok {
		return
	}

	event, err := h.events.GetByID(requestContext(c), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, event)
}

type updateEventRequest struct {
	Title              *string        `json:"title"`
	Subtitle           *string        `json:"subtitle"`
	Date               *string        `json:"date"`
	Time               *string        `json:"time"`
	Location           *string        `json:"location"`
	Details            *string        `json:"details"`
	PriceEnabled       *bool          `json:"price_enabled"`
	PriceAmount        *float64       `json:"price_amount"`
	PriceCurrency      *string        `json:"price_currency"`
	BackgroundImageURL *string        `json:"background_image_url"`
	Theme              datatypes.JSON `json:"theme"`
	HostName           *string        `json:"host_name"`
	HostEmail          *string        `json:"host_email" validate:"omitempty"`
	HostPhone          *string        `json:"host_phone"`
	IsActive           *bool          `json:"is_active"`
}

// PATCH /api/admin/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	eventID := c.Param("id")
	if _, ok := requireEventRole(c, h.gate, eventID, models.RoleManager); !ok {
		return
	}

	var req updateEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.Update(requestContext(c), eventID, services.UpdateEventInput{
		Title:              req.Title,
		Subtitle:           req.Subtitle,
		Date:               req.Date,
		Time:               req.Time,
		Location:           req.Location,
		Details:            req.Details,
		PriceEnabled:       req.PriceEnabled,
		PriceAmount:        req.PriceAmount,
		PriceCurrency:      req.PriceCurrency,
		BackgroundImageURL: req.BackgroundImageURL,
		Theme:              req.Theme,
		HostName:           req.HostName,
		HostEmail:          req.HostEmail,
		HostPhone:          req.HostPhone,
		IsActive:           req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, event)
}

// DELETE /api/admin/events/:id (super_admin only, enforced by the router)
func (h *EventHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.events.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
