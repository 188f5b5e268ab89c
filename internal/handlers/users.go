package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rsvphq/guestlist/internal/middleware"
	"github.com/rsvphq/guestlist/internal/services"
	"github.com/rsvphq/guestlist/pkg/response"
)

// UserHandler exposes admin account management. Every route is super_admin
// only; the router enforces that.
type UserHandler struct {
	users       *services.UserService
	assignments *services.AssignmentService
}

func NewUserHandler(users *services.UserService, assignments *services.AssignmentService) *UserHandler {
	return &UserHandler{users: users, assignments: assignments}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,admin_role"`
}

// POST /api/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var invitedBy *string
	if actor := middleware.CurrentUser(c); actor != nil {
		invitedBy = &actor.ID
	}

	user, err := h.users.Create(requestContext(c), services.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Role:      req.Role,
		InvitedBy: invitedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// GET /api/admin/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/admin/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role" validate:"omitempty,admin_role"`
	IsActive *bool   `json:"is_active"`
}

// PATCH /api/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Update(requestContext(c), c.Param("id"), services.UpdateUserInput{
		Name:     req.Name,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/admin/users/:id deactivates the account; rows are never removed.
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.users.Deactivate(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

type changePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// POST /api/admin/users/:id/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.users.ChangePassword(requestContext(c), c.Param("id"), req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"changed": true})
}

// GET /api/admin/users/:id/events
func (h *UserHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignments.ListForUser(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, assignments)
}

type assignEventRequest struct {
	EventID string `json:"event_id" validate:"required"`
	Role    string `json:"role" validate:"required,oneof=manager viewer"`
}

// POST /api/admin/users/:id/events
func (h *UserHandler) Assign(c *gin.Context) {
	var req assignEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var assignedBy *string
	if actor := middleware.CurrentUser(c); actor != nil {
		assignedBy = &actor.ID
	}

	assignment, err := h.assignments.Assign(requestContext(c), services.AssignInput{
		UserID:     c.Param("id"),
		EventID:    req.EventID,
		Role:       req.Role,
		AssignedBy: assignedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, assignment)
}

// DELETE /api/admin/users/:id/events/:eventID
func (h *UserHandler) Unassign(c *gin.Context) {
	if err := h.assignments.Remove(requestContext(c), c.Param("id"), c.Param("eventID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
