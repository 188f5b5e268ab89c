package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/rsvphq/guestlist/internal/auth"
	"github.com/rsvphq/guestlist/internal/middleware"
	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/internal/services"
	"github.com/rsvphq/guestlist/pkg/errors"
	"github.com/rsvphq/guestlist/pkg/metrics"
	"github.com/rsvphq/guestlist/pkg/response"
)

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	Domain string
	Secure bool
}

// AuthHandler manages the login/logout/me flows.
type AuthHandler struct {
	users    *services.UserService
	sessions *iauth.SessionService
	cookie   CookieSettings
}

func NewAuthHandler(users *services.UserService, sessions *iauth.SessionService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, cookie: cookie}
}

type loginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	session, err := h.sessions.Create(requestContext(c), user.ID, iauth.CreateInput{
		RememberMe: req.RememberMe,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	h.setSessionCookie(c, session.Token, int(time.Until(session.ExpiresAt).Seconds()))

	response.Success(c, http.StatusOK, gin.H{"user": userPayload(user)})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookieName); err == nil && token != "" {
		if err := h.sessions.Destroy(requestContext(c), token); err != nil {
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			return
		}
	}

	h.setSessionCookie(c, "", -1)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": userPayload(user)})
}

// GET /api/auth/validate
func (h *AuthHandler) Validate(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"valid": true, "role": user.Role})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
		"is_active":     user.IsActive,
		"last_login_at": user.LastLoginAt,
	}
}
