package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/rsvphq/guestlist/internal/auth"
	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/errors"
	"github.com/rsvphq/guestlist/pkg/response"
)

// CtxUserKey holds the authenticated *models.User in the gin context.
const CtxUserKey = "currentUser"

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "gl_session"

// RequireSession resolves the session cookie through the session service and
// stores the owning user in the request context. Requests without a valid
// session are rejected with 401.
func RequireSession(sessions *iauth.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, errors.ErrInternalServer)
			c.Abort()
			return
		}
		if user == nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserKey, user)
		c.Next()
	}
}

// RequireSuperAdmin rejects requests from users without the global role.
// Must run after RequireSession.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !user.IsSuperAdmin() {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by RequireSession, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
