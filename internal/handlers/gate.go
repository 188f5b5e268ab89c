package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/middleware"
	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/errors"
	"github.com/rsvphq/guestlist/pkg/response"
)

// requireEventRole checks the caller's role on an event and writes the error
// response when access is denied. Returns the user on success.
func requireEventRole(c *gin.Context, gate *access.Gate, eventID, minRole string) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return nil, false
	}

	decision, err := gate.Check(requestContext(c), user, eventID, minRole)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return nil, false
	}
	if !decision.Granted {
		response.Error(c, errors.ErrForbidden)
		return nil, false
	}

	return user, true
}
