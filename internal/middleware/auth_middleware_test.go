package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/rsvphq/guestlist/internal/auth"
	"github.com/rsvphq/guestlist/internal/database/testutil"
	"github.com/rsvphq/guestlist/internal/models"
)

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	sessions, err := iauth.NewSessionService(db, iauth.SessionConfig{SessionTTL: time.Hour})
	require.NoError(t, err)

	user := &models.User{
		Email:        "mw@example.com",
		PasswordHash: "x",
		Role:         models.RoleViewer,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	session, err := sessions.Create(context.Background(), user.ID, iauth.CreateInput{})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secure", RequireSession(sessions), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": CurrentUser(c).Email})
	})

	// no cookie -> 401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// bogus cookie -> 401
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// valid cookie -> user available downstream
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "mw@example.com", body["email"])
}

func TestRequireSuperAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(CtxUserKey, &models.User{Role: models.RoleManager})
	}, RequireSuperAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/root", func(c *gin.Context) {
		c.Set(CtxUserKey, &models.User{Role: models.RoleSuperAdmin})
	}, RequireSuperAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/root", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
