package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/rsvphq/guestlist/internal/auth"
	"github.com/rsvphq/guestlist/internal/database/testutil"
	"github.com/rsvphq/guestlist/internal/middleware"
	"github.com/rsvphq/guestlist/internal/services"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *services.UserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	users, err := services.NewUserService(db)
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, iauth.SessionConfig{
		SessionTTL:  time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	})
	require.NoError(t, err)

	handler := NewAuthHandler(users, sessions, CookieSettings{})

	r := gin.New()
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/logout", middleware.RequireSession(sessions), handler.Logout)
	r.GET("/api/auth/validate", middleware.RequireSession(sessions), handler.Validate)
	return r, users
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedLoginUser(t *testing.T, users *services.UserService, email string) {
	t.Helper()
	_, err := users.Create(nil, services.CreateUserInput{
		Email:    email,
		Password: "hunter2hunter2",
		Name:     "Login User",
		Role:     "viewer",
	})
	require.NoError(t, err)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestLoginSetsHTTPOnlyCookie(t *testing.T) {
	r, users := newAuthTestRouter(t)
	seedLoginUser(t, users, "cookie@example.com")

	w := postJSON(t, r, "/api/auth/login", gin.H{
		"email":    "cookie@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(t, w)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	// default TTL is one hour in this setup
	require.InDelta(t, 3600, cookie.MaxAge, 10)
}

func TestLoginRememberMeExtendsCookie(t *testing.T) {
	r, users := newAuthTestRouter(t)
	seedLoginUser(t, users, "remember@example.com")

	w := postJSON(t, r, "/api/auth/login", gin.H{
		"email":       "remember@example.com",
		"password":    "hunter2hunter2",
		"remember_me": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(t, w)
	require.Greater(t, cookie.MaxAge, 29*24*3600)
}

func TestLoginRejectsMalformedPayload(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	w := postJSON(t, r, "/api/auth/login", gin.H{"email": "not-an-email", "password": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.Equal(t, "BAD_REQUEST", envelope.Error.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	r, users := newAuthTestRouter(t)
	seedLoginUser(t, users, "logout@example.com")

	w := postJSON(t, r, "/api/auth/login", gin.H{
		"email":    "logout@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	w = postJSON(t, r, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
