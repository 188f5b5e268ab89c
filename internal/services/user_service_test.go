package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/database/testutil"
	"github.com/rsvphq/guestlist/internal/models"
	apperrors "github.com/rsvphq/guestlist/pkg/errors"
	"github.com/rsvphq/guestlist/pkg/crypto"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)
	return svc, db
}

func mustCreateUser(t *testing.T, svc *UserService, email, role string) *models.User {
	t.Helper()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    email,
		Password: "changeme123",
		Name:     "User",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestUserCreateNormalisesEmail(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "  Admin@Example.COM ",
		Password: "changeme123",
		Name:     "Admin",
		Role:     models.RoleSuperAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", user.Email)
	require.True(t, user.IsActive)
	require.NotEqual(t, "changeme123", user.PasswordHash)
}

func TestUserCreateDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newUserService(t)
	mustCreateUser(t, svc, "dup@example.com", models.RoleViewer)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "DUP@example.com",
		Password: "changeme123",
	})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, 409, appErr.StatusCode)
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "x@example.com",
		Password: "changeme123",
		Role:     "owner",
	})
	require.Error(t, err)
}

func TestUserAuthenticate(t *testing.T) {
	svc, _ := newUserService(t)
	mustCreateUser(t, svc, "login@example.com", models.RoleManager)

	user, err := svc.Authenticate(context.Background(), "Login@Example.com", "changeme123")
	require.NoError(t, err)
	require.Equal(t, "login@example.com", user.Email)

	_, err = svc.Authenticate(context.Background(), "login@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "changeme123")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserAuthenticateRejectsInactive(t *testing.T) {
	svc, db := newUserService(t)
	user := mustCreateUser(t, svc, "gone@example.com", models.RoleViewer)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err := svc.Authenticate(context.Background(), "gone@example.com", "changeme123")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserDeactivateProtectsLastSuperAdmin(t *testing.T) {
	svc, _ := newUserService(t)
	only := mustCreateUser(t, svc, "root@example.com", models.RoleSuperAdmin)

	require.ErrorIs(t, svc.Deactivate(context.Background(), only.ID), ErrLastSuperAdmin)

	// a second active super admin unblocks deactivation
	mustCreateUser(t, svc, "second@example.com", models.RoleSuperAdmin)
	require.NoError(t, svc.Deactivate(context.Background(), only.ID))

	stored, err := svc.GetByID(context.Background(), only.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestUserUpdateRoleDemotionProtection(t *testing.T) {
	svc, _ := newUserService(t)
	only := mustCreateUser(t, svc, "root@example.com", models.RoleSuperAdmin)

	role := models.RoleViewer
	_, err := svc.Update(context.Background(), only.ID, UpdateUserInput{Role: &role})
	require.ErrorIs(t, err, ErrLastSuperAdmin)
}

func TestUserUpdateFields(t *testing.T) {
	svc, _ := newUserService(t)
	user := mustCreateUser(t, svc, "edit@example.com", models.RoleViewer)

	name := "Renamed"
	role := models.RoleManager
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserInput{Name: &name, Role: &role})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, models.RoleManager, updated.Role)
}

func TestUserChangePassword(t *testing.T) {
	svc, db := newUserService(t)
	user := mustCreateUser(t, svc, "pw@example.com", models.RoleViewer)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "new-password-1"))

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.True(t, crypto.VerifyPassword(stored.PasswordHash, "new-password-1"))

	require.Error(t, svc.ChangePassword(context.Background(), user.ID, "  "))
	require.ErrorIs(t, svc.ChangePassword(context.Background(), "missing", "x-password"), ErrUserNotFound)
}

func TestUserListNewestFirst(t *testing.T) {
	svc, _ := newUserService(t)
	mustCreateUser(t, svc, "a@example.com", models.RoleViewer)
	mustCreateUser(t, svc, "b@example.com", models.RoleViewer)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestUserDeactivateDestroysSessions(t *testing.T) {
	svc, db := newUserService(t)
	user := mustCreateUser(t, svc, "locked@example.com", models.RoleViewer)

	session := &models.Session{
		UserID:    user.ID,
		Token:     "live-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(session).Error)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)
}
