package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/database/testutil"
	"github.com/rsvphq/guestlist/internal/models"
)

func newTestGate(t *testing.T) (*Gate, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	gate, err := NewGate(db)
	require.NoError(t, err)
	return gate, db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Name:         "User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedEvent(t *testing.T, db *gorm.DB, slug string) *models.Event {
	t.Helper()

	event := &models.Event{Slug: slug, Title: "Event", IsActive: true}
	require.NoError(t, db.Create(event).Error)
	return event
}

func assign(t *testing.T, db *gorm.DB, user *models.User, event *models.Event, role string) {
	t.Helper()

	require.NoError(t, db.Create(&models.EventAssignment{
		UserID:  user.ID,
		EventID: event.ID,
		Role:    role,
	}).Error)
}

func TestGateMatrix(t *testing.T) {
	gate, db := newTestGate(t)
	event := seedEvent(t, db, "launch-party")

	viewer := seedUser(t, db, "viewer@example.com", models.RoleViewer)
	manager := seedUser(t, db, "manager@example.com", models.RoleManager)
	assign(t, db, viewer, event, models.RoleViewer)
	assign(t, db, manager, event, models.RoleManager)

	cases := []struct {
		name    string
		user    *models.User
		minRole string
		granted bool
	}{
		{"viewer can view", viewer, models.RoleViewer, true},
		{"viewer cannot manage", viewer, models.RoleManager, false},
		{"manager can view", manager, models.RoleViewer, true},
		{"manager can manage", manager, models.RoleManager, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := gate.Check(context.Background(), tc.user, event.ID, tc.minRole)
			require.NoError(t, err)
			require.Equal(t, tc.granted, decision.Granted)
		})
	}
}

func TestGateSuperAdminBypassesAssignments(t *testing.T) {
	gate, db := newTestGate(t)
	event := seedEvent(t, db, "gala")
	admin := seedUser(t, db, "root@example.com", models.RoleSuperAdmin)

	decision, err := gate.Check(context.Background(), admin, event.ID, models.RoleManager)
	require.NoError(t, err)
	require.True(t, decision.Granted)
	require.Nil(t, decision.Role)
}

func TestGateDeniesWithoutAssignment(t *testing.T) {
	gate, db := newTestGate(t)
	event := seedEvent(t, db, "retreat")
	outsider := seedUser(t, db, "outsider@example.com", models.RoleManager)

	decision, err := gate.Check(context.Background(), outsider, event.ID, models.RoleViewer)
	require.NoError(t, err)
	require.False(t, decision.Granted)

	decision, err = gate.Check(context.Background(), nil, event.ID, models.RoleViewer)
	require.NoError(t, err)
	require.False(t, decision.Granted)
}

func TestGateUnknownRoleIsAnError(t *testing.T) {
	gate, db := newTestGate(t)
	event := seedEvent(t, db, "mixer")
	user := seedUser(t, db, "user@example.com", models.RoleViewer)

	_, err := gate.Check(context.Background(), user, event.ID, "owner")
	require.Error(t, err)
}

func TestGateAccessibleEventIDs(t *testing.T) {
	gate, db := newTestGate(t)
	first := seedEvent(t, db, "first")
	second := seedEvent(t, db, "second")
	seedEvent(t, db, "third")

	user := seedUser(t, db, "scoped@example.com", models.RoleViewer)
	assign(t, db, user, first, models.RoleViewer)
	assign(t, db, user, second, models.RoleManager)

	ids, all, err := gate.AccessibleEventIDs(context.Background(), user)
	require.NoError(t, err)
	require.False(t, all)
	require.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	admin := seedUser(t, db, "admin@example.com", models.RoleSuperAdmin)
	ids, all, err = gate.AccessibleEventIDs(context.Background(), admin)
	require.NoError(t, err)
	require.True(t, all)
	require.Nil(t, ids)
}
