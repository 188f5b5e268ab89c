package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/campaign"
	"github.com/rsvphq/guestlist/internal/database/testutil"
	"github.com/rsvphq/guestlist/internal/models"
)

func newRSVPFixture(t *testing.T) (*RSVPService, *campaign.TokenCodec, *models.Event, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	codec := campaign.NewTokenCodec("test-secret")
	svc, err := NewRSVPService(db, codec)
	require.NoError(t, err)

	gate, err := access.NewGate(db)
	require.NoError(t, err)
	events, err := NewEventService(db, gate)
	require.NoError(t, err)

	event, err := events.Create(context.Background(), CreateEventInput{Slug: "fiesta", Title: "Fiesta"})
	require.NoError(t, err)

	return svc, codec, event, db
}

func submitRSVP(t *testing.T, svc *RSVPService, email string) *models.RSVP {
	t.Helper()

	rsvp, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventSlug: "fiesta",
		Name:      "Guest",
		Email:     email,
	})
	require.NoError(t, err)
	return rsvp
}

func TestRSVPSubmit(t *testing.T) {
	svc, _, event, _ := newRSVPFixture(t)

	rsvp, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventSlug:   "fiesta",
		Name:        "María",
		Email:       " Maria@Example.com ",
		Phone:       "555-0101",
		PlusOne:     true,
		PlusOneName: "Luis",
	})
	require.NoError(t, err)
	require.Equal(t, event.ID, rsvp.EventID)
	require.Equal(t, "maria@example.com", rsvp.Email)
	require.Equal(t, models.RSVPStatusConfirmed, rsvp.Status)
	require.Empty(t, rsvp.History())
}

func TestRSVPSubmitDuplicateConflicts(t *testing.T) {
	svc, _, _, _ := newRSVPFixture(t)
	submitRSVP(t, svc, "guest@example.com")

	_, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventSlug: "fiesta",
		Name:      "Guest Again",
		Email:     "GUEST@example.com",
	})
	require.ErrorIs(t, err, ErrDuplicateRSVP)
}

func TestRSVPSubmitUnknownOrInactiveEvent(t *testing.T) {
	svc, _, event, db := newRSVPFixture(t)

	_, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventSlug: "no-such-event", Name: "G", Email: "g@example.com",
	})
	require.ErrorIs(t, err, ErrEventNotFound)

	require.NoError(t, db.Model(&models.Event{}).Where("id = ?", event.ID).Update("is_active", false).Error)
	_, err = svc.Submit(context.Background(), SubmitRSVPInput{
		EventSlug: "fiesta", Name: "G", Email: "g@example.com",
	})
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestRSVPGuestUpdateRequiresMatchingToken(t *testing.T) {
	svc, codec, _, _ := newRSVPFixture(t)
	rsvp := submitRSVP(t, svc, "guest@example.com")

	name := "Edited"
	_, err := svc.GuestUpdate(context.Background(), rsvp.ID, "bad-token", GuestUpdateRSVPInput{Name: &name})
	require.ErrorIs(t, err, ErrInvalidCancelToken)

	token := codec.Generate(rsvp.ID, rsvp.Email)
	updated, err := svc.GuestUpdate(context.Background(), rsvp.ID, token, GuestUpdateRSVPInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Edited", updated.Name)
}

func TestRSVPGuestUpdateTokenDiesWithEmailChange(t *testing.T) {
	svc, codec, _, _ := newRSVPFixture(t)
	rsvp := submitRSVP(t, svc, "old@example.com")

	token := codec.Generate(rsvp.ID, "old@example.com")

	newEmail := "new@example.com"
	_, err := svc.GuestUpdate(context.Background(), rsvp.ID, token, GuestUpdateRSVPInput{Email: &newEmail})
	require.NoError(t, err)

	// the old link is now useless; only a token for the new email works
	name := "X"
	_, err = svc.GuestUpdate(context.Background(), rsvp.ID, token, GuestUpdateRSVPInput{Name: &name})
	require.ErrorIs(t, err, ErrInvalidCancelToken)

	fresh := codec.Generate(rsvp.ID, newEmail)
	_, err = svc.GuestUpdate(context.Background(), rsvp.ID, fresh, GuestUpdateRSVPInput{Name: &name})
	require.NoError(t, err)
}

func TestRSVPSetStatusWithToken(t *testing.T) {
	svc, codec, _, _ := newRSVPFixture(t)
	rsvp := submitRSVP(t, svc, "guest@example.com")
	token := codec.Generate(rsvp.ID, rsvp.Email)

	cancelled, err := svc.SetStatusWithToken(context.Background(), rsvp.ID, token, models.RSVPStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, models.RSVPStatusCancelled, cancelled.Status)

	reconfirmed, err := svc.SetStatusWithToken(context.Background(), rsvp.ID, token, models.RSVPStatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, models.RSVPStatusConfirmed, reconfirmed.Status)

	_, err = svc.SetStatusWithToken(context.Background(), rsvp.ID, token, "maybe")
	require.Error(t, err)

	_, err = svc.SetStatusWithToken(context.Background(), rsvp.ID, "bad", models.RSVPStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidCancelToken)
}

func TestRSVPAdminUpdateStatusValidation(t *testing.T) {
	svc, _, _, _ := newRSVPFixture(t)
	rsvp := submitRSVP(t, svc, "guest@example.com")

	bad := "waitlisted"
	_, err := svc.AdminUpdate(context.Background(), rsvp.ID, AdminUpdateRSVPInput{Status: &bad})
	require.Error(t, err)

	good := models.RSVPStatusCancelled
	updated, err := svc.AdminUpdate(context.Background(), rsvp.ID, AdminUpdateRSVPInput{Status: &good})
	require.NoError(t, err)
	require.Equal(t, models.RSVPStatusCancelled, updated.Status)
}

func TestRSVPRecordEmailSentAppends(t *testing.T) {
	svc, _, _, _ := newRSVPFixture(t)
	rsvp := submitRSVP(t, svc, "guest@example.com")

	first := models.EmailRecord{SentAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), Type: models.EmailKindConfirmation}
	second := models.EmailRecord{SentAt: time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC), Type: models.EmailKindReminder}

	require.NoError(t, svc.RecordEmailSent(context.Background(), rsvp.ID, first))
	require.NoError(t, svc.RecordEmailSent(context.Background(), rsvp.ID, second))

	stored, err := svc.GetByID(context.Background(), rsvp.ID)
	require.NoError(t, err)
	history := stored.History()
	require.Len(t, history, 2)
	require.Equal(t, models.EmailKindConfirmation, history[0].Type)
	require.Equal(t, models.EmailKindReminder, history[1].Type)

	require.ErrorIs(t, svc.RecordEmailSent(context.Background(), "missing", first), ErrRSVPNotFound)
}

func TestRSVPStatsAndReminderStatus(t *testing.T) {
	svc, _, event, _ := newRSVPFixture(t)

	reminded := submitRSVP(t, svc, "reminded@example.com")
	needy := submitRSVP(t, svc, "needy@example.com")
	cancelled := submitRSVP(t, svc, "cancelled@example.com")

	status := models.RSVPStatusCancelled
	_, err := svc.AdminUpdate(context.Background(), cancelled.ID, AdminUpdateRSVPInput{Status: &status})
	require.NoError(t, err)

	sentAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecordEmailSent(context.Background(), reminded.ID,
		models.EmailRecord{SentAt: sentAt, Type: models.EmailKindReminder}))
	// a confirmation alone does not count as a reminder
	require.NoError(t, svc.RecordEmailSent(context.Background(), needy.ID,
		models.EmailRecord{SentAt: sentAt, Type: models.EmailKindConfirmation}))

	stats, err := svc.Stats(context.Background(), event.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.Total)
	require.EqualValues(t, 2, stats.Confirmed)
	require.EqualValues(t, 1, stats.Cancelled)

	report, err := svc.ReminderStatus(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, report.AlreadyReminded, 1)
	require.Equal(t, reminded.ID, report.AlreadyReminded[0].ID)
	require.NotNil(t, report.AlreadyReminded[0].LastReminderAt)
	require.Len(t, report.NeedsReminder, 1)
	require.Equal(t, needy.ID, report.NeedsReminder[0].ID)
}

func TestRSVPListByEvent(t *testing.T) {
	svc, _, event, _ := newRSVPFixture(t)
	submitRSVP(t, svc, "one@example.com")
	submitRSVP(t, svc, "two@example.com")

	listed, err := svc.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}
