package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/campaign"
	"github.com/rsvphq/guestlist/internal/models"
	apperrors "github.com/rsvphq/guestlist/pkg/errors"
	"github.com/rsvphq/guestlist/pkg/metrics"
)

var (
	// ErrRSVPNotFound indicates the requested RSVP does not exist.
	ErrRSVPNotFound = apperrors.New("RSVP_NOT_FOUND", "RSVP not found", http.StatusNotFound)
	// ErrDuplicateRSVP marks a second submission for the same (event, email) pair.
	ErrDuplicateRSVP = apperrors.New("RSVP_DUPLICATE", "This email has already responded to the event", http.StatusConflict)
	// ErrInvalidCancelToken rejects guest self-service requests whose token does not match the stored email.
	ErrInvalidCancelToken = apperrors.New("RSVP_INVALID_TOKEN", "Invalid or outdated link", http.StatusForbidden)
)

// SubmitRSVPInput is a guest submission from the public event page.
type SubmitRSVPInput struct {
	EventSlug   string
	Name        string
	Email       string
	Phone       string
	PlusOne     bool
	PlusOneName string
}

// AdminUpdateRSVPInput enumerates the fields an event manager may edit.
type AdminUpdateRSVPInput struct {
	Name        *string
	Email       *string
	Phone       *string
	PlusOne     *bool
	PlusOneName *string
	Status      *string
}

// GuestUpdateRSVPInput is the self-service edit available through an email link.
type GuestUpdateRSVPInput struct {
	Name    *string
	Email   *string
	Phone   *string
	PlusOne *bool
}

// RSVPStats aggregates responses for one event.
type RSVPStats struct {
	Total     int64 `json:"total"`
	Confirmed int64 `json:"confirmed"`
	Cancelled int64 `json:"cancelled"`
}

// ReminderEntry is one guest row of the reminder-status report.
type ReminderEntry struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`
}

// ReminderStatusReport partitions the confirmed guests of an event by whether
// a reminder email was ever recorded for them.
type ReminderStatusReport struct {
	Stats           RSVPStats       `json:"stats"`
	AlreadyReminded []ReminderEntry `json:"already_reminded"`
	NeedsReminder   []ReminderEntry `json:"needs_reminder"`
}

// RSVPService manages guest responses: public submission, admin edits,
// token-gated guest edits, and campaign bookkeeping.
type RSVPService struct {
	db    *gorm.DB
	codec *campaign.TokenCodec
}

// NewRSVPService constructs an RSVPService.
func NewRSVPService(db *gorm.DB, codec *campaign.TokenCodec) (*RSVPService, error) {
	if db == nil {
		return nil, errors.New("rsvp service: db is required")
	}
	if codec == nil {
		return nil, errors.New("rsvp service: token codec is required")
	}
	return &RSVPService{db: db, codec: codec}, nil
}

// Submit records a guest response to an active event.
func (s *RSVPService) Submit(ctx context.Context, input SubmitRSVPInput) (*models.RSVP, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := normaliseEmail(input.Email)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	var event models.Event
	err := s.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(input.EventSlug)), true).
		Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rsvp service: resolve event: %w", err)
	}

	rsvp := &models.RSVP{
		EventID:     event.ID,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(input.Phone),
		PlusOne:     input.PlusOne,
		PlusOneName: strings.TrimSpace(input.PlusOneName),
		Status:      models.RSVPStatusConfirmed,
	}

	if err := s.db.WithContext(ctx).Create(rsvp).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateRSVP
		}
		return nil, fmt.Errorf("rsvp service: create rsvp: %w", err)
	}

	metrics.RSVPSubmissions.WithLabelValues("yes").Inc()

	return rsvp, nil
}

// GetByID fetches one RSVP.
func (s *RSVPService) GetByID(ctx context.Context, id string) (*models.RSVP, error) {
	ctx = ensureContext(ctx)

	var rsvp models.RSVP
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rsvp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRSVPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rsvp service: get rsvp: %w", err)
	}
	return &rsvp, nil
}

// ListByEvent returns an event's responses, newest first.
func (s *RSVPService) ListByEvent(ctx context.Context, eventID string) ([]models.RSVP, error) {
	ctx = ensureContext(ctx)

	var rsvps []models.RSVP
	if err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&rsvps).Error; err != nil {
		return nil, fmt.Errorf("rsvp service: list rsvps: %w", err)
	}
	return rsvps, nil
}

// AdminUpdate applies manager edits to an RSVP.
func (s *RSVPService) AdminUpdate(ctx context.Context, id string, input AdminUpdateRSVPInput) (*models.RSVP, error) {
	ctx = ensureContext(ctx)

	rsvp, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		updates["email"] = normaliseEmail(*input.Email)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.PlusOne != nil {
		updates["plus_one"] = *input.PlusOne
	}
	if input.PlusOneName != nil {
		updates["plus_one_name"] = strings.TrimSpace(*input.PlusOneName)
	}
	if input.Status != nil {
		status := *input.Status
		if status != models.RSVPStatusConfirmed && status != models.RSVPStatusCancelled {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown status %q", status))
		}
		updates["status"] = status
	}

	if len(updates) == 0 {
		return rsvp, nil
	}

	if err := s.db.WithContext(ctx).Model(rsvp).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateRSVP
		}
		return nil, fmt.Errorf("rsvp service: update rsvp: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GuestUpdate applies a self-service edit. The token is always validated
// against the email currently stored on the RSVP, so a link issued before an
// email change no longer works.
func (s *RSVPService) GuestUpdate(ctx context.Context, id, token string, input GuestUpdateRSVPInput) (*models.RSVP, error) {
	ctx = ensureContext(ctx)

	rsvp, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.codec.Validate(token, rsvp.ID, rsvp.Email) {
		return nil, ErrInvalidCancelToken
	}

	return s.AdminUpdate(ctx, id, AdminUpdateRSVPInput{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		PlusOne: input.PlusOne,
	})
}

// SetStatusWithToken cancels or reconfirms an RSVP through the guest link.
func (s *RSVPService) SetStatusWithToken(ctx context.Context, id, token, status string) (*models.RSVP, error) {
	ctx = ensureContext(ctx)

	if status != models.RSVPStatusConfirmed && status != models.RSVPStatusCancelled {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown status %q", status))
	}

	rsvp, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.codec.Validate(token, rsvp.ID, rsvp.Email) {
		return nil, ErrInvalidCancelToken
	}

	if err := s.db.WithContext(ctx).Model(rsvp).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("rsvp service: set status: %w", err)
	}

	return s.GetByID(ctx, id)
}

// RecordEmailSent appends one send record to the RSVP's history. The history
// is append-only; resends are always recorded.
func (s *RSVPService) RecordEmailSent(ctx context.Context, id string, record models.EmailRecord) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rsvp models.RSVP
		err := tx.Where("id = ?", id).Take(&rsvp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRSVPNotFound
		}
		if err != nil {
			return err
		}

		history, err := rsvp.AppendHistory(record)
		if err != nil {
			return fmt.Errorf("rsvp service: encode history: %w", err)
		}

		return tx.Model(&rsvp).Update("email_history", history).Error
	})
}

// Stats counts an event's responses by status.
func (s *RSVPService) Stats(ctx context.Context, eventID string) (RSVPStats, error) {
	ctx = ensureContext(ctx)

	var stats RSVPStats
	base := s.db.WithContext(ctx).Model(&models.RSVP{}).Where("event_id = ?", eventID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return RSVPStats{}, fmt.Errorf("rsvp service: count rsvps: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.RSVPStatusConfirmed).Count(&stats.Confirmed).Error; err != nil {
		return RSVPStats{}, fmt.Errorf("rsvp service: count confirmed: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.RSVPStatusCancelled).Count(&stats.Cancelled).Error; err != nil {
		return RSVPStats{}, fmt.Errorf("rsvp service: count cancelled: %w", err)
	}

	return stats, nil
}

// ReminderStatus builds the manual-reminder report for an event: confirmed
// guests split by whether a reminder was ever recorded in their history.
func (s *RSVPService) ReminderStatus(ctx context.Context, eventID string) (ReminderStatusReport, error) {
	ctx = ensureContext(ctx)

	stats, err := s.Stats(ctx, eventID)
	if err != nil {
		return ReminderStatusReport{}, err
	}

	var confirmed []models.RSVP
	if err := s.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, models.RSVPStatusConfirmed).
		Order("created_at ASC").
		Find(&confirmed).Error; err != nil {
		return ReminderStatusReport{}, fmt.Errorf("rsvp service: load confirmed rsvps: %w", err)
	}

	report := ReminderStatusReport{
		Stats:           stats,
		AlreadyReminded: []ReminderEntry{},
		NeedsReminder:   []ReminderEntry{},
	}

	for _, rsvp := range confirmed {
		entry := ReminderEntry{ID: rsvp.ID, Name: rsvp.Name, Email: rsvp.Email}

		var lastReminder *time.Time
		for _, record := range rsvp.History() {
			if record.Type != models.EmailKindReminder {
				continue
			}
			sentAt := record.SentAt
			if lastReminder == nil || sentAt.After(*lastReminder) {
				lastReminder = &sentAt
			}
		}

		if lastReminder != nil {
			entry.LastReminderAt = lastReminder
			report.AlreadyReminded = append(report.AlreadyReminded, entry)
		} else {
			report.NeedsReminder = append(report.NeedsReminder, entry)
		}
	}

	return report, nil
}
