package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/models"
	apperrors "github.com/rsvphq/guestlist/pkg/errors"
)

var (
	// ErrEventNotFound indicates the requested event does not exist (or is not public).
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	// ErrDuplicateSlug marks a slug collision between events.
	ErrDuplicateSlug = apperrors.New("EVENT_SLUG_TAKEN", "An event with this slug already exists", http.StatusConflict)
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// CreateEventInput describes a new event.
type CreateEventInput struct {
	Slug               string
	Title              string
	Subtitle           string
	Date               string
	Time               string
	Location           string
	Details            string
	PriceEnabled       bool
	PriceAmount        float64
	PriceCurrency      string
	BackgroundImageURL string
	Theme              datatypes.JSON
	HostName           string
	HostEmail          string
	HostPhone          string
}

// UpdateEventInput enumerates mutable event attributes.
type UpdateEventInput struct {
	Title              *string
	Subtitle           *string
	Date               *string
	Time               *string
	Location           *string
	Details            *string
	PriceEnabled       *bool
	PriceAmount        *float64
	PriceCurrency      *string
	BackgroundImageURL *string
	Theme              datatypes.JSON
	HostName           *string
	HostEmail          *string
	HostPhone          *string
	IsActive           *bool
}

// EventService manages invitation events and their public projection.
type EventService struct {
	db   *gorm.DB
	gate *access.Gate
}

// NewEventService constructs an EventService.
func NewEventService(db *gorm.DB, gate *access.Gate) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	if gate == nil {
		return nil, errors.New("event service: gate is required")
	}
	return &EventService{db: db, gate: gate}, nil
}

// Create registers a new event. Slugs are lowercase url-safe identifiers.
func (s *EventService) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" || !slugPattern.MatchString(slug) {
		return nil, apperrors.NewBadRequest("slug must contain only lowercase letters, digits, and hyphens")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	event := &models.Event{
		Slug:               slug,
		Title:              strings.TrimSpace(input.Title),
		Subtitle:           strings.TrimSpace(input.Subtitle),
		Date:               strings.TrimSpace(input.Date),
		Time:               strings.TrimSpace(input.Time),
		Location:           strings.TrimSpace(input.Location),
		Details:            strings.TrimSpace(input.Details),
		PriceEnabled:       input.PriceEnabled,
		PriceAmount:        input.PriceAmount,
		PriceCurrency:      strings.TrimSpace(input.PriceCurrency),
		BackgroundImageURL: strings.TrimSpace(input.BackgroundImageURL),
		Theme:              input.Theme,
		HostName:           strings.TrimSpace(input.HostName),
		HostEmail:          normaliseEmail(input.HostEmail),
		HostPhone:          strings.TrimSpace(input.HostPhone),
		IsActive:           true,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("event service: create event: %w", err)
	}

	return event, nil
}

// GetByID fetches an event regardless of its active flag.
func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	ctx = ensureContext(ctx)

	var event models.Event
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: get event: %w", err)
	}
	return &event, nil
}

// GetPublicBySlug resolves the guest-facing event page. Inactive events are
// indistinguishable from missing ones.
func (s *EventService) GetPublicBySlug(ctx context.Context, slug string) (*models.Event, error) {
	ctx = ensureContext(ctx)

	var event models.Event
	err := s.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(slug)), true).
		Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: get event by slug: %w", err)
	}
	return &event, nil
}

// List returns the events the user may see, newest first. Super admins see
// everything; other users only their assigned events.
func (s *EventService) List(ctx context.Context, user *models.User) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	ids, all, err := s.gate.AccessibleEventIDs(ctx, user)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if !all {
		ids = normaliseIDs(ids)
		if len(ids) == 0 {
			return []models.Event{}, nil
		}
		query = query.Where("id IN ?", ids)
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("event service: list events: %w", err)
	}
	return events, nil
}

// Update applies partial changes to an event.
func (s *EventService) Update(ctx context.Context, id string, input UpdateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}

	setString("title", input.Title)
	setString("subtitle", input.Subtitle)
	setString("date", input.Date)
	setString("time", input.Time)
	setString("location", input.Location)
	setString("details", input.Details)
	setString("price_currency", input.PriceCurrency)
	setString("background_image_url", input.BackgroundImageURL)
	setString("host_name", input.HostName)
	setString("host_phone", input.HostPhone)

	if input.HostEmail != nil {
		updates["host_email"] = normaliseEmail(*input.HostEmail)
	}
	if input.PriceEnabled != nil {
		updates["price_enabled"] = *input.PriceEnabled
	}
	if input.PriceAmount != nil {
		updates["price_amount"] = *input.PriceAmount
	}
	if len(input.Theme) > 0 {
		updates["theme"] = input.Theme
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return event, nil
	}

	if err := s.db.WithContext(ctx).Model(event).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("event service: update event: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes the event together with its assignments and RSVPs.
func (s *EventService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.RSVP{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Event{}).Error
	})
	if err != nil {
		return fmt.Errorf("event service: delete event: %w", err)
	}
	return nil
}
