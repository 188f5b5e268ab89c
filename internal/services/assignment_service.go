package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/models"
	apperrors "github.com/rsvphq/guestlist/pkg/errors"
)

// ErrAssignmentNotFound indicates the (user, event) pair has no assignment.
var ErrAssignmentNotFound = apperrors.New("ASSIGNMENT_NOT_FOUND", "Assignment not found", http.StatusNotFound)

// AssignInput describes an event role grant.
type AssignInput struct {
	UserID     string
	EventID    string
	Role       string
	AssignedBy *string
}

// AssignmentService manages per-event role grants for non-super-admin users.
type AssignmentService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(db *gorm.DB) (*AssignmentService, error) {
	if db == nil {
		return nil, errors.New("assignment service: db is required")
	}
	return &AssignmentService{db: db, now: time.Now}, nil
}

// Assign grants a role on an event. Assigning a user who already holds a role
// on the event replaces that role in place; a second row is never created.
func (s *AssignmentService) Assign(ctx context.Context, input AssignInput) (*models.EventAssignment, error) {
	ctx = ensureContext(ctx)

	role := input.Role
	if role != models.RoleManager && role != models.RoleViewer {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("assignable roles are %q and %q", models.RoleManager, models.RoleViewer))
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", input.UserID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("assignment service: load user: %w", err)
	}
	if user.IsSuperAdmin() {
		return nil, apperrors.NewBadRequest("super admins already have access to every event")
	}

	var event models.Event
	err = s.db.WithContext(ctx).Where("id = ?", input.EventID).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("assignment service: load event: %w", err)
	}

	assignment := &models.EventAssignment{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND event_id = ?", input.UserID, input.EventID).
			Take(assignment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			*assignment = models.EventAssignment{
				UserID:     input.UserID,
				EventID:    input.EventID,
				Role:       role,
				AssignedBy: input.AssignedBy,
				AssignedAt: s.now(),
			}
			return tx.Create(assignment).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]any{
			"role":        role,
			"assigned_by": input.AssignedBy,
			"assigned_at": s.now(),
		}
		if err := tx.Model(assignment).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", assignment.ID).Take(assignment).Error
	})
	if err != nil {
		return nil, fmt.Errorf("assignment service: assign: %w", err)
	}

	return assignment, nil
}

// ListForUser returns the user's assignments with events preloaded.
func (s *AssignmentService) ListForUser(ctx context.Context, userID string) ([]models.EventAssignment, error) {
	ctx = ensureContext(ctx)

	var assignments []models.EventAssignment
	if err := s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("assigned_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("assignment service: list for user: %w", err)
	}
	return assignments, nil
}

// Remove revokes the user's role on the event.
func (s *AssignmentService) Remove(ctx context.Context, userID, eventID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&models.EventAssignment{})
	if result.Error != nil {
		return fmt.Errorf("assignment service: remove: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}
