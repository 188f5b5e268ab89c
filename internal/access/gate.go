package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/metrics"
)

// Role order for event-scoped checks. The lattice is strict: a viewer
// assignment never satisfies a manager requirement.
var roleRank = map[string]int{
	models.RoleViewer:  1,
	models.RoleManager: 2,
}

// Decision is the outcome of a gate check. Role is the effective role the
// user holds on the event (nil when access was denied or granted via
// super_admin without an assignment).
type Decision struct {
	Granted bool
	Role    *string
}

// Gate answers "may this user act on this event at this level" questions.
type Gate struct {
	db *gorm.DB
}

// NewGate constructs an access gate backed by the assignments table.
func NewGate(db *gorm.DB) (*Gate, error) {
	if db == nil {
		return nil, errors.New("access gate: db is required")
	}
	return &Gate{db: db}, nil
}

// Check evaluates whether the user may act on the event at minRole level.
// Super admins are granted without consulting assignments.
func (g *Gate) Check(ctx context.Context, user *models.User, eventID, minRole string) (Decision, error) {
	if user == nil {
		g.count(minRole, "deny")
		return Decision{}, nil
	}

	if user.IsSuperAdmin() {
		g.count(minRole, "allow")
		return Decision{Granted: true}, nil
	}

	required, ok := roleRank[minRole]
	if !ok {
		return Decision{}, fmt.Errorf("access gate: unknown role %q", minRole)
	}

	if strings.TrimSpace(eventID) == "" {
		g.count(minRole, "deny")
		return Decision{}, nil
	}

	var assignment models.EventAssignment
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", user.ID, eventID).
		Take(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		g.count(minRole, "deny")
		return Decision{}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("access gate: load assignment: %w", err)
	}

	held, ok := roleRank[assignment.Role]
	if !ok || held < required {
		g.count(minRole, "deny")
		return Decision{Role: &assignment.Role}, nil
	}

	g.count(minRole, "allow")
	return Decision{Granted: true, Role: &assignment.Role}, nil
}

// AccessibleEventIDs lists the events the user may see. Super admins see
// everything, signalled by (nil, true).
func (g *Gate) AccessibleEventIDs(ctx context.Context, user *models.User) ([]string, bool, error) {
	if user == nil {
		return nil, false, nil
	}
	if user.IsSuperAdmin() {
		return nil, true, nil
	}

	var ids []string
	if err := g.db.WithContext(ctx).
		Model(&models.EventAssignment{}).
		Where("user_id = ?", user.ID).
		Pluck("event_id", &ids).Error; err != nil {
		return nil, false, fmt.Errorf("access gate: list assignments: %w", err)
	}

	return ids, false, nil
}

func (g *Gate) count(minRole, result string) {
	metrics.AccessChecks.WithLabelValues(minRole, result).Inc()
}
