package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventAssignment grants a non-super-admin user a role on one event. A user
// holds at most one assignment per event; re-assigning replaces the role in
// place rather than adding a second row.
type EventAssignment struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_user_event" json:"user_id"`
	EventID string `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_user_event" json:"event_id"`
	Role    string `gorm:"not null" json:"role"`

	AssignedBy *string   `gorm:"type:uuid" json:"assigned_by,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

func (a *EventAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
