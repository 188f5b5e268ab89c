package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RSVP statuses. A cancelled RSVP keeps its row; re-confirmation flips the
// status back without losing email history.
const (
	RSVPStatusConfirmed = "confirmed"
	RSVPStatusCancelled = "cancelled"
)

// Email kinds recorded in the per-RSVP history.
const (
	EmailKindConfirmation = "confirmation"
	EmailKindReminder     = "reminder"
	EmailKindReinvitation = "re-invitation"
)

// EmailRecord is one entry of an RSVP's append-only send history.
type EmailRecord struct {
	SentAt time.Time `json:"sent_at"`
	Type   string    `json:"type"`
}

// RSVP is a guest response to an event. Email is unique per event.
type RSVP struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	EventID string `gorm:"type:uuid;not null;uniqueIndex:idx_rsvps_event_email" json:"event_id"`
	Email   string `gorm:"not null;uniqueIndex:idx_rsvps_event_email" json:"email"`

	Name        string `gorm:"not null" json:"name"`
	Phone       string `json:"phone"`
	PlusOne     bool   `gorm:"default:false" json:"plus_one"`
	PlusOneName string `json:"plus_one_name"`

	Status string `gorm:"not null;default:confirmed" json:"status"`

	EmailHistory datatypes.JSON `json:"email_history,omitempty"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *RSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// History decodes the email history column. A missing or corrupt column is
// treated as an empty history.
func (r *RSVP) History() []EmailRecord {
	if len(r.EmailHistory) == 0 {
		return nil
	}

	var records []EmailRecord
	if err := json.Unmarshal(r.EmailHistory, &records); err != nil {
		return nil
	}
	return records
}

// AppendHistory returns the JSON column value with one more record appended.
func (r *RSVP) AppendHistory(record EmailRecord) (datatypes.JSON, error) {
	records := append(r.History(), record)
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// HasSend reports whether any email of the given kind was ever recorded.
func (r *RSVP) HasSend(kind string) bool {
	for _, record := range r.History() {
		if record.Type == kind {
			return true
		}
	}
	return false
}
