package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event is an invitation page with its display settings. Slug is the public
// identifier used in guest-facing URLs.
type Event struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Title    string `gorm:"not null" json:"title"`
	Subtitle string `json:"subtitle"`

	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Details  string `json:"details"`

	PriceEnabled  bool    `gorm:"default:false" json:"price_enabled"`
	PriceAmount   float64 `json:"price_amount"`
	PriceCurrency string  `json:"price_currency"`

	BackgroundImageURL string         `json:"background_image_url"`
	Theme              datatypes.JSON `json:"theme,omitempty"`

	HostName  string `json:"host_name"`
	HostEmail string `json:"host_email"`
	HostPhone string `json:"host_phone"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	Assignments []EventAssignment `gorm:"foreignKey:EventID" json:"-"`
	RSVPs       []RSVP            `gorm:"foreignKey:EventID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
