package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names for admin users. The lattice is strict: viewer < manager, and
// super_admin bypasses per-event assignment checks entirely.
const (
	RoleSuperAdmin = "super_admin"
	RoleManager    = "manager"
	RoleViewer     = "viewer"
)

// User is an admin account. Accounts are never hard-deleted; removal is
// modelled as deactivation so historical assignments stay resolvable.
type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	Role         string `gorm:"not null;default:viewer" json:"role"`

	IsActive  bool    `gorm:"default:true" json:"is_active"`
	InvitedBy *string `gorm:"type:uuid" json:"invited_by,omitempty"`

	Assignments []EventAssignment `gorm:"foreignKey:UserID" json:"assignments,omitempty"`
	Sessions    []Session         `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsSuperAdmin reports whether the user holds the global role.
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}
