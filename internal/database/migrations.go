package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Event{},
		&models.EventAssignment{},
		&models.RSVP{},
	)
}

// BootstrapAdmin describes the initial super admin account created on an
// empty database.
type BootstrapAdmin struct {
	Email    string
	Password string
	Name     string
}

// EnsureBootstrapAdmin seeds the first super_admin account when the users
// table is empty. Existing installations are left untouched.
func EnsureBootstrapAdmin(db *gorm.DB, admin BootstrapAdmin) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		return errors.New("bootstrap admin requires email and password")
	}

	hash, err := crypto.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}

	return db.Create(&models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}).Error
}
