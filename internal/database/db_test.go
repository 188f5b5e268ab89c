package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []interface{}{
		&models.User{},
		&models.Session{},
		&models.Event{},
		&models.EventAssignment{},
		&models.RSVP{},
	}
	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	admin := BootstrapAdmin{Email: "Admin@Example.com", Password: "bootstrap-secret", Name: "Root"}
	require.NoError(t, EnsureBootstrapAdmin(db, admin))

	var user models.User
	require.NoError(t, db.First(&user).Error)
	require.Equal(t, "admin@example.com", user.Email)
	require.Equal(t, models.RoleSuperAdmin, user.Role)
	require.True(t, user.IsActive)

	// second run must not create another account
	require.NoError(t, EnsureBootstrapAdmin(db, BootstrapAdmin{Email: "other@example.com", Password: "pw"}))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestEnsureBootstrapAdminRequiresCredentials(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	require.Error(t, EnsureBootstrapAdmin(db, BootstrapAdmin{}))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
