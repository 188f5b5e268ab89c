package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/crypto"
	apperrors "github.com/rsvphq/guestlist/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrDuplicateEmail marks an attempt to register an email twice.
	ErrDuplicateEmail = apperrors.New("USER_EMAIL_TAKEN", "A user with this email already exists", http.StatusConflict)
	// ErrLastSuperAdmin protects the final active super admin from deactivation or demotion.
	ErrLastSuperAdmin = apperrors.New("USER_LAST_SUPER_ADMIN", "The last active super admin cannot be removed", http.StatusBadRequest)
)

func validRole(role string) bool {
	switch role {
	case models.RoleSuperAdmin, models.RoleManager, models.RoleViewer:
		return true
	}
	return false
}

// CreateUserInput describes the fields accepted when creating a user.
type CreateUserInput struct {
	Email     string
	Password  string
	Name      string
	Role      string
	InvitedBy *string
}

// UpdateUserInput enumerates mutable user attributes.
type UpdateUserInput struct {
	Name     *string
	Role     *string
	IsActive *bool
}

// UserService manages admin accounts: creation, updates, deactivation, and
// password verification for login.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Create provisions a new admin account with a hashed password.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = models.RoleViewer
	}
	if !validRole(role) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown role %q", role))
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		IsActive:     true,
		InvitedBy:    input.InvitedBy,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// GetByID fetches a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// GetByEmail fetches a user by email (case-insensitive).
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normaliseEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user by email: %w", err)
	}
	return &user, nil
}

// List returns all users, newest first, with their event assignments.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	if err := s.db.WithContext(ctx).
		Preload("Assignments").
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// Update applies partial changes to a user.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if !validRole(role) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown role %q", role))
		}
		if user.IsSuperAdmin() && role != models.RoleSuperAdmin {
			if err := s.ensureNotLastSuperAdmin(ctx, user.ID); err != nil {
				return nil, err
			}
		}
		updates["role"] = role
	}
	if input.IsActive != nil {
		if user.IsSuperAdmin() && !*input.IsActive {
			if err := s.ensureNotLastSuperAdmin(ctx, user.ID); err != nil {
				return nil, err
			}
		}
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update user: %w", err)
	}

	return s.GetByID(ctx, id)
}

// ChangePassword replaces the stored password hash.
func (s *UserService) ChangePassword(ctx context.Context, id, password string) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(password) == "" {
		return apperrors.NewBadRequest("password is required")
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hashed).Error; err != nil {
		return fmt.Errorf("user service: change password: %w", err)
	}
	return nil
}

// Deactivate disables the account. Rows are never deleted so assignment and
// invitation history stays intact.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.IsSuperAdmin() {
		if err := s.ensureNotLastSuperAdmin(ctx, user.ID); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("user service: deactivate user: %w", err)
		}
		// drop live sessions so the account is locked out immediately
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("user service: destroy sessions: %w", err)
		}
		return nil
	})
}

// Authenticate verifies login credentials. Unknown email, wrong password, and
// deactivated accounts are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive || !crypto.VerifyPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) ensureNotLastSuperAdmin(ctx context.Context, excludeID string) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ? AND id <> ?", models.RoleSuperAdmin, true, excludeID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("user service: count super admins: %w", err)
	}
	if count == 0 {
		return ErrLastSuperAdmin
	}
	return nil
}
