package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/crypto"
	"github.com/rsvphq/guestlist/pkg/metrics"
)

// Fallback session lifetimes.
const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	SessionTTL  time.Duration
	RememberTTL time.Duration
	TokenLength int
	Clock       func() time.Time
}

// CreateInput captures contextual information about the login.
type CreateInput struct {
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// SessionService manages creation, validation, and destruction of admin sessions.
// Tokens are opaque; every validation goes through the stored row so that
// deleting the row is sufficient to end the session.
type SessionService struct {
	db          *gorm.DB
	sessionTTL  time.Duration
	rememberTTL time.Duration
	tokenLen    int
	now         func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database.
func NewSessionService(db *gorm.DB, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	rememberTTL := cfg.RememberTTL
	if rememberTTL <= 0 {
		rememberTTL = DefaultRememberTTL
	}

	length := cfg.TokenLength
	if length <= 0 {
		length = 48
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:          db,
		sessionTTL:  ttl,
		rememberTTL: rememberTTL,
		tokenLen:    length,
		now:         clock,
	}, nil
}

// Create generates a new session for the user and persists it.
func (s *SessionService) Create(ctx context.Context, userID string, input CreateInput) (*models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("session service: user id is required")
	}

	token, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return nil, fmt.Errorf("session service: generate token: %w", err)
	}

	now := s.now()

	ttl := s.sessionTTL
	if input.RememberMe {
		ttl = s.rememberTTL
	}

	session := &models.Session{
		UserID:     userID,
		Token:      token,
		IPAddress:  strings.TrimSpace(input.IPAddress),
		UserAgent:  strings.TrimSpace(input.UserAgent),
		ExpiresAt:  now.Add(ttl),
		LastUsedAt: now,
	}

	// both writes commit together so a failed login stamp cannot leave an
	// orphaned live token behind
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("session service: create session: %w", err)
		}

		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("last_login_at", now)
		if result.Error != nil {
			return fmt.Errorf("session service: stamp last login: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("session service: user %s not found", userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ActiveSessions.Inc()

	return session, nil
}

// Validate resolves a session token to its owning user. A missing, expired,
// or orphaned session yields (nil, nil): the caller treats it as "not logged
// in", not as a failure. Only store errors surface as errors.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("token = ?", token).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session service: find session: %w", err)
	}

	now := s.now()
	if !session.ExpiresAt.After(now) {
		return nil, nil
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("id = ?", session.UserID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session service: find user: %w", err)
	}

	if !user.IsActive {
		return nil, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&session).
		Update("last_used_at", now).Error; err != nil {
		return nil, fmt.Errorf("session service: touch session: %w", err)
	}

	return &user, nil
}

// Destroy removes the session row. Unknown tokens are a no-op.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	result := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("session service: destroy session: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	return nil
}

// DestroyUserSessions removes every session belonging to a user. Used when an
// account is deactivated so that existing logins end immediately.
func (s *SessionService) DestroyUserSessions(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("session service: user id is required")
	}

	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("session service: destroy user sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	return nil
}

// CleanupExpired removes expired sessions and updates active session metrics.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	return result.RowsAffected, nil
}
