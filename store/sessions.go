package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gomc/website/models"
)

// SessionStore reads and writes admin logins and their sessions.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// FindSession returns the session row for token or ErrNotFound.
func (s *SessionStore) FindSession(ctx context.Context, token string) (models.LoginSession, error) {
	var sess models.LoginSession
	if err := s.db.WithContext(ctx).Where("token = ?", token).Take(&sess).Error; err != nil {
		return models.LoginSession{}, notFound(err)
	}
	return sess, nil
}

// FindLogin returns the login with id or ErrNotFound.
func (s *SessionStore) FindLogin(ctx context.Context, id uint) (models.Login, error) {
	var l models.Login
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&l).Error; err != nil {
		return models.Login{}, notFound(err)
	}
	return l, nil
}

// FindLoginByEmail returns the login registered under email or ErrNotFound.
func (s *SessionStore) FindLoginByEmail(ctx context.Context, email string) (models.Login, error) {
	var l models.Login
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&l).Error; err != nil {
		return models.Login{}, notFound(err)
	}
	return l, nil
}

// CreateLogin inserts a new admin login.
func (s *SessionStore) CreateLogin(ctx context.Context, l *models.Login) error {
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("create login: %w", err)
	}
	return nil
}

// CreateSession inserts a session row.
func (s *SessionStore) CreateSession(ctx context.Context, sess *models.LoginSession) error {
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// DeleteSession removes token; a missing row is not an error.
func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.LoginSession{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes up to limit sessions that expired before now and
// returns how many went away.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	var tokens []string
	err := s.db.WithContext(ctx).
		Model(&models.LoginSession{}).
		Where("expiration < ?", now).
		Limit(limit).
		Pluck("token", &tokens).Error
	if err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&models.LoginSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
