package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gomc/website/models"
	"github.com/gomc/website/store"
)

// LoginResult is the outcome of a login attempt.
type LoginResult int

const (
	LoginSuccess LoginResult = iota
	LoginInvalidEmail
	LoginInvalidPassword
	LoginNeedCaptcha
)

var loginResultNames = [...]string{"Success", "InvalidEmail", "InvalidPassword", "NeedCaptcha"}

func (r LoginResult) String() string {
	if r < 0 || int(r) >= len(loginResultNames) {
		return "Unknown"
	}
	return loginResultNames[r]
}

// MarshalJSON renders the result name.
func (r LoginResult) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// Accounts is the persistence the login manager needs.
type Accounts interface {
	FindLoginByEmail(ctx context.Context, email string) (models.Login, error)
	CreateLogin(ctx context.Context, l *models.Login) error
	CreateSession(ctx context.Context, s *models.LoginSession) error
	DeleteSession(ctx context.Context, token string) error
}

// LoginInput is one login attempt.
type LoginInput struct {
	Email         string
	Password      string
	CaptchaID     string
	CaptchaAnswer string
}

// LoginOutcome carries the session created by a successful login.
// CaptchaRequired tells the client to show a captcha on its next attempt.
type LoginOutcome struct {
	Result          LoginResult `json:"result"`
	Token           string      `json:"session,omitempty"`
	Expiration      time.Time   `json:"expiration"`
	CaptchaRequired bool        `json:"captcha_required"`
}

// Manager authenticates admin credentials and issues sessions.
type Manager struct {
	Accounts      Accounts
	Failures      FailureCounter
	VerifyCaptcha func(id, answer string) bool
	CaptchaAfter  int
	TTL           time.Duration
	Now           func() time.Time
	Log           *zap.Logger
}

// Login checks the credentials and, on success, stores a new session.
func (m *Manager) Login(ctx context.Context, in LoginInput) (LoginOutcome, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if m.captchaRequired(ctx, email) {
		if m.VerifyCaptcha == nil || !m.VerifyCaptcha(in.CaptchaID, in.CaptchaAnswer) {
			return LoginOutcome{Result: LoginNeedCaptcha, CaptchaRequired: true}, nil
		}
	}

	login, err := m.Accounts.FindLoginByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return m.fail(ctx, email, LoginInvalidEmail), nil
	}
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("find login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte(in.Password)) != nil {
		return m.fail(ctx, email, LoginInvalidPassword), nil
	}

	now := m.now()
	sess := models.LoginSession{
		Token:      uuid.NewString(),
		LoginID:    login.ID,
		Expiration: now.Add(m.ttl()),
		CreatedAt:  now,
	}
	if err := m.Accounts.CreateSession(ctx, &sess); err != nil {
		return LoginOutcome{}, err
	}
	m.Failures.Reset(ctx, email)
	m.logger().Info("admin login", zap.Uint("login_id", login.ID))
	return LoginOutcome{Result: LoginSuccess, Token: sess.Token, Expiration: sess.Expiration}, nil
}

// Logout deletes the session behind token. Unknown or malformed tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil
	}
	return m.Accounts.DeleteSession(ctx, id.String())
}

// EnsureAdmin creates the bootstrap login when email is not registered yet.
func (m *Manager) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	_, err := m.Accounts.FindLoginByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := m.Accounts.CreateLogin(ctx, &models.Login{Email: email, PasswordHash: hash}); err != nil {
		return err
	}
	m.logger().Info("bootstrap admin created", zap.String("email", email))
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (m *Manager) captchaRequired(ctx context.Context, email string) bool {
	return m.CaptchaAfter > 0 && m.Failures.Failures(ctx, email) >= m.CaptchaAfter
}

func (m *Manager) fail(ctx context.Context, email string, r LoginResult) LoginOutcome {
	n := m.Failures.Record(ctx, email)
	m.logger().Warn("admin login failed", zap.String("result", r.String()), zap.Int("failures", n))
	return LoginOutcome{Result: r, CaptchaRequired: m.CaptchaAfter > 0 && n >= m.CaptchaAfter}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Manager) ttl() time.Duration {
	if m.TTL <= 0 {
		return 72 * time.Hour
	}
	return m.TTL
}

func (m *Manager) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}
