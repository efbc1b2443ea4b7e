// Package session authenticates admin requests by their GUID session cookie
// and manages the logins that create those sessions.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gomc/website/models"
	"github.com/gomc/website/store"
)

// CookieName carries the session token.
const CookieName = "Admin_Session_Guid"

// Result classifies a session token.
type Result int

const (
	SessionValid Result = iota
	SessionExpired
	SessionInvalid
)

func (r Result) String() string {
	switch r {
	case SessionValid:
		return "SessionValid"
	case SessionExpired:
		return "SessionExpired"
	default:
		return "SessionInvalid"
	}
}

// MarshalJSON renders the result name.
func (r Result) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// Status is the outcome of Authenticate. LoginID is set only when Valid.
type Status struct {
	Result  Result
	LoginID uint
}

// Valid reports whether the token grants access.
func (s Status) Valid() bool { return s.Result == SessionValid }

// Store is the read side the validator needs.
type Store interface {
	FindSession(ctx context.Context, token string) (models.LoginSession, error)
	FindLogin(ctx context.Context, id uint) (models.Login, error)
}

// Validator maps session tokens to a Status. It never writes.
type Validator struct {
	Store Store
	Now   func() time.Time
	Log   *zap.Logger
}

// NewValidator creates a Validator using the wall clock.
func NewValidator(st Store, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{Store: st, Now: time.Now, Log: log}
}

// Authenticate classifies token. Anything it cannot positively confirm,
// including store failures, is SessionInvalid.
func (v *Validator) Authenticate(ctx context.Context, token string) Status {
	invalid := Status{Result: SessionInvalid}
	id, err := uuid.Parse(token)
	if err != nil {
		return invalid
	}
	sess, err := v.Store.FindSession(ctx, id.String())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			v.Log.Error("session lookup failed", zap.Error(err))
		}
		return invalid
	}
	if sess.Expiration.Before(v.Now()) {
		return Status{Result: SessionExpired}
	}
	login, err := v.Store.FindLogin(ctx, sess.LoginID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			v.Log.Error("session owner lookup failed", zap.Uint("login_id", sess.LoginID), zap.Error(err))
		}
		return invalid
	}
	return Status{Result: SessionValid, LoginID: login.ID}
}

// LoginID resolves token to its owner, or false when the token is not Valid.
func (v *Validator) LoginID(ctx context.Context, token string) (uint, bool) {
	st := v.Authenticate(ctx, token)
	return st.LoginID, st.Valid()
}
