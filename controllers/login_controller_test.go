package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/session"
	"github.com/gomc/website/store"
)

func newLoginRouter(t *testing.T) (*gin.Engine, *session.Validator) {
	r, db := setupTest(t)
	accounts := store.NewSessionStore(db)
	m := &session.Manager{
		Accounts:      accounts,
		Failures:      session.NewFailureCounter(nil, time.Minute),
		VerifyCaptcha: func(string, string) bool { return false },
		CaptchaAfter:  2,
		TTL:           time.Hour,
	}
	if err := m.EnsureAdmin(context.Background(), "admin@example.org", "s3cret"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	c := NewLoginController(m)
	r.POST("/api/login/validate", c.Validate)
	r.POST("/api/login/logout", c.Logout)
	return r, session.NewValidator(accounts, nil)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	r, v := newLoginRouter(t)
	rec, env := doJSON(t, r, http.MethodPost, "/api/login/validate", gin.H{"email": "admin@example.org", "password": "s3cret"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Result  string `json:"result"`
		Session string `json:"session"`
	}
	decodeData(t, env, &out)
	if out.Result != "Success" || out.Session == "" {
		t.Fatalf("login data: %s", env.Data)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != out.Session || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", cookie)
	}
	if st := v.Authenticate(context.Background(), cookie.Value); st.Result != session.SessionValid {
		t.Fatalf("issued session not valid: %+v", st)
	}

	rec, _ = doJSON(t, r, http.MethodPost, "/api/login/logout", nil, cookie.Value)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	if st := v.Authenticate(context.Background(), cookie.Value); st.Result != session.SessionInvalid {
		t.Fatalf("session survived logout: %+v", st)
	}
}

func TestLoginFailuresEscalateToCaptcha(t *testing.T) {
	r, _ := newLoginRouter(t)
	bad := gin.H{"email": "admin@example.org", "password": "nope"}
	for i := 0; i < 2; i++ {
		rec, env := doJSON(t, r, http.MethodPost, "/api/login/validate", bad, "")
		if rec.Code != http.StatusUnauthorized || env.Code != 40121 {
			t.Fatalf("attempt %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}
	rec, env := doJSON(t, r, http.MethodPost, "/api/login/validate", gin.H{"email": "admin@example.org", "password": "s3cret"}, "")
	var out struct {
		Result string `json:"result"`
	}
	decodeData(t, env, &out)
	if rec.Code != http.StatusUnauthorized || out.Result != "NeedCaptcha" {
		t.Fatalf("expected captcha demand: %d %s", rec.Code, rec.Body.String())
	}
}
