package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/session"
)

type fakeAuth map[string]session.Status

func (f fakeAuth) Authenticate(_ context.Context, token string) session.Status {
	if st, ok := f[token]; ok {
		return st
	}
	return session.Status{Result: session.SessionInvalid}
}

func newSessionRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", SessionRequired(auth), func(c *gin.Context) {
		id, _ := LoginID(c)
		c.JSON(http.StatusOK, gin.H{"login_id": id})
	})
	return r
}

func TestSessionRequired(t *testing.T) {
	auth := fakeAuth{
		"good":    {Result: session.SessionValid, LoginID: 9},
		"expired": {Result: session.SessionExpired},
	}
	r := newSessionRouter(auth)

	cases := []struct {
		name       string
		cookie     string
		wantStatus int
		wantCode   int
		wantResult string
	}{
		{"no cookie", "", http.StatusUnauthorized, 40110, "SessionInvalid"},
		{"unknown", "nope", http.StatusUnauthorized, 40110, "SessionInvalid"},
		{"expired", "expired", http.StatusUnauthorized, 40111, "SessionExpired"},
		{"valid", "good", http.StatusOK, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK {
				var body struct {
					LoginID uint `json:"login_id"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.LoginID != 9 {
					t.Fatalf("body = %s, err %v", rec.Body.String(), err)
				}
				return
			}
			var body struct {
				Code int `json:"code"`
				Data struct {
					AuthResult string `json:"auth_result"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tc.wantCode || body.Data.AuthResult != tc.wantResult {
				t.Fatalf("body = %s", rec.Body.String())
			}
		})
	}
}
