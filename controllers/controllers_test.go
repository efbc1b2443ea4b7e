package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gomc/website/config"
	"github.com/gomc/website/middleware"
	"github.com/gomc/website/session"
	"github.com/gomc/website/testutil"
)

const adminToken = "6f1c3c1e-8a43-4a3f-9d55-0d3c1b8e7a21"

// stubAuth accepts adminToken and reports every other token as given.
type stubAuth struct {
	other session.Result
}

func (s stubAuth) Authenticate(_ context.Context, token string) session.Status {
	if token == adminToken {
		return session.Status{Result: session.SessionValid, LoginID: 1}
	}
	return session.Status{Result: s.other}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{FeedSize: 5})
	return gin.New(), testutil.OpenDB(t)
}

func adminGroup(r *gin.Engine) *gin.RouterGroup {
	return r.Group("/api/admin", middleware.SessionRequired(stubAuth{other: session.SessionInvalid}))
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if ct := rec.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}
