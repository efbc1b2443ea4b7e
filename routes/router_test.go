package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gomc/website/config"
	"github.com/gomc/website/testutil"
	"github.com/gomc/website/utils"
)

func newTestRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.json"), envconfig.MapLookuper(nil))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	cfg.GinMode = "test"
	cfg.GinPath = ""
	config.Set(cfg)

	core, logs := observer.New(zapcore.InfoLevel)
	prev, prevSugar := utils.Logger, utils.Sugar
	utils.Logger = zap.New(core)
	utils.Sugar = utils.Logger.Sugar()
	t.Cleanup(func() { utils.Logger, utils.Sugar = prev, prevSugar })

	return SetupRouter(NewServices(testutil.OpenDB(t), cfg, zap.NewNop())), logs
}

func TestRequestsAreLoggedWithoutGinPath(t *testing.T) {
	r, logs := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if n := logs.FilterField(zap.String("path", "/health")).Len(); n != 1 {
		t.Fatalf("access log entries for /health = %d, want 1", n)
	}
}

func TestPanicAnswersWithEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body utils.JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != 50000 {
		t.Fatalf("code = %d, want 50000", body.Code)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	var body utils.JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusNotFound || body.Code != 40400 {
		t.Fatalf("status = %d code = %d", w.Code, body.Code)
	}
}
