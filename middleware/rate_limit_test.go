package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIPLimiterBurstAndRefill(t *testing.T) {
	l := newIPLimiter(60) // one per second, burst 30
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		if !l.allow("1.2.3.4", now) {
			t.Fatalf("request %d rejected inside burst", i)
		}
	}
	if l.allow("1.2.3.4", now) {
		t.Fatalf("request beyond burst allowed")
	}
	if !l.allow("5.6.7.8", now) {
		t.Fatalf("other IP must have its own bucket")
	}
	if !l.allow("1.2.3.4", now.Add(time.Second)) {
		t.Fatalf("bucket did not refill")
	}
}

func TestIPLimiterForgetsIdleVisitors(t *testing.T) {
	l := newIPLimiter(10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.allow("1.2.3.4", now)
	l.allow("5.6.7.8", now.Add(limiterIdle+time.Second))
	if _, ok := l.visitors["1.2.3.4"]; ok {
		t.Fatalf("idle visitor was not removed")
	}
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}
