package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/gomc/website/utils"
)

const limiterIdle = 5 * time.Minute

type visitor struct {
	limiter *rate.Limiter
	expires time.Time
}

// ipLimiter keeps one token bucket per client IP and forgets idle ones.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func newIPLimiter(perMinute int) *ipLimiter {
	perMinute = max(perMinute, 1)
	return &ipLimiter{
		visitors: map[string]*visitor{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if now.After(v.expires) {
			delete(l.visitors, key)
		}
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.expires = now.Add(limiterIdle)
	return v.limiter.AllowN(now, 1)
}

// RateLimit applies a per-IP token bucket of perMinute requests. Each call
// returns an independent limiter, so route groups do not share budgets.
func RateLimit(perMinute int) gin.HandlerFunc {
	l := newIPLimiter(perMinute)
	return func(ctx *gin.Context) {
		if !l.allow(ctx.ClientIP(), time.Now()) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
