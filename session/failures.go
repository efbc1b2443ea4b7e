package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FailureCounter counts failed logins per email inside a sliding window.
type FailureCounter interface {
	Failures(ctx context.Context, email string) int
	Record(ctx context.Context, email string) int
	Reset(ctx context.Context, email string)
}

// NewFailureCounter uses Redis when rc is non-nil and process memory otherwise.
func NewFailureCounter(rc *redis.Client, window time.Duration) FailureCounter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if rc != nil {
		return &redisFailures{rc: rc, window: window}
	}
	return &memoryFailures{window: window, entries: map[string]failureEntry{}, now: time.Now}
}

func failureKey(email string) string {
	return "login:fail:" + strings.ToLower(email)
}

type redisFailures struct {
	rc     *redis.Client
	window time.Duration
}

func (r *redisFailures) Failures(ctx context.Context, email string) int {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := r.rc.Get(ctx, failureKey(email)).Int()
	if err != nil {
		return 0
	}
	return n
}

func (r *redisFailures) Record(ctx context.Context, email string) int {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	key := failureKey(email)
	n, err := r.rc.Incr(ctx, key).Result()
	if err != nil {
		return 0
	}
	_ = r.rc.Expire(ctx, key, r.window).Err()
	return int(n)
}

func (r *redisFailures) Reset(ctx context.Context, email string) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = r.rc.Del(ctx, failureKey(email)).Err()
}

type failureEntry struct {
	count   int
	expires time.Time
}

type memoryFailures struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]failureEntry
	now     func() time.Time
}

func (m *memoryFailures) Failures(_ context.Context, email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[failureKey(email)]
	if !ok || m.now().After(e.expires) {
		return 0
	}
	return e.count
}

func (m *memoryFailures) Record(_ context.Context, email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
		}
	}
	key := failureKey(email)
	e := m.entries[key]
	e.count++
	e.expires = now.Add(m.window)
	m.entries[key] = e
	return e.count
}

func (m *memoryFailures) Reset(_ context.Context, email string) {
	m.mu.Lock()
	delete(m.entries, failureKey(email))
	m.mu.Unlock()
}
