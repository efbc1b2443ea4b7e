package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryFailuresExpire(t *testing.T) {
	now := fixedNow
	c := &memoryFailures{window: time.Minute, entries: map[string]failureEntry{}, now: func() time.Time { return now }}
	ctx := context.Background()

	c.Record(ctx, "A@x.org")
	if n := c.Record(ctx, "a@x.org"); n != 2 {
		t.Fatalf("count = %d, want 2 (emails are case-insensitive)", n)
	}
	now = now.Add(2 * time.Minute)
	if n := c.Failures(ctx, "a@x.org"); n != 0 {
		t.Fatalf("count after window = %d, want 0", n)
	}
}
