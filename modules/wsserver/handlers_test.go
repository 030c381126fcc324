package wsserver

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	limiter := newRateLimiter(5, 1)

	for i := range 5 {
		if !limiter.allow() {
			t.Fatalf("allow() = false on request %d within burst", i+1)
		}
	}

	if limiter.allow() {
		t.Error("allow() = true after the bucket is drained")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	limiter := newRateLimiter(2, 10)
	limiter.allow()
	limiter.allow()

	if limiter.allow() {
		t.Fatal("allow() = true on drained bucket")
	}

	// Pretend a second passed: 10 tokens refill, capped at maxTokens.
	limiter.mu.Lock()
	limiter.lastRefill = time.Now().Add(-time.Second)
	limiter.mu.Unlock()

	if !limiter.allow() {
		t.Error("allow() = false after refill window elapsed")
	}
	if !limiter.allow() {
		t.Error("allow() = false on second token after refill")
	}
	if limiter.allow() {
		t.Error("allow() = true beyond the bucket cap")
	}
}
