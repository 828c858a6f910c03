package service

import (
	"testing"
	"time"

	"postdeck/internal/config"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Window: "60s", Limit: 10})
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		allowed, remaining := rl.Admit("10.0.0.1")
		if !allowed {
			t.Fatalf("call %d: expected allowed", i+1)
		}
		if want := 9 - i; remaining != want {
			t.Fatalf("call %d: expected remaining %d, got %d", i+1, want, remaining)
		}
		now = now.Add(time.Second)
	}

	allowed, remaining := rl.Admit("10.0.0.1")
	if allowed || remaining != 0 {
		t.Fatalf("11th call: expected denied with remaining 0, got allowed=%v remaining=%d", allowed, remaining)
	}

	// Another client is unaffected
	if allowed, _ := rl.Admit("10.0.0.2"); !allowed {
		t.Fatalf("independent client should be admitted")
	}

	// Once the window slides past the early hits, admission resumes
	now = now.Add(61 * time.Second)
	allowed, remaining = rl.Admit("10.0.0.1")
	if !allowed {
		t.Fatalf("expected admission after window elapsed")
	}
	if remaining != 9 {
		t.Fatalf("expected remaining 9 after reset, got %d", remaining)
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Window: "not-a-duration"})
	if rl.window != 60*time.Second {
		t.Fatalf("expected 60s default window, got %v", rl.window)
	}
	if rl.limit != 10 {
		t.Fatalf("expected default limit 10, got %d", rl.limit)
	}
}
