package service

import (
	"sync"
	"time"

	"postdeck/internal/config"
)

// RateLimiter is a process-local sliding-window admission gate keyed by
// client address. Timestamps older than the window are discarded on every
// call rather than reset in fixed buckets. Single-instance deployments only.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	window, err := time.ParseDuration(cfg.Window)
	if err != nil || window <= 0 {
		window = 60 * time.Second
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}

	return &RateLimiter{
		window: window,
		limit:  limit,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Admit records one request for key and reports whether it fits in the
// current window, along with the remaining quota.
func (r *RateLimiter) Admit(key string) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	kept := r.hits[key][:0]
	for _, t := range r.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= r.limit {
		r.hits[key] = kept
		return false, 0
	}

	kept = append(kept, now)
	r.hits[key] = kept
	return true, r.limit - len(kept)
}
