package keyring

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// attemptLimiter throttles unlock attempts per user id. The KDF already
// makes guessing expensive; this bounds how fast an attacker with the
// device can burn through a password list anyway.
type attemptLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	entries map[string]*limEntry
}

type limEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newAttemptLimiter(limit rate.Limit, burst int, ttl time.Duration) *attemptLimiter {
	return &attemptLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*limEntry),
	}
}

func (a *attemptLimiter) allow(key string) bool {
	now := time.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.entries[key]
	if e == nil {
		e = &limEntry{lim: rate.NewLimiter(a.limit, a.burst), lastSeen: now}
		a.entries[key] = e
	}
	e.lastSeen = now

	for k, v := range a.entries {
		if now.Sub(v.lastSeen) > a.ttl {
			delete(a.entries, k)
		}
	}
	return e.lim.Allow()
}
