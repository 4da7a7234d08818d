package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window request limiter keyed by an arbitrary string,
// typically a client IP.
type Limiter struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	window  time.Duration
	maxHits int
}

func NewLimiter(window time.Duration, maxHits int) *Limiter {
	return &Limiter{
		hits:    make(map[string][]time.Time),
		window:  window,
		maxHits: maxHits,
	}
}

// Allow records a hit for key and reports whether it stays within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	recent := prune(l.hits[key], now.Add(-l.window))

	if len(recent) >= l.maxHits {
		l.hits[key] = recent
		return false
	}

	l.hits[key] = append(recent, now)
	return true
}

// Forget drops all recorded hits for key.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	valid := hits[:0]
	for _, hit := range hits {
		if hit.After(cutoff) {
			valid = append(valid, hit)
		}
	}
	return valid
}
