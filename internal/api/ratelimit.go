package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Eviction bounds for the limiter map. Entries idle past the TTL are pruned
// whenever the map grows beyond the cap, keeping memory bounded without a
// background goroutine.
const (
	maxTrackedLimiters = 10000
	limiterIdleTTL     = time.Hour
)

// LimiterStore keeps one token-bucket limiter per (scope, identity) pair.
// It is injected into the middleware rather than living as package state, so
// a shared-cache implementation can replace it behind the same surface.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore creates an empty limiter store.
func NewLimiterStore() *LimiterStore {
	return &LimiterStore{limiters: make(map[string]*limiterEntry)}
}

// Allow reports whether one request for identity within scope fits the
// limit. Unknown pairs get a fresh limiter with a full bucket.
func (s *LimiterStore) Allow(scope, identity string, limit rate.Limit, burst int) bool {
	key := scope + "|" + identity

	s.mu.Lock()
	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{lim: rate.NewLimiter(limit, burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	if len(s.limiters) > maxTrackedLimiters {
		s.pruneLocked()
	}
	s.mu.Unlock()

	return entry.lim.Allow()
}

// pruneLocked drops limiters idle past the TTL. Caller holds mu.
func (s *LimiterStore) pruneLocked() {
	cutoff := time.Now().Add(-limiterIdleTTL)
	for key, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, key)
		}
	}
}
