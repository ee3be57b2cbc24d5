package api

import (
	"fmt"
	"testing"

	"golang.org/x/time/rate"
)

// TestLimiterStore_BurstThenDeny allows a full burst and denies the request
// after it, for a limit too slow to refill within the test.
func TestLimiterStore_BurstThenDeny(t *testing.T) {
	store := NewLimiterStore()
	limit := rate.Limit(1.0 / 3600.0)

	for i := 0; i < 2; i++ {
		if !store.Allow("upload", "user-1", limit, 2) {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
	if store.Allow("upload", "user-1", limit, 2) {
		t.Fatalf("request past burst allowed, want denied")
	}
}

// TestLimiterStore_ScopesAreIndependent confirms the same identity has a
// separate bucket per scope.
func TestLimiterStore_ScopesAreIndependent(t *testing.T) {
	store := NewLimiterStore()
	limit := rate.Limit(1.0 / 3600.0)

	if !store.Allow("upload", "user-1", limit, 1) {
		t.Fatalf("first upload denied, want allowed")
	}
	if store.Allow("upload", "user-1", limit, 1) {
		t.Fatalf("second upload allowed, want denied")
	}
	if !store.Allow("list", "user-1", limit, 1) {
		t.Fatalf("list denied, want its own bucket")
	}
}

// TestLimiterStore_IdentitiesAreIndependent confirms one identity exhausting
// its bucket never affects another.
func TestLimiterStore_IdentitiesAreIndependent(t *testing.T) {
	store := NewLimiterStore()
	limit := rate.Limit(1.0 / 3600.0)

	if !store.Allow("upload", "user-1", limit, 1) {
		t.Fatalf("user-1 denied, want allowed")
	}
	if !store.Allow("upload", "user-2", limit, 1) {
		t.Fatalf("user-2 denied, want allowed")
	}
}

// TestLimiterStore_PrunesIdleEntries checks the map stays bounded: pushing
// past the cap triggers eviction of idle entries.
func TestLimiterStore_PrunesIdleEntries(t *testing.T) {
	store := NewLimiterStore()
	limit := rate.Limit(1)

	for i := 0; i <= maxTrackedLimiters; i++ {
		store.Allow("probe", fmt.Sprintf("ip-%d", i), limit, 1)
	}

	store.mu.Lock()
	n := len(store.limiters)
	store.mu.Unlock()
	if n > maxTrackedLimiters+1 {
		t.Fatalf("limiter map grew to %d entries", n)
	}
}
