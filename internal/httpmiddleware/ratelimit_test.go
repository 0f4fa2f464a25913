package httpmiddleware

import (
	"testing"
	"time"
)

func TestTokenBucketExhaustion(t *testing.T) {
	l := NewTokenBucket(3, 3)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !l.allow("1.2.3.4|/v1/sessions/:id/checkins", now) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.allow("1.2.3.4|/v1/sessions/:id/checkins", now) {
		t.Fatal("fourth request should be limited")
	}
	// A different key (other client, or same client on another route)
	// has its own bucket.
	if !l.allow("5.6.7.8|/v1/sessions/:id/checkins", now) {
		t.Fatal("other client should be allowed")
	}
	if !l.allow("1.2.3.4|/v1/sessions", now) {
		t.Fatal("same client on another route should be allowed")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	// 60 per minute = one token per second.
	l := NewTokenBucket(2, 60)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if !l.allow("a", now) || !l.allow("a", now) {
		t.Fatal("initial capacity should allow two requests")
	}
	if l.allow("a", now) {
		t.Fatal("bucket should be empty")
	}
	// Half a second refills half a token; still not enough.
	if l.allow("a", now.Add(500*time.Millisecond)) {
		t.Fatal("half a token should not admit a request")
	}
	// The fraction carries over: by 1.5s total a full token is back.
	if !l.allow("a", now.Add(1500*time.Millisecond)) {
		t.Fatal("a full token should have refilled")
	}
}

func TestTokenBucketSweepsStaleClients(t *testing.T) {
	l := NewTokenBucket(1, 60)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	l.allow("old", now)
	// A new client arriving after the idle window triggers the sweep.
	l.allow("new", now.Add(staleAfter+time.Minute))

	l.mu.Lock()
	_, oldKept := l.buckets["old"]
	_, newKept := l.buckets["new"]
	l.mu.Unlock()
	if oldKept {
		t.Fatal("stale bucket should have been evicted")
	}
	if !newKept {
		t.Fatal("active bucket should remain")
	}
}

func TestTokenBucketDefaultCapacity(t *testing.T) {
	l := NewTokenBucket(0, 10)
	if l.capacity != 10 {
		t.Fatalf("capacity = %v, want fallback to rate", l.capacity)
	}
}
