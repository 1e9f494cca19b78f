package insights

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
}

func TestCache_EmptyIsInvalid(t *testing.T) {
	c := NewCache(time.Hour)
	if c.Valid("abc") {
		t.Fatalf("empty cache must not be valid")
	}
	if _, ok := c.Snapshot(); ok {
		t.Fatalf("empty cache must have no snapshot")
	}
}

func TestCache_TTLBoundary(t *testing.T) {
	clock := &manualClock{now: fixedNow()}
	c := NewCache(time.Hour, WithClock(clock.Now))
	c.Put(CacheEntry{Fingerprint: "fp", GeneratedAt: clock.Now()})

	clock.Advance(time.Hour)
	if _, ok := c.Get("fp"); !ok {
		t.Fatalf("entry aged exactly the window must still be valid")
	}

	clock.Advance(time.Millisecond)
	if _, ok := c.Get("fp"); ok {
		t.Fatalf("entry older than the window must be invalid")
	}
}

func TestCache_FingerprintMismatch(t *testing.T) {
	clock := &manualClock{now: fixedNow()}
	c := NewCache(time.Hour, WithClock(clock.Now))
	c.Put(CacheEntry{Fingerprint: "fp"})

	if c.Valid("other") {
		t.Fatalf("mismatched fingerprint must be invalid")
	}
	if !c.Valid("fp") {
		t.Fatalf("matching fingerprint within the window must be valid")
	}
}

func TestCache_PutReplacesAndStampsCachedAt(t *testing.T) {
	clock := &manualClock{now: fixedNow()}
	c := NewCache(time.Hour, WithClock(clock.Now))
	c.Put(CacheEntry{Fingerprint: "first"})
	clock.Advance(10 * time.Minute)
	c.Put(CacheEntry{Fingerprint: "second"})

	entry, ok := c.Snapshot()
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if entry.Fingerprint != "second" {
		t.Fatalf("expected the later entry, got %s", entry.Fingerprint)
	}
	if !entry.CachedAt.Equal(clock.Now()) {
		t.Fatalf("expected CachedAt %v, got %v", clock.Now(), entry.CachedAt)
	}
	if c.Valid("first") {
		t.Fatalf("replaced entry must not be served")
	}
}
