package cachedb

import (
	"fmt"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put(NSContent, "intro", "# Intro"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	value, _, ok := s.Get(NSContent, "intro")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if value != "# Intro" {
		t.Errorf("got %q, want %q", value, "# Intro")
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, _, ok := s.Get(NSContent, "nope"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	s.Put(NSPref, "theme", "light")
	s.Put(NSPref, "theme", "dark")
	value, _, ok := s.Get(NSPref, "theme")
	if !ok || value != "dark" {
		t.Errorf("got %q/%v, want dark hit", value, ok)
	}
}

func TestGetFreshTTLBoundary(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s.SetClock(func() time.Time { return current })

	if err := s.Put(NSIndex, IndexKey, `[{"path":"a/intro.md"}]`); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ttl := 10 * time.Minute

	// Just inside the TTL: hit.
	current = base.Add(ttl - time.Millisecond)
	if _, ok := s.GetFresh(NSIndex, IndexKey, ttl); !ok {
		t.Error("expected hit at T+TTL-1ms")
	}

	// Just past the TTL: miss.
	current = base.Add(ttl + time.Millisecond)
	if _, ok := s.GetFresh(NSIndex, IndexKey, ttl); ok {
		t.Error("expected miss at T+TTL+1ms")
	}
}

func TestGetFreshZeroTTLNeverHits(t *testing.T) {
	s := newTestStore(t)
	s.Put(NSIndex, IndexKey, "data")
	if _, ok := s.GetFresh(NSIndex, IndexKey, 0); ok {
		t.Error("zero TTL must never return a hit")
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	s.Put(NSPref, "token", "abc")
	if err := s.Delete(NSPref, "token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, _, ok := s.Get(NSPref, "token"); ok {
		t.Error("expected miss after delete")
	}
	// Deleting again is not an error.
	if err := s.Delete(NSPref, "token"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestTrimEvictsLRU(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s.SetClock(func() time.Time { return current })

	for i := 0; i < 5; i++ {
		current = current.Add(time.Second)
		if err := s.Put(NSContent, fmt.Sprintf("doc-%d", i), "body"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// Touch doc-0 so it becomes the most recently used.
	current = current.Add(time.Second)
	s.Get(NSContent, "doc-0")

	if err := s.Trim(NSContent, 3); err != nil {
		t.Fatalf("Trim failed: %v", err)
	}

	n, err := s.Count(NSContent)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d entries after trim, want 3", n)
	}

	// doc-0 survived the trim because it was touched last.
	if _, _, ok := s.Get(NSContent, "doc-0"); !ok {
		t.Error("recently used entry was evicted")
	}
	// doc-1 was the least recently used survivor candidate and is gone.
	if _, _, ok := s.Get(NSContent, "doc-1"); ok {
		t.Error("least recently used entry survived trim")
	}
}

func TestTrimOtherNamespaceUntouched(t *testing.T) {
	s := newTestStore(t)
	s.Put(NSIndex, IndexKey, "index")
	for i := 0; i < 4; i++ {
		s.Put(NSContent, fmt.Sprintf("doc-%d", i), "body")
	}
	s.Trim(NSContent, 1)
	if _, _, ok := s.Get(NSIndex, IndexKey); !ok {
		t.Error("trim of content namespace removed index entry")
	}
}
