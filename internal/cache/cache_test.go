package cache

import (
	"testing"
	"time"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{FrameCacheSizeMB: 8, FrameTTL: time.Minute, QueryCacheSize: 2})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestFrameKey(t *testing.T) {
	if got := FrameKey("abc", 7); got != "frame:abc:7" {
		t.Fatalf("unexpected key %q", got)
	}
	if FrameKey("abc", 7) == FrameKey("abc", 8) {
		t.Fatal("versions must not share a key")
	}
}

func TestHitKey_RoundsToPixels(t *testing.T) {
	a := HitKey("s", 1, 10.2, 20.4)
	b := HitKey("s", 1, 9.8, 19.6)
	if a != b {
		t.Fatalf("expected equal keys, got %q vs %q", a, b)
	}
	if a == HitKey("s", 2, 10, 20) {
		t.Fatal("expected the version to be part of the key")
	}
}

func TestFrames(t *testing.T) {
	m := newManager(t)
	key := FrameKey("s", 1)

	if _, ok := m.GetFrame(key); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	if err := m.SetFrame(key, []byte("png")); err != nil {
		t.Fatalf("SetFrame failed: %v", err)
	}
	got, ok := m.GetFrame(key)
	if !ok || string(got) != "png" {
		t.Fatalf("expected cached frame, got %q ok=%v", got, ok)
	}
	if err := m.DropFrame(key); err != nil {
		t.Fatalf("DropFrame failed: %v", err)
	}
	if _, ok := m.GetFrame(key); ok {
		t.Fatal("frame still cached after drop")
	}
	if err := m.DropFrame(key); err != nil {
		t.Fatalf("dropping a missing frame should succeed, got %v", err)
	}
}

func TestQueries_Evict(t *testing.T) {
	m := newManager(t)
	m.SetQuery("a", []int{1})
	m.SetQuery("b", []int{2})
	m.SetQuery("c", []int{3})

	if _, ok := m.GetQuery("a"); ok {
		t.Error("expected the oldest query to be evicted")
	}
	if got, ok := m.GetQuery("c"); !ok || got[0] != 3 {
		t.Errorf("unexpected query result %v ok=%v", got, ok)
	}
	if n := m.Stats()["query_cache_len"]; n != 2 {
		t.Errorf("expected 2 cached queries, got %v", n)
	}
}
