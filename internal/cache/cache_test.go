package cache

import (
	"testing"
	"time"
)

func TestCache_Expiry(t *testing.T) {
	c := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", "summary", time.Hour)
	if v, ok := c.GetString("a"); !ok || v != "summary" {
		t.Fatalf("GetString = %q, %v", v, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("a"); ok {
		t.Errorf("expired item still returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired item not evicted on read")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("short", 1, time.Minute)
	c.Set("long", 2, time.Hour)
	now = now.Add(10 * time.Minute)
	c.cleanup()

	if c.Len() != 1 {
		t.Errorf("expected one item after cleanup, got %d", c.Len())
	}
	if _, ok := c.GetString("long"); ok {
		t.Errorf("non-string value must not be returned by GetString")
	}
}

func TestGenerateKey(t *testing.T) {
	if GenerateKey("ab", "c") == GenerateKey("a", "bc") {
		t.Errorf("key parts must be separated")
	}
	if GenerateKey("x") != GenerateKey("x") {
		t.Errorf("keys must be stable")
	}
}
