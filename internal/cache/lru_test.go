package cache

import (
	"context"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLRU(size int, ttl time.Duration) (*LRU[string, int], *clock) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[string, int](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	for key, want := range map[string]int{"a": 1, "c": 3} {
		if got, ok := c.Get(key); !ok || got != want {
			t.Fatalf("Get(%q) = %d, %v", key, got, ok)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d", c.Len())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestLRU(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", 20)
	clk.t = clk.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if got, ok := c.Get("b"); !ok || got != 20 {
		t.Fatalf("Get(b) = %d, %v", got, ok)
	}

	clk.t = clk.t.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d", c.Len())
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	c, clk := newTestLRU(1, 0)
	c.Set("a", 1)
	clk.t = clk.t.Add(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry without ttl should not expire")
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c, _ := newTestLRU(5, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be gone")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len() after Purge = %d", c.Len())
	}
	c.Set("c", 3)
	if got, ok := c.Get("c"); !ok || got != 3 {
		t.Fatal("cache should be usable after Purge")
	}
}

func TestJanitorSweep(t *testing.T) {
	c, clk := newTestLRU(5, time.Second)
	c.Set("a", 1)
	j := NewJanitor(nil)
	j.Register(c)

	clk.t = clk.t.Add(time.Minute)
	if n := j.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- j.Run(ctx, time.Millisecond) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
