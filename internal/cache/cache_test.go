package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int]()

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Set should replace: got %d, want 2", v)
	}

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestGetOrCreate(t *testing.T) {
	c := New[string, int]()

	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrCreate("k", create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if v != 42 || calls != 1 {
		t.Errorf("first call: v=%d calls=%d, want 42, 1", v, calls)
	}

	v, err = c.GetOrCreate("k", create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if v != 42 || calls != 1 {
		t.Errorf("second call should hit cache: v=%d calls=%d", v, calls)
	}
}

func TestGetOrCreateError(t *testing.T) {
	c := New[string, int]()

	wantErr := errors.New("device lost")
	_, err := c.GetOrCreate("k", func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("GetOrCreate error = %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Error("failed create must not store an entry")
	}

	// A later create that succeeds must run.
	v, err := c.GetOrCreate("k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("retry after failure: v=%d err=%v", v, err)
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Delete of existing key should return true")
	}
	if c.Delete("a") {
		t.Error("Delete of missing key should return false")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key should miss")
	}
}

func TestClearCallsDestroy(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1)
	c.Set("b", 2)

	destroyed := make(map[int]bool)
	c.Clear(func(v int) { destroyed[v] = true })

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if !destroyed[1] || !destroyed[2] {
		t.Errorf("destroy not called for all values: %v", destroyed)
	}

	// Clear with nil destroy must not panic.
	c.Set("c", 3)
	c.Clear(nil)
}

func TestStats(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1)

	c.Get("a")       // hit
	c.Get("a")       // hit
	c.Get("missing") // miss

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 2 hits, 1 miss", s)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("HitRate = %f, want ~2/3", s.HitRate)
	}

	c.ResetStats()
	s = c.Stats()
	if s.Hits != 0 || s.Misses != 0 {
		t.Errorf("Stats after reset = %+v, want zeros", s)
	}
}

func TestRange(t *testing.T) {
	c := New[int, string]()
	c.Set(1, "one")
	c.Set(2, "two")

	seen := make(map[int]string)
	c.Range(func(k int, v string) { seen[k] = v })

	if len(seen) != 2 || seen[1] != "one" || seen[2] != "two" {
		t.Errorf("Range saw %v", seen)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int]()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := i % 16
				c.GetOrCreate(key, func() (int, error) { return key * 10, nil })
				if v, ok := c.Get(key); ok && v != key*10 {
					t.Errorf("Get(%d) = %d, want %d", key, v, key*10)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != 16 {
		t.Errorf("Len = %d, want 16", c.Len())
	}
}
