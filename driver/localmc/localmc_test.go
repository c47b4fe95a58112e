package localmc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/softmc/driver"
)

func newConn(t *testing.T) *Conn {
	t.Helper()
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAddSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := newConn(t)

	if err := c.Add(ctx, "k", []byte("v"), 7, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(ctx, "k", []byte("v2"), 0, 0); !errors.Is(err, driver.ErrNotStored) {
		t.Fatalf("Add existing: want ErrNotStored, got %v", err)
	}
	it, err := c.Get(ctx, "k")
	if err != nil || string(it.Value) != "v" || it.Flags != 7 {
		t.Fatalf("Get: it=%+v err=%v", it, err)
	}

	if err := c.Set(ctx, "k", []byte("v3"), 0, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if it, _ = c.Get(ctx, "k"); string(it.Value) != "v3" {
		t.Fatalf("Get after set: %q", it.Value)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); !errors.Is(err, driver.ErrCacheMiss) {
		t.Fatalf("Delete absent: want ErrCacheMiss, got %v", err)
	}
}

func TestExpiryIsHonored(t *testing.T) {
	ctx := context.Background()
	c := newConn(t)

	if err := c.Set(ctx, "k", []byte("v"), 0, 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, driver.ErrCacheMiss) {
		t.Fatalf("Get after expiry: want miss, got %v", err)
	}

	// expiry 0 never expires
	if err := c.Set(ctx, "forever", []byte("v"), 0, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := c.Get(ctx, "forever"); err != nil {
		t.Fatalf("zero expiry must not expire: %v", err)
	}
}

func TestIncrDecr(t *testing.T) {
	ctx := context.Background()
	c := newConn(t)

	if _, err := c.Incr(ctx, "n", 1); !errors.Is(err, driver.ErrCacheMiss) {
		t.Fatalf("Incr absent: want miss, got %v", err)
	}
	if err := c.Set(ctx, "n", []byte("10"), 0, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if n, err := c.Incr(ctx, "n", 5); err != nil || n != 15 {
		t.Fatalf("Incr: n=%d err=%v", n, err)
	}
	if n, err := c.Decr(ctx, "n", 100); err != nil || n != 0 {
		t.Fatalf("Decr floors at zero: n=%d err=%v", n, err)
	}

	if err := c.Set(ctx, "s", []byte("nope"), 0, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Incr(ctx, "s", 1); !driver.Contained(err) {
		t.Fatalf("Incr on non-number: want contained fault, got %v", err)
	}
}

func TestTouchAndFlush(t *testing.T) {
	ctx := context.Background()
	c := newConn(t)

	if err := c.Touch(ctx, "k", 60); !errors.Is(err, driver.ErrCacheMiss) {
		t.Fatalf("Touch absent: want miss, got %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 3, 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Touch(ctx, "k", 3600); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	it, err := c.Get(ctx, "k")
	if err != nil || it.Flags != 3 {
		t.Fatalf("touched entry should outlive original ttl: it=%+v err=%v", it, err)
	}

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, driver.ErrCacheMiss) {
		t.Fatalf("Get after flush: want miss, got %v", err)
	}
}

func TestGetMulti(t *testing.T) {
	ctx := context.Background()
	c := newConn(t)

	for _, k := range []string{"a", "c"} {
		if err := c.Set(ctx, k, []byte("v-"+k), 0, 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	got, err := c.GetMulti(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetMulti: %v", err)
	}
	if len(got) != 2 || string(got["a"].Value) != "v-a" || string(got["c"].Value) != "v-c" {
		t.Fatalf("want exactly a and c, got %v", got)
	}
}
