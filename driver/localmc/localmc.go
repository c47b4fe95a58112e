// Package localmc implements driver.Conn on an in-process ristretto cache.
// It exists for tests and single-process deployments where a memcached
// cluster is not worth running; semantics follow the network drivers (add
// fails on existing keys, incr/decr are numeric-string arithmetic, expiry
// uses the memcached wire convention).
package localmc

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/softmc/driver"
)

// Wire expiries above this are absolute unix timestamps.
const relativeExpiryCap = 30 * 24 * 60 * 60

type entry struct {
	val      []byte
	flags    uint32
	expireAt time.Time // zero => never
}

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

type Conn struct {
	c *rc.Cache

	// serializes read-modify-write ops (Add, Incr, Decr, Touch); ristretto
	// has no conditional write of its own
	mu sync.Mutex
}

var _ driver.Conn = (*Conn)(nil)

func New(cfg Config) (*Conn, error) {
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 1e5
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 64 << 20
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, driver.AsClient("dial", err)
	}
	return &Conn{c: c}, nil
}

func (c *Conn) Add(ctx context.Context, key string, value []byte, flags uint32, expiry int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lookup(key); ok {
		return driver.ErrNotStored
	}
	c.store(key, value, flags, expiry)
	return nil
}

func (c *Conn) Set(_ context.Context, key string, value []byte, flags uint32, expiry int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, flags, expiry)
	return nil
}

func (c *Conn) Get(_ context.Context, key string) (driver.Item, error) {
	e, ok := c.lookup(key)
	if !ok {
		return driver.Item{}, driver.ErrCacheMiss
	}
	return driver.Item{Value: e.val, Flags: e.flags}, nil
}

func (c *Conn) GetMulti(ctx context.Context, keys []string) (map[string]driver.Item, error) {
	out := make(map[string]driver.Item, len(keys))
	for _, k := range keys {
		it, err := c.Get(ctx, k)
		if errors.Is(err, driver.ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[k] = it
	}
	return out, nil
}

func (c *Conn) Delete(_ context.Context, key string) error {
	if _, ok := c.lookup(key); !ok {
		return driver.ErrCacheMiss
	}
	c.c.Del(key)
	return nil
}

func (c *Conn) Incr(_ context.Context, key string, delta uint64) (uint64, error) {
	return c.arith(key, delta, false)
}

func (c *Conn) Decr(_ context.Context, key string, delta uint64) (uint64, error) {
	return c.arith(key, delta, true)
}

func (c *Conn) Touch(_ context.Context, key string, expiry int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		return driver.ErrCacheMiss
	}
	c.store(key, e.val, e.flags, expiry)
	return nil
}

func (c *Conn) Flush(_ context.Context) error {
	c.c.Clear()
	return nil
}

func (c *Conn) Close() error {
	c.c.Wait()
	c.c.Close()
	return nil
}

func (c *Conn) arith(key string, delta uint64, down bool) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		return 0, driver.ErrCacheMiss
	}
	n, err := strconv.ParseUint(string(e.val), 10, 64)
	if err != nil {
		return 0, driver.AsClient("incr", errors.New("localmc: value is not a number"))
	}
	if down {
		if delta > n {
			n = 0 // memcached floors decrement at zero
		} else {
			n -= delta
		}
	} else {
		n += delta
	}
	e.val = []byte(strconv.FormatUint(n, 10))
	c.put(key, e)
	return n, nil
}

func (c *Conn) store(key string, value []byte, flags uint32, expiry int32) {
	e := entry{val: value, flags: flags, expireAt: expireTime(expiry)}
	c.put(key, e)
}

func (c *Conn) put(key string, e entry) {
	var ttl time.Duration
	if !e.expireAt.IsZero() {
		ttl = time.Until(e.expireAt)
		if ttl <= 0 {
			c.c.Del(key)
			return
		}
		c.c.SetWithTTL(key, e, int64(len(e.val))+1, ttl)
	} else {
		c.c.Set(key, e, int64(len(e.val))+1)
	}
	// ristretto applies writes asynchronously; waiting keeps this driver
	// read-after-write consistent like its network siblings
	c.c.Wait()
}

func (c *Conn) lookup(key string) (entry, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return entry{}, false
	}
	e, ok := v.(entry)
	if !ok {
		c.c.Del(key)
		return entry{}, false
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		c.c.Del(key)
		return entry{}, false
	}
	return e, true
}

func expireTime(expiry int32) time.Time {
	switch {
	case expiry == 0:
		return time.Time{}
	case expiry > relativeExpiryCap:
		return time.Unix(int64(expiry), 0)
	default:
		return time.Now().Add(time.Duration(expiry) * time.Second)
	}
}
