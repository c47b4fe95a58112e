package softmc

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	co "github.com/unkn0wn-root/softmc/codec"
	"github.com/unkn0wn-root/softmc/driver"
)

const defaultLifetime = 5 * time.Minute

type cache[V any] struct {
	cfg        Config
	codec      co.Codec[V]
	keys       Keys
	version    int
	log        Logger
	hooks      Hooks
	defaultTTL time.Duration
	dial       DialFunc
	now        func() time.Time

	// adapter-wide slot for contexts without a session
	shared session
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	cfg := opts.Config
	if len(cfg.Servers) == 0 {
		return nil, &ConfigError{Reason: "no servers"}
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return nil, &ConfigError{Reason: "partial credentials: set both username and password or neither"}
	}
	if cfg.Username != "" && !cfg.Binary {
		return nil, &ConfigError{Reason: "credentials require the binary protocol (set Binary)"}
	}
	if cfg.MinCompressLen < 0 {
		return nil, &ConfigError{Reason: "negative MinCompressLen"}
	}

	c := &cache[V]{
		cfg:     cfg,
		version: opts.Version,
		now:     time.Now,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, defaultLifetime)
	if c.version == 0 {
		c.version = 1
	}
	if opts.Codec != nil {
		c.codec = opts.Codec
	} else {
		c.codec = co.JSON[V]{}
	}
	if opts.Keys != nil {
		c.keys = opts.Keys
	} else {
		c.keys = PrefixKeys{}
	}
	if opts.Dial != nil {
		c.dial = opts.Dial
	} else {
		c.dial = dialConfig
	}

	return c, nil
}

// contain is the single error-containment point. Recognized cache-layer
// faults are logged once with operation context and swallowed so the caller
// can return its safe default; everything else passes through unchanged.
// size < 0 means "no payload" (reads).
func (c *cache[V]) contain(op, key string, size int, err error) error {
	if err == nil || !driver.Contained(err) {
		return err
	}
	f := Fields{"op": op, "err": err}
	if key != "" {
		f["key"] = key
	}
	if size >= 0 {
		f["bytes"] = size
	}
	c.log.Error("memcached fault contained", f)
	c.hooks.FaultContained(op, key, err)
	return nil
}

func (c *cache[V]) expiry(ttl time.Duration) (int32, error) {
	return normalizeExpiry(ttl, c.defaultTTL, c.now)
}

// encode serializes and optionally compresses a value for storage.
func (c *cache[V]) encode(key string, v V) ([]byte, uint32, error) {
	payload, err := c.codec.Encode(v)
	if err != nil {
		return nil, 0, err
	}
	payload, flags := c.maybeCompress(key, payload)
	return payload, flags, nil
}

// decode reverses encode. A payload that cannot be decompressed or decoded
// is deleted (self-heal) and reported as a miss rather than an error.
func (c *cache[V]) decode(ctx context.Context, conn driver.Conn, key string, it driver.Item) (V, bool) {
	var zero V
	payload := it.Value
	if it.Flags&flagCompressed != 0 {
		var err error
		payload, err = decompress(payload)
		if err != nil {
			_ = conn.Delete(ctx, key)
			c.hooks.SelfHealDropped(key, "decompress")
			return zero, false
		}
	}
	v, err := c.codec.Decode(payload)
	if err != nil {
		_ = conn.Delete(ctx, key)
		c.hooks.SelfHealDropped(key, "value_decode")
		return zero, false
	}
	return v, true
}

func (c *cache[V]) Add(ctx context.Context, key string, value V, ttl time.Duration) (bool, error) {
	k, err := c.wireKey(key)
	if err != nil {
		return false, err
	}
	exp, err := c.expiry(ttl)
	if err != nil {
		return false, err
	}
	payload, flags, err := c.encode(k, value)
	if err != nil {
		return false, err
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return false, c.contain("add", k, len(payload), err)
	}
	err = conn.Add(ctx, k, payload, flags, exp)
	if errors.Is(err, driver.ErrNotStored) {
		return false, nil // key already present
	}
	if err != nil {
		return false, c.contain("add", k, len(payload), err)
	}
	return true, nil
}

func (c *cache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error) {
	k, err := c.wireKey(key)
	if err != nil {
		return false, err
	}
	exp, err := c.expiry(ttl)
	if err != nil {
		return false, err
	}
	payload, flags, err := c.encode(k, value)
	if err != nil {
		return false, err
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return false, c.contain("set", k, len(payload), err)
	}
	if err := conn.Set(ctx, k, payload, flags, exp); err != nil {
		return false, c.contain("set", k, len(payload), err)
	}
	return true, nil
}

func (c *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	k, err := c.wireKey(key)
	if err != nil {
		return zero, false, err
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return zero, false, c.contain("get", k, -1, err)
	}
	it, err := conn.Get(ctx, k)
	if errors.Is(err, driver.ErrCacheMiss) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, c.contain("get", k, -1, err)
	}
	v, ok := c.decode(ctx, conn, k, it)
	return v, ok, nil
}

func (c *cache[V]) Delete(ctx context.Context, key string) (bool, error) {
	k, err := c.wireKey(key)
	if err != nil {
		return false, err
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return false, c.contain("delete", k, -1, err)
	}
	err = conn.Delete(ctx, k)
	if errors.Is(err, driver.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, c.contain("delete", k, -1, err)
	}
	return true, nil
}

func (c *cache[V]) GetMulti(ctx context.Context, keys []string) (map[string]V, error) {
	out := make(map[string]V, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	wire := make([]string, len(keys))
	logical := make(map[string]string, len(keys)) // wire key -> caller key
	for i, key := range keys {
		k, err := c.wireKey(key)
		if err != nil {
			return nil, err
		}
		wire[i] = k
		logical[k] = key
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return out, c.contain("get_multi", "", -1, err)
	}
	found, err := conn.GetMulti(ctx, wire)
	if err != nil {
		return out, c.contain("get_multi", "", -1, err)
	}
	for k, it := range found {
		if v, ok := c.decode(ctx, conn, k, it); ok {
			out[logical[k]] = v
		}
	}
	return out, nil
}

func (c *cache[V]) SetMulti(ctx context.Context, items map[string]V, ttl time.Duration) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	exp, err := c.expiry(ttl)
	if err != nil {
		return nil, err
	}

	// deterministic write order for stable logs and tests
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conn, err := c.conn(ctx)
	if err != nil {
		return keys, c.contain("set_multi", "", -1, err)
	}

	var failed []string
	var faults *multierror.Error
	for _, key := range keys {
		k, err := c.wireKey(key)
		if err != nil {
			return nil, err
		}
		payload, flags, err := c.encode(k, items[key])
		if err != nil {
			return nil, err
		}
		if err := conn.Set(ctx, k, payload, flags, exp); err != nil {
			if !driver.Contained(err) {
				return nil, err
			}
			failed = append(failed, key)
			faults = multierror.Append(faults, err)
		}
	}
	if faults != nil {
		c.log.Error("memcached fault contained", Fields{
			"op":     "set_multi",
			"failed": len(failed),
			"err":    faults.ErrorOrNil(),
		})
		c.hooks.FaultContained("set_multi", "", faults.ErrorOrNil())
	}
	return failed, nil
}

func (c *cache[V]) DeleteMulti(ctx context.Context, keys []string) (bool, error) {
	if len(keys) == 0 {
		return true, nil
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return false, c.contain("delete_multi", "", -1, err)
	}
	all := true
	var faults *multierror.Error
	for _, key := range keys {
		k, err := c.wireKey(key)
		if err != nil {
			return false, err
		}
		err = conn.Delete(ctx, k)
		switch {
		case err == nil:
		case errors.Is(err, driver.ErrCacheMiss):
			all = false
		case driver.Contained(err):
			all = false
			faults = multierror.Append(faults, err)
		default:
			return false, err
		}
	}
	if faults != nil {
		c.log.Error("memcached fault contained", Fields{
			"op":  "delete_multi",
			"err": faults.ErrorOrNil(),
		})
		c.hooks.FaultContained("delete_multi", "", faults.ErrorOrNil())
	}
	return all, nil
}

func (c *cache[V]) Touch(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	k, err := c.wireKey(key)
	if err != nil {
		return false, err
	}
	exp, err := c.expiry(ttl)
	if err != nil {
		return false, err
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return false, c.contain("touch", k, -1, err)
	}
	err = conn.Touch(ctx, k, exp)
	if errors.Is(err, driver.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, c.contain("touch", k, -1, err)
	}
	return true, nil
}

func (c *cache[V]) Incr(ctx context.Context, key string, delta uint64) (uint64, bool, error) {
	return c.arith(ctx, "incr", key, delta)
}

func (c *cache[V]) Decr(ctx context.Context, key string, delta uint64) (uint64, bool, error) {
	return c.arith(ctx, "decr", key, delta)
}

func (c *cache[V]) arith(ctx context.Context, op, key string, delta uint64) (uint64, bool, error) {
	k, err := c.wireKey(key)
	if err != nil {
		return 0, false, err
	}
	conn, err := c.conn(ctx)
	if err != nil {
		return 0, false, c.contain(op, k, -1, err)
	}
	var n uint64
	if op == "incr" {
		n, err = conn.Incr(ctx, k, delta)
	} else {
		n, err = conn.Decr(ctx, k, delta)
	}
	if errors.Is(err, driver.ErrCacheMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, c.contain(op, k, -1, err)
	}
	return n, true, nil
}

func (c *cache[V]) Flush(ctx context.Context) error {
	conn, err := c.conn(ctx)
	if err != nil {
		return c.contain("flush", "", -1, err)
	}
	return c.contain("flush", "", -1, conn.Flush(ctx))
}

// Close releases the adapter-wide shared connection if it was ever built.
// Session connections stay with their contexts. Sessionless operations
// after Close fail with a propagated error rather than redialing.
func (c *cache[V]) Close(_ context.Context) error {
	return c.shared.close()
}
