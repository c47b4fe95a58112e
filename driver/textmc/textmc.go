// Package textmc implements driver.Conn over the memcached text protocol
// using bradfitz/gomemcache. The text protocol has no authentication; callers
// that need SASL must use the binary driver instead.
package textmc

import (
	"context"
	"errors"
	"net"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/unkn0wn-root/softmc/driver"
)

// Behavior names this driver understands. gomemcache exposes a single
// operation deadline, so "timeout" and "connect_timeout" steer the same knob
// ("timeout" wins when both are set).
const (
	behaviorTimeout        = "timeout"
	behaviorConnectTimeout = "connect_timeout"
	behaviorMaxIdleConns   = "max_idle_conns"
	behaviorTCPNoDelay     = "tcp_nodelay"
)

type Config struct {
	Servers   []string
	Behaviors driver.Behaviors
}

type Conn struct {
	mc *memcache.Client
}

var _ driver.Conn = (*Conn)(nil)

// New builds a ready-to-use text-protocol connection. Behavior errors are
// returned as driver.ClientError so a lazily built client degrades instead
// of crashing the calling operation.
func New(cfg Config) (*Conn, error) {
	if len(cfg.Servers) == 0 {
		return nil, driver.AsClient("dial", errors.New("textmc: no servers"))
	}
	if unknown := cfg.Behaviors.Unknown(
		behaviorTimeout, behaviorConnectTimeout, behaviorMaxIdleConns, behaviorTCPNoDelay,
	); len(unknown) > 0 {
		return nil, driver.AsClient("dial", errors.New("textmc: unknown behaviors: "+unknown[0]))
	}

	mc := memcache.New(cfg.Servers...)

	d, ok, err := cfg.Behaviors.Duration(behaviorTimeout)
	if err != nil {
		return nil, driver.AsClient("dial", err)
	}
	if !ok {
		d, ok, err = cfg.Behaviors.Duration(behaviorConnectTimeout)
		if err != nil {
			return nil, driver.AsClient("dial", err)
		}
	}
	if ok {
		mc.Timeout = d
	}

	if n, ok, err := cfg.Behaviors.Int(behaviorMaxIdleConns); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		mc.MaxIdleConns = n
	}

	// Go sets TCP_NODELAY on every new connection already; the behavior is
	// accepted for config compatibility and only validated for type.
	if _, _, err := cfg.Behaviors.Bool(behaviorTCPNoDelay); err != nil {
		return nil, driver.AsClient("dial", err)
	}

	return &Conn{mc: mc}, nil
}

func (c *Conn) Add(_ context.Context, key string, value []byte, flags uint32, expiry int32) error {
	return wrap("add", key, c.mc.Add(&memcache.Item{Key: key, Value: value, Flags: flags, Expiration: expiry}))
}

func (c *Conn) Set(_ context.Context, key string, value []byte, flags uint32, expiry int32) error {
	return wrap("set", key, c.mc.Set(&memcache.Item{Key: key, Value: value, Flags: flags, Expiration: expiry}))
}

func (c *Conn) Get(_ context.Context, key string) (driver.Item, error) {
	it, err := c.mc.Get(key)
	if err != nil {
		return driver.Item{}, wrap("get", key, err)
	}
	return driver.Item{Value: it.Value, Flags: it.Flags}, nil
}

func (c *Conn) GetMulti(_ context.Context, keys []string) (map[string]driver.Item, error) {
	found, err := c.mc.GetMulti(keys)
	if err != nil {
		return nil, wrap("get_multi", "", err)
	}
	out := make(map[string]driver.Item, len(found))
	for k, it := range found {
		out[k] = driver.Item{Value: it.Value, Flags: it.Flags}
	}
	return out, nil
}

func (c *Conn) Delete(_ context.Context, key string) error {
	return wrap("delete", key, c.mc.Delete(key))
}

func (c *Conn) Incr(_ context.Context, key string, delta uint64) (uint64, error) {
	n, err := c.mc.Increment(key, delta)
	return n, wrap("incr", key, err)
}

func (c *Conn) Decr(_ context.Context, key string, delta uint64) (uint64, error) {
	n, err := c.mc.Decrement(key, delta)
	return n, wrap("decr", key, err)
}

func (c *Conn) Touch(_ context.Context, key string, expiry int32) error {
	return wrap("touch", key, c.mc.Touch(key, expiry))
}

func (c *Conn) Flush(_ context.Context) error {
	return wrap("flush", "", c.mc.FlushAll())
}

func (c *Conn) Close() error {
	return c.mc.Close()
}

// wrap maps gomemcache errors onto the driver taxonomy. Misses and
// not-stored pass through as expected outcomes; malformed keys are
// programming errors and stay unwrapped so they propagate; node and network
// failures become ServerError; anything left is a general client fault.
func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, memcache.ErrCacheMiss):
		return driver.ErrCacheMiss
	case errors.Is(err, memcache.ErrNotStored):
		return driver.ErrNotStored
	case errors.Is(err, memcache.ErrMalformedKey):
		return err
	case errors.Is(err, memcache.ErrServerError), errors.Is(err, memcache.ErrNoServers):
		return driver.AsServer(op, key, err)
	}
	var cte *memcache.ConnectTimeoutError
	if errors.As(err, &cte) {
		return driver.AsServer(op, key, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return driver.AsServer(op, key, err)
	}
	return driver.AsClient(op, err)
}
