// Package binmc implements driver.Conn over the memcached binary protocol
// using memcachier/mc, which carries SASL authentication. This is the driver
// the factory picks when the adapter is configured with BINARY=true.
package binmc

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/memcachier/mc/v3"

	"github.com/unkn0wn-root/softmc/driver"
)

// noCreate tells the binary protocol incr/decr to fail on a missing key
// instead of seeding it.
const noCreate uint32 = 0xffffffff

const (
	behaviorConnectTimeout  = "connect_timeout"
	behaviorRetries         = "retries"
	behaviorRetryDelay      = "retry_delay"
	behaviorFailover        = "failover"
	behaviorDownRetryDelay  = "down_retry_delay"
	behaviorPoolSize        = "pool_size"
	behaviorTCPKeepAlive    = "tcp_keepalive"
	behaviorTCPKeepAlivePrd = "tcp_keepalive_period"
	behaviorTCPNoDelay      = "tcp_nodelay"
)

type Config struct {
	Servers   []string
	Username  string
	Password  string
	Behaviors driver.Behaviors
}

type Conn struct {
	mc *mc.Client
}

var _ driver.Conn = (*Conn)(nil)

// New builds a binary-protocol connection. Credentials are forwarded to the
// client's SASL handshake; an actual auth rejection only surfaces on the
// first operation and is classified as a client fault there.
func New(cfg Config) (*Conn, error) {
	if len(cfg.Servers) == 0 {
		return nil, driver.AsClient("dial", errors.New("binmc: no servers"))
	}
	if unknown := cfg.Behaviors.Unknown(
		behaviorConnectTimeout, behaviorRetries, behaviorRetryDelay,
		behaviorFailover, behaviorDownRetryDelay, behaviorPoolSize,
		behaviorTCPKeepAlive, behaviorTCPKeepAlivePrd, behaviorTCPNoDelay,
	); len(unknown) > 0 {
		return nil, driver.AsClient("dial", errors.New("binmc: unknown behaviors: "+unknown[0]))
	}

	conf := mc.DefaultConfig()
	if d, ok, err := cfg.Behaviors.Duration(behaviorConnectTimeout); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.ConnectionTimeout = d
	}
	if n, ok, err := cfg.Behaviors.Int(behaviorRetries); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.Retries = n
	}
	if d, ok, err := cfg.Behaviors.Duration(behaviorRetryDelay); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.RetryDelay = d
	}
	if b, ok, err := cfg.Behaviors.Bool(behaviorFailover); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.Failover = b
	}
	if d, ok, err := cfg.Behaviors.Duration(behaviorDownRetryDelay); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.DownRetryDelay = d
	}
	if n, ok, err := cfg.Behaviors.Int(behaviorPoolSize); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.PoolSize = n
	}
	if b, ok, err := cfg.Behaviors.Bool(behaviorTCPKeepAlive); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.TcpKeepAlive = b
	}
	if d, ok, err := cfg.Behaviors.Duration(behaviorTCPKeepAlivePrd); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.TcpKeepAlivePeriod = d
	}
	if b, ok, err := cfg.Behaviors.Bool(behaviorTCPNoDelay); err != nil {
		return nil, driver.AsClient("dial", err)
	} else if ok {
		conf.TcpNoDelay = b
	}

	cl := mc.NewMCwithConfig(strings.Join(cfg.Servers, ","), cfg.Username, cfg.Password, conf)
	return &Conn{mc: cl}, nil
}

func (c *Conn) Add(_ context.Context, key string, value []byte, flags uint32, expiry int32) error {
	_, err := c.mc.Add(key, string(value), flags, uint32(expiry))
	return wrap("add", key, err)
}

func (c *Conn) Set(_ context.Context, key string, value []byte, flags uint32, expiry int32) error {
	_, err := c.mc.Set(key, string(value), flags, uint32(expiry), 0)
	return wrap("set", key, err)
}

func (c *Conn) Get(_ context.Context, key string) (driver.Item, error) {
	val, flags, _, err := c.mc.Get(key)
	if err != nil {
		return driver.Item{}, wrap("get", key, err)
	}
	return driver.Item{Value: []byte(val), Flags: flags}, nil
}

// GetMulti issues singles; the binary client has no native multi-get.
// A miss is skipped, a fault aborts the batch.
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
	return wrap("delete", key, c.mc.Del(key))
}

func (c *Conn) Incr(_ context.Context, key string, delta uint64) (uint64, error) {
	n, _, err := c.mc.Incr(key, delta, 0, noCreate, 0)
	return n, wrap("incr", key, err)
}

func (c *Conn) Decr(_ context.Context, key string, delta uint64) (uint64, error) {
	n, _, err := c.mc.Decr(key, delta, 0, noCreate, 0)
	return n, wrap("decr", key, err)
}

func (c *Conn) Touch(_ context.Context, key string, expiry int32) error {
	_, err := c.mc.Touch(key, uint32(expiry))
	return wrap("touch", key, err)
}

func (c *Conn) Flush(_ context.Context) error {
	return wrap("flush", "", c.mc.Flush(0))
}

func (c *Conn) Close() error {
	c.mc.Quit()
	return nil
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mc.ErrNotFound):
		return driver.ErrCacheMiss
	case errors.Is(err, mc.ErrKeyExists), errors.Is(err, mc.ErrValueNotStored):
		return driver.ErrNotStored
	case errors.Is(err, mc.ErrOutOfMemory), errors.Is(err, mc.ErrValueTooLarge):
		return driver.AsServer(op, key, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return driver.AsServer(op, key, err)
	}
	// auth rejections, non-numeric incr targets and the rest of the binary
	// status space land here
	return driver.AsClient(op, err)
}
