package softmc

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/softmc/codec"
	"github.com/unkn0wn-root/softmc/driver"
)

// Config describes the backing cluster. Immutable after New; concurrent
// contexts read it freely without locking.
type Config struct {
	// Servers is the ordered endpoint list (host:port or unix socket path).
	Servers []string

	// Binary selects the binary-protocol driver. Required for SASL auth.
	Binary bool

	// Username/Password enable SASL. Both or neither: supplying exactly one
	// is a ConfigError, never a silent auth skip.
	Username string
	Password string

	// Behaviors are backing-client tunables (connection timeout, retry
	// counts, pooling, ...) forwarded verbatim to the driver. Unknown names
	// and malformed values surface as contained client faults on first use.
	Behaviors driver.Behaviors

	// MinCompressLen enables transparent gzip for encoded payloads of at
	// least this many bytes. 0 disables compression.
	MinCompressLen int
}

// DialFunc builds a backing connection from the adapter config. Options.Dial
// replaces it for tests and custom drivers.
type DialFunc func(Config) (driver.Conn, error)

// Cache is the uniform cache API. Boolean results follow memcached
// semantics (Add is false when the key exists, Delete is false when it
// did not). On a contained cache fault every operation returns its safe
// default with a nil error: false, the zero value, an empty map, or all
// keys failed. Errors are reserved for caller bugs.
type Cache[V any] interface {
	// Add stores value only if key is absent. Returns false when the key
	// already exists or the write could not be confirmed.
	Add(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)

	// Set stores value unconditionally. Returns false when the write could
	// not be confirmed.
	Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)

	// Get returns the stored value. ok is false on miss and on contained
	// faults; the caller substitutes its own default.
	Get(ctx context.Context, key string) (v V, ok bool, err error)

	// Delete removes key. Returns false when the key did not exist or the
	// delete could not be confirmed.
	Delete(ctx context.Context, key string) (bool, error)

	// GetMulti returns the found subset of keys, keyed by the caller's
	// logical keys. Empty on contained faults.
	GetMulti(ctx context.Context, keys []string) (map[string]V, error)

	// SetMulti stores every entry and returns the keys that failed to
	// store (empty = all succeeded).
	SetMulti(ctx context.Context, items map[string]V, ttl time.Duration) (failed []string, err error)

	// DeleteMulti removes keys; true only when every key existed and was
	// deleted.
	DeleteMulti(ctx context.Context, keys []string) (bool, error)

	// Touch updates the expiry of an existing key.
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Incr/Decr do saturating arithmetic on ASCII-number values, bypassing
	// the codec. ok is false when the key is absent.
	Incr(ctx context.Context, key string, delta uint64) (n uint64, ok bool, err error)
	Decr(ctx context.Context, key string, delta uint64) (n uint64, ok bool, err error)

	// Flush drops everything on every node.
	Flush(ctx context.Context) error

	// Close releases the adapter-wide shared connection. Session-owned
	// connections are closed via CloseSession or dropped with their context.
	Close(ctx context.Context) error
}

// Options tune the adapter. Only Config is required.
type Options[V any] struct {
	// Required
	Config Config

	Codec c.Codec[V] // nil => JSON
	Keys  Keys       // nil => PrefixKeys{}

	// Version is the key version handed to Keys.MakeKey; 0 => 1.
	Version int

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	// DefaultTTL is the lifetime used when an operation passes the
	// DefaultTTL sentinel; 0 => 5m.
	DefaultTTL time.Duration

	// Dial overrides the driver selection (tests, custom backends).
	Dial DialFunc
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
