// Package driver defines the backing-client abstraction used by softmc.
//
// A Conn is a fully configured handle to a memcached cluster (or an
// in-process stand-in). Implementations MUST be ready for use when returned
// from their constructor: server list, protocol mode, authentication and
// behaviors are all applied up front, never lazily on first operation.
//
// Expiry is the memcached wire representation: 0 means "never expire",
// values up to 30 days are relative seconds, larger values are absolute
// unix timestamps. softmc normalizes expiries before they reach a Conn;
// a Conn forwards them as-is.
package driver

import (
	"context"
	"errors"
	"fmt"
)

// Item is a stored value together with its opaque flags word.
// softmc owns the flags namespace (compression marker etc.); drivers
// round-trip it untouched.
type Item struct {
	Value []byte
	Flags uint32
}

// Conn is a minimal memcached-shaped store.
// A single Conn is owned by one execution context unless the deployment
// knows the underlying client tolerates sharing; softmc does not assume it.
type Conn interface {
	// Add stores value only if the key is absent.
	// Returns ErrNotStored when the key already exists.
	Add(ctx context.Context, key string, value []byte, flags uint32, expiry int32) error

	// Set stores value unconditionally.
	Set(ctx context.Context, key string, value []byte, flags uint32, expiry int32) error

	// Get returns the item for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (Item, error)

	// GetMulti returns the found subset of keys. Missing keys are simply
	// absent from the result; a miss is never an error here.
	GetMulti(ctx context.Context, keys []string) (map[string]Item, error)

	// Delete removes key. Returns ErrCacheMiss when the key was absent.
	Delete(ctx context.Context, key string) error

	// Incr/Decr operate on ASCII-number values and fail with ErrCacheMiss
	// when the key does not exist (no implicit create).
	Incr(ctx context.Context, key string, delta uint64) (uint64, error)
	Decr(ctx context.Context, key string, delta uint64) (uint64, error)

	// Touch updates the expiry of an existing key.
	// Returns ErrCacheMiss when the key was absent.
	Touch(ctx context.Context, key string, expiry int32) error

	// Flush drops everything on every node.
	Flush(ctx context.Context) error

	// Close releases connections. The Conn is unusable afterwards.
	Close() error
}

// Expected outcomes, not faults. The wrapper maps these to its boolean
// results without logging.
var (
	ErrCacheMiss = errors.New("driver: cache miss")
	ErrNotStored = errors.New("driver: not stored")
)

// ServerError marks a reachable-but-failing cluster node: a node returned a
// SERVER_ERROR, dropped the connection mid-operation, or could not be
// reached at all. Contained by the operation wrapper.
type ServerError struct {
	Op  string
	Key string
	Err error
}

func (e *ServerError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("memcached server fault during %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("memcached server fault during %s: %v", e.Op, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// ClientError marks a general backing-client fault: auth rejection,
// malformed behavior configuration, or any other internal client error.
// Contained by the operation wrapper.
type ClientError struct {
	Op  string
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("memcached client fault during %s: %v", e.Op, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// AsServer wraps err as a ServerError. Nil-safe.
func AsServer(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &ServerError{Op: op, Key: key, Err: err}
}

// AsClient wraps err as a ClientError. Nil-safe.
func AsClient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ClientError{Op: op, Err: err}
}

// Contained reports whether err belongs to one of the two contained fault
// classes. Anything else (programming errors above all) must propagate.
func Contained(err error) bool {
	var se *ServerError
	var ce *ClientError
	return errors.As(err, &se) || errors.As(err, &ce)
}
