package softmc

import (
	"context"
	"errors"
	"sync"

	"github.com/unkn0wn-root/softmc/driver"
	"github.com/unkn0wn-root/softmc/driver/binmc"
	"github.com/unkn0wn-root/softmc/driver/textmc"
)

var errUseAfterClose = errors.New("softmc: use after close")

// session holds one lazily built backing connection. The slot is written
// exactly once (sync.Once) and only read afterwards, so a session shared
// across goroutines still observes a single conn with no extra locking.
type session struct {
	once sync.Once
	conn driver.Conn
	err  error
}

// close consumes the slot's once so the conn read is ordered after any
// in-flight build, then releases the conn if one was built. Closing an
// unused slot caches errUseAfterClose, so later operations on it surface
// a programming error instead of dialing through a dead slot.
func (s *session) close() error {
	s.once.Do(func() { s.err = errUseAfterClose })
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

type sessionKey struct{}

// NewSession returns a context whose cache operations share a private
// backing connection, built on first use and reused for the lifetime of
// the context. Use one session per worker when the deployment cannot
// trust the backing client to be shared. Operations on contexts without a
// session fall back to one adapter-wide shared connection.
func NewSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionKey{}, &session{})
}

// CloseSession closes the backing connection held by ctx's session, if one
// was ever built. Sessions are normally dropped with their context and
// collected by the runtime; long-lived workers can use this for prompt
// teardown.
func CloseSession(ctx context.Context) error {
	s := sessionFrom(ctx)
	if s == nil {
		return nil
	}
	return s.close()
}

func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(sessionKey{}).(*session)
	return s
}

// dialConfig is the production factory: it picks the driver by protocol
// mode and hands it the endpoints, credentials and behaviors. The returned
// conn is fully configured; no caller performs further setup.
func dialConfig(cfg Config) (driver.Conn, error) {
	if cfg.Binary {
		return binmc.New(binmc.Config{
			Servers:   cfg.Servers,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Behaviors: cfg.Behaviors,
		})
	}
	return textmc.New(textmc.Config{
		Servers:   cfg.Servers,
		Behaviors: cfg.Behaviors,
	})
}

// conn resolves the calling context's connection, building it on first use.
// One build attempt per slot: a failed dial is cached and re-surfaces as a
// contained fault on every call, it is never retried.
func (c *cache[V]) conn(ctx context.Context) (driver.Conn, error) {
	s := sessionFrom(ctx)
	shared := s == nil
	if shared {
		s = &c.shared
	}
	s.once.Do(func() {
		s.conn, s.err = c.dial(c.cfg)
		if s.err == nil {
			c.hooks.ConnBuilt(shared)
		}
	})
	return s.conn, s.err
}
