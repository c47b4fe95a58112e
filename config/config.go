// Package config resolves adapter settings into a final softmc.Config,
// applying environment overrides before the client factory ever runs. The
// adapter core only consumes the already-resolved Config; nothing inside it
// reads the environment.
package config

import (
	"os"
	"strings"

	"github.com/unkn0wn-root/softmc"
	"github.com/unkn0wn-root/softmc/driver"
)

// Environment override names. MEMCACHE_SERVERS is a comma- or
// semicolon-separated endpoint list.
const (
	EnvServers  = "MEMCACHE_SERVERS"
	EnvUsername = "MEMCACHE_USERNAME"
	EnvPassword = "MEMCACHE_PASSWORD"
)

// Settings mirrors the deployment-facing configuration surface.
type Settings struct {
	Servers  []string
	Binary   bool
	Username string
	Password string

	// Options are the backing-client behaviors, passed through untouched.
	Options map[string]any

	MinCompressLen int
}

// Load resolves s into the adapter config, letting the environment override
// servers and credentials.
func Load(s Settings) softmc.Config {
	cfg := softmc.Config{
		Servers:        s.Servers,
		Binary:         s.Binary,
		Username:       s.Username,
		Password:       s.Password,
		Behaviors:      driver.Behaviors(s.Options),
		MinCompressLen: s.MinCompressLen,
	}
	if v := os.Getenv(EnvServers); v != "" {
		cfg.Servers = SplitServers(v)
	}
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	return cfg
}

// SplitServers parses an endpoint list string: entries separated by commas
// or semicolons, surrounding whitespace dropped, empty entries skipped.
func SplitServers(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
