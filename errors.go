package softmc

import (
	"github.com/unkn0wn-root/softmc/internal/util"
)

// ErrInvalidKey marks a wire key that violates the memcached key rules
// (empty, longer than 250 bytes, or containing spaces/control characters).
// It is a programming error and is never contained.
var ErrInvalidKey = util.ErrInvalidKey

// ConfigError reports invalid or incomplete adapter setup. It is returned
// by New and is fatal by design: a half-configured adapter must not be
// allowed to degrade silently.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "softmc: invalid configuration: " + e.Reason
}
