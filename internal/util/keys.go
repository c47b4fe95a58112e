package util

import (
	"github.com/pkg/errors"
)

// memcached rejects keys longer than 250 bytes.
const maxKeyLen = 250

var ErrInvalidKey = errors.New("invalid key")

// ValidateKey enforces the memcached key rules on a fully built wire key:
// non-empty, at most 250 bytes, no spaces and no control characters.
// Violations are caller bugs, not cache faults.
func ValidateKey(k string) error {
	if k == "" {
		return errors.Wrap(ErrInvalidKey, "empty key")
	}
	if len(k) > maxKeyLen {
		return errors.Wrapf(ErrInvalidKey, "key %q exceeds %d bytes", k, maxKeyLen)
	}
	for i := 0; i < len(k); i++ {
		if k[i] <= ' ' || k[i] == 0x7f {
			return errors.Wrapf(ErrInvalidKey, "key %q contains byte 0x%02x at %d", k, k[i], i)
		}
	}
	return nil
}
