package softmc

import (
	"errors"
	"math"
	"time"
)

// DefaultTTL asks an operation to use the adapter's configured default
// lifetime (Options.DefaultTTL). Distinct from 0, which stores forever.
const DefaultTTL time.Duration = -1

// memcached reads wire expiries above 30 days as absolute unix timestamps.
const relativeExpiryCap = 30 * 24 * time.Hour

var errNegativeTTL = errors.New("softmc: negative ttl")

// normalizeExpiry maps a caller TTL onto the memcached wire expiry.
// 0 stays 0 (never expire); the DefaultTTL sentinel substitutes def;
// durations beyond 30 days become absolute timestamps; any other negative
// value is a programming error. The result is whole seconds, with
// sub-second TTLs rounded up to 1s so they never alias "never expire".
func normalizeExpiry(ttl, def time.Duration, now func() time.Time) (int32, error) {
	if ttl == DefaultTTL {
		ttl = def
	}
	if ttl == 0 {
		return 0, nil
	}
	if ttl < 0 {
		return 0, errNegativeTTL
	}
	secs := int64(ttl / time.Second)
	if secs == 0 {
		secs = 1
	}
	if ttl > relativeExpiryCap {
		secs += now().Unix()
	}
	// memcached expiries are 32-bit; an absolute time past 2038 would wrap
	// negative on the wire, so pin it to the maximum representable instant.
	if secs > math.MaxInt32 {
		secs = math.MaxInt32
	}
	return int32(secs), nil
}
