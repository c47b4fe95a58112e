package codec

import "fmt"

// DefaultMaxDecode matches memcached's stock 1 MiB item ceiling. An entry
// larger than this cannot have been written through this adapter against a
// default cluster, so anything bigger on a read is foreign.
const DefaultMaxDecode = 1 << 20

// Limit wraps another codec to cap the payload size accepted at Decode
// time. Encode is forwarded to Inner unchanged. An over-limit payload is
// reported as a decode error, which the adapter treats like any other
// corrupt entry: drop it and miss. If MaxDecode <= 0 the cap is disabled.
type Limit[V any] struct {
	// Inner is the codec being wrapped. It must be set.
	Inner Codec[V]
	// MaxDecode is the largest payload, in bytes, Decode will hand to
	// Inner.
	MaxDecode int
}

// Limited wraps inner with the stock memcached item ceiling.
func Limited[V any](inner Codec[V]) Limit[V] {
	return Limit[V]{Inner: inner, MaxDecode: DefaultMaxDecode}
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
