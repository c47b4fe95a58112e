// Package codec defines how cached values are framed as bytes on the wire
// and ships implementations over encoding/json, cbor, msgpack and protobuf.
package codec

// Codec turns a value of type V into the bytes stored on a memcached node
// and back. A Decode failure marks the entry as corrupt: the adapter drops
// it from the cluster and reports the read as a miss, so a codec may reject
// foreign or truncated payloads without surfacing errors to callers.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
