package codec

import "google.golang.org/protobuf/proto"

// Protobuf serializes one generated message type with
// google.golang.org/protobuf. Decode needs a fresh concrete message to
// unmarshal into, so the codec is built around a constructor rather than a
// zero value.
type Protobuf[T proto.Message] struct {
	new func() T
}

// NewProtobuf binds the codec to a message type:
//
//	codec.NewProtobuf(func() *userpb.User { return &userpb.User{} })
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
