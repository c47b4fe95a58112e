package softmc

import (
	"bytes"
	"compress/gzip"
	"io"
)

// flagCompressed marks a gzip-compressed payload. softmc owns the flags
// word; drivers round-trip it untouched.
const flagCompressed uint32 = 1 << 0

// maybeCompress gzips payloads that reach MinCompressLen. A payload that
// does not shrink (or fails to compress) is stored raw so small random data
// never grows on the wire.
func (c *cache[V]) maybeCompress(key string, payload []byte) ([]byte, uint32) {
	if c.cfg.MinCompressLen <= 0 || len(payload) < c.cfg.MinCompressLen {
		return payload, 0
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		c.hooks.CompressSkipped(key, err)
		return payload, 0
	}
	if err := zw.Close(); err != nil {
		c.hooks.CompressSkipped(key, err)
		return payload, 0
	}
	if buf.Len() >= len(payload) {
		c.hooks.CompressSkipped(key, nil)
		return payload, 0
	}
	return buf.Bytes(), flagCompressed
}

func decompress(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
