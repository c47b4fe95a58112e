package softmc

import (
	"strconv"

	"github.com/unkn0wn-root/softmc/internal/util"
)

// Keys maps a logical key and version to the literal key sent on the wire.
// The adapter calls MakeKey before every operation, so implementations must
// be deterministic and side-effect free.
type Keys interface {
	MakeKey(key string, version int) string
}

// PrefixKeys is the default scheme: "<prefix>:<version>:<key>". Bumping the
// version invalidates every key at once without touching the cluster.
type PrefixKeys struct {
	Prefix string
}

var _ Keys = PrefixKeys{}

func (p PrefixKeys) MakeKey(key string, version int) string {
	return p.Prefix + ":" + strconv.Itoa(version) + ":" + key
}

// wireKey builds and validates the literal key for one operation.
func (c *cache[V]) wireKey(key string) (string, error) {
	k := c.keys.MakeKey(key, c.version)
	if err := util.ValidateKey(k); err != nil {
		return "", err
	}
	return k, nil
}
