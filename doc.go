// Package softmc is a resilient cache adapter for clustered memcached. It
// exposes a uniform typed cache API (add/get/set/delete plus batch variants)
// and normalizes three things backing clients do not handle uniformly:
//
//   - Client lifecycle: each execution context gets its own lazily built
//     backing connection (see NewSession); contexts without a session share
//     one adapter-wide connection.
//   - TTL zero: a ttl of 0 always means "never expire", never "already
//     expired". Pass DefaultTTL to use the configured default lifetime.
//   - Degradation: recoverable cache-layer faults (an unreachable or
//     failing node, a backing-client error) are logged and contained; the
//     operation returns its documented safe default instead of an error. A
//     cache outage looks like misses and unconfirmed writes, never like an
//     application failure. Programming errors (bad keys, negative TTLs,
//     codec failures) still propagate.
//
// Components:
//   - driver.Conn: the backing client. Text protocol via driver/textmc,
//     binary protocol with SASL auth via driver/binmc, in-process via
//     driver/localmc.
//   - Codec[V]: (de)serializes V <-> []byte.
//   - Keys: maps logical key + version to the literal wire key.
//
// Nothing here retries: one attempt per call; retrying is the caller's call.
package softmc
