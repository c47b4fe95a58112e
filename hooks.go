package softmc

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A recoverable cache-layer fault was contained; the operation degraded
	// to its safe default. err is a driver.ServerError or driver.ClientError.
	FaultContained(op, key string, err error)

	// A backing connection was built. shared is true for the adapter-wide
	// fallback connection, false for a session-owned one.
	ConnBuilt(shared bool)

	// A payload crossed MinCompressLen but was stored uncompressed
	// (compression failed or did not shrink it).
	CompressSkipped(key string, err error)

	// A corrupt entry was deleted by the cache on read.
	// reason ∈ {"decompress", "value_decode"}
	SelfHealDropped(key, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) FaultContained(string, string, error) {}
func (NopHooks) ConnBuilt(bool)                       {}
func (NopHooks) CompressSkipped(string, error)        {}
func (NopHooks) SelfHealDropped(string, string)       {}
