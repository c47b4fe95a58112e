package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/softmc"
)

type Options struct {
	// Sampling to avoid floods when a cluster is down; 0/1 = log all.
	FaultEvery    uint64
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

// Hooks logs softmc events through slog. Faults are already logged by the
// adapter's Logger; this exists for deployments that route hook telemetry
// separately (with sampling and key redaction).
type Hooks struct {
	l    *slog.Logger
	opts Options

	faultCtr    atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ softmc.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) FaultContained(op, key string, err error) {
	if h.l == nil || !sample(h.opts.FaultEvery, &h.faultCtr) {
		return
	}
	h.l.Error("softmc.fault_contained",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) ConnBuilt(shared bool) {
	if h.l == nil {
		return
	}
	h.l.Debug("softmc.conn_built",
		"shared", shared)
}

func (h *Hooks) CompressSkipped(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("softmc.compress_skipped",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) SelfHealDropped(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("softmc.self_heal_dropped",
		"key", h.redact(key),
		"reason", reason)
}
