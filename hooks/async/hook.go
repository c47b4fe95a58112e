// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/softmc"
//	"github.com/unkn0wn-root/softmc/hooks/async"
//	"github.com/unkn0wn-root/softmc/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    FaultEvery: 10, // sample logs: ~every 10th contained fault
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := softmc.New[User](softmc.Options[User]{
//	    Config: cfg,
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/softmc"
)

type Hooks struct {
	inner softmc.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ softmc.Hooks = (*Hooks)(nil)

func New(inner softmc.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) FaultContained(op, key string, err error) {
	h.try(func() { h.inner.FaultContained(op, key, err) })
}
func (h *Hooks) ConnBuilt(shared bool) { h.try(func() { h.inner.ConnBuilt(shared) }) }
func (h *Hooks) CompressSkipped(key string, err error) {
	h.try(func() { h.inner.CompressSkipped(key, err) })
}
func (h *Hooks) SelfHealDropped(key, reason string) {
	h.try(func() { h.inner.SelfHealDropped(key, reason) })
}
