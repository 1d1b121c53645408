// Package gate bounds the number of CPU and memory heavy operations (image
// and PSD decodes) running at once across the process.
package gate

import (
	"sync"

	"github.com/justyntemme/razord/internal/metrics"
)

// DefaultMax is the permit count used when a non-positive max is given.
const DefaultMax = 8

type Gate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	max     int
	inUse   int
	waiters int
}

// Permit is one held slot. Release returns it; further calls are no-ops.
type Permit struct {
	g    *Gate
	once sync.Once
}

func New(max int) *Gate {
	if max <= 0 {
		max = DefaultMax
	}
	g := &Gate{max: max}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Acquire blocks until a slot is free. There is no timeout and no ordering
// guarantee between waiters.
func (g *Gate) Acquire() *Permit {
	g.mu.Lock()
	for g.inUse >= g.max {
		g.waiters++
		metrics.SetGateWaiters(g.waiters)
		g.cond.Wait()
		g.waiters--
		metrics.SetGateWaiters(g.waiters)
	}
	g.inUse++
	metrics.SetGateInUse(g.inUse)
	g.mu.Unlock()
	return &Permit{g: g}
}

// Do runs fn while holding a permit. The permit is returned even if fn
// panics.
func (g *Gate) Do(fn func()) {
	p := g.Acquire()
	defer p.Release()
	fn()
}

func (p *Permit) Release() {
	p.once.Do(func() {
		g := p.g
		g.mu.Lock()
		g.inUse--
		metrics.SetGateInUse(g.inUse)
		g.mu.Unlock()
		g.cond.Signal()
	})
}

func (g *Gate) InUse() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inUse
}

func (g *Gate) Max() int { return g.max }
