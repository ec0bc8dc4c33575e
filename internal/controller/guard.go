package controller

import "sync/atomic"

// guard admits at most one outstanding move execution, human or engine.
type guard struct {
	busy atomic.Bool
}

func (g *guard) tryAcquire() bool { return g.busy.CompareAndSwap(false, true) }

func (g *guard) release() { g.busy.Store(false) }

func (g *guard) held() bool { return g.busy.Load() }
