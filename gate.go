package catnip

import (
	"context"
	"sync/atomic"
)

// Gate counts shim invocations that are still executing.
type Gate struct {
	n    atomic.Int64
	idle chan struct{}
}

// NewGate creates a gate with nothing in flight.
func NewGate() *Gate {
	return &Gate{idle: make(chan struct{}, 1)}
}

// Enter marks the start of one invocation.
func (g *Gate) Enter() {
	g.n.Add(1)
}

// Exit marks the end of one invocation.
func (g *Gate) Exit() {
	if g.n.Add(-1) == 0 {
		select {
		case g.idle <- struct{}{}:
		default:
		}
	}
}

// InFlight returns the number of running invocations.
func (g *Gate) InFlight() int64 {
	return g.n.Load()
}

// Wait blocks until no invocation runs or ctx ends.
func (g *Gate) Wait(ctx context.Context) error {
	for g.n.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.idle:
		}
	}
	return nil
}
