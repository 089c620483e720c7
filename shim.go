package catnip

import (
	"sync/atomic"
)

// Shim is the per-hook glue between an intercepted host call and the bus.
type Shim struct {
	Hook  string
	Event EventID
	// Post, when set, is dispatched after the original ran
	Post EventID
	// Default is returned to the host when a subscriber suppresses the
	// original and leaves Result untouched
	Default uintptr
	// Around wraps the pre-original dispatch; it must call dispatch exactly
	// once and undo whatever host state it changed before returning
	Around func(inv *Invocation, dispatch func())

	bus  *Bus
	gate *Gate
	last atomic.Pointer[Invocation]
}

// ShimOption configures a Shim.
type ShimOption func(*Shim)

// WithPost dispatches id after the original returns.
func WithPost(id EventID) ShimOption {
	return func(s *Shim) {
		s.Post = id
	}
}

// WithDefault sets the result returned when the original is suppressed.
func WithDefault(v uintptr) ShimOption {
	return func(s *Shim) {
		s.Default = v
	}
}

// WithAround installs a host-state adjustment around dispatch.
func WithAround(fn func(inv *Invocation, dispatch func())) ShimOption {
	return func(s *Shim) {
		s.Around = fn
	}
}

// NewShim creates a shim dispatching event on b and counted by g.
func NewShim(b *Bus, g *Gate, hook string, event EventID, opts ...ShimOption) *Shim {
	s := &Shim{Hook: hook, Event: event, bus: b, gate: g}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run handles one host call. args are the raw call arguments, data the
// hook's typed view of them and original calls the saved routine.
func (s *Shim) Run(args []uintptr, data interface{}, original Func) uintptr {
	if s.gate != nil {
		s.gate.Enter()
		defer s.gate.Exit()
	}
	inv := &Invocation{
		Event:  s.Event,
		Hook:   s.Hook,
		Args:   args,
		Data:   data,
		Result: s.Default,
	}
	s.last.Store(inv)

	dispatch := func() {
		inv.Flags = s.bus.PushEvent(s.Event, inv)
	}
	if s.Around != nil {
		s.Around(inv, dispatch)
	} else {
		dispatch()
	}
	if inv.Flags.Has(NoOriginal) {
		return inv.Result
	}

	r := original(args...)
	inv.Result = r
	if s.Post != EventNone {
		inv.Event = s.Post
		s.bus.PushEvent(s.Post, inv)
	}
	return r
}

// Current returns the invocation most recently started by this shim. A
// nested call of the same hook replaces it, so it is only meaningful to
// code that cannot re-enter the hook; handlers should use the
// *Invocation they are given.
func (s *Shim) Current() *Invocation {
	return s.last.Load()
}
