package catnip

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// Subscription binds one handler of one module to one event.
type Subscription struct {
	ID       xid.ID
	Event    EventID
	Module   string
	Priority Priority
	Handler  Handler
}

// ListenOption configures a subscription.
type ListenOption func(*Subscription)

// WithPriority places the subscription relative to other subscribers of the
// same event.
func WithPriority(p Priority) ListenOption {
	return func(s *Subscription) {
		s.Priority = p
	}
}

// table is an immutable snapshot of every subscription list.
type table [eventCount][]*Subscription

// Bus maps events to ordered subscriber lists. Registration happens under a
// mutex at startup; dispatch reads an immutable snapshot and takes no lock,
// so it may run on any host thread.
type Bus struct {
	mu         sync.Mutex
	registered [eventCount]bool
	sealed     bool
	subs       atomic.Pointer[table]
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	b := &Bus{}
	b.subs.Store(&table{})
	return b
}

// RegisterEvent makes id available for subscription. Registering twice is
// a no-op.
func (b *Bus) RegisterEvent(id EventID) error {
	if !id.valid() {
		return errors.Wrapf(ErrUnknownEvent, "event %d", id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered[id] = true
	return nil
}

// Registered reports whether id was registered.
func (b *Bus) Registered(id EventID) bool {
	if !id.valid() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registered[id]
}

// Listen appends h to the subscribers of id. Subscribers run by ascending
// priority and, within one priority, in the order they were added.
func (b *Bus) Listen(id EventID, module string, h Handler, opts ...ListenOption) (*Subscription, error) {
	if !id.valid() {
		return nil, errors.Wrapf(ErrUnknownEvent, "event %d", id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return nil, errors.Wrapf(ErrSealed, "%s listening on %s", module, id)
	}
	if !b.registered[id] {
		return nil, errors.Wrapf(ErrUnknownEvent, "%s listening on %s", module, id)
	}
	s := &Subscription{ID: xid.New(), Event: id, Module: module, Handler: h}
	for _, o := range opts {
		o(s)
	}
	old := b.subs.Load()
	next := *old
	list := make([]*Subscription, len(old[id]), len(old[id])+1)
	copy(list, old[id])
	list = append(list, s)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority < list[j].Priority
	})
	next[id] = list
	b.subs.Store(&next)
	logger.Debug().Str("module", module).Stringer("event", id).Int("priority", int(s.Priority)).Str("id", s.ID.String()).Msg("listening")
	return s, nil
}

// Seal closes registration. Called once every module has subscribed.
func (b *Bus) Seal() {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (b *Bus) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

// Subscribers returns the current ordered subscribers of id.
func (b *Bus) Subscribers(id EventID) []*Subscription {
	if !id.valid() {
		return nil
	}
	list := b.subs.Load()[id]
	out := make([]*Subscription, len(list))
	copy(out, list)
	return out
}

// PushEvent runs every subscriber of id in order and returns the OR of
// their flags. An event nobody listens to yields zero.
func (b *Bus) PushEvent(id EventID, inv *Invocation) Flags {
	if !id.valid() {
		return 0
	}
	var flags Flags
	for _, s := range b.subs.Load()[id] {
		flags |= s.Handler(inv)
	}
	return flags
}

// Shutdown drops every subscription. Later dispatches find no subscribers.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
	b.subs.Store(&table{})
}
