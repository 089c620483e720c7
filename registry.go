package catnip

import (
	"sync"

	"github.com/pkg/errors"
)

// Module is a consumer that subscribes to events.
type Module interface {
	Name() string
	// StartListening subscribes the module's handlers. Called once, after
	// every hook is installed and before the bus is sealed.
	StartListening(l Listener)
}

// Registrar is implemented by modules that push events of their own. It is
// called when the module is added, so other modules may listen to them.
type Registrar interface {
	RegisterEvents(b *Bus)
}

// Listener subscribes handlers on behalf of one module.
type Listener interface {
	Listen(id EventID, h Handler, opts ...ListenOption)
}

type moduleListener struct {
	bus    *Bus
	module string
	err    error
}

func (l *moduleListener) Listen(id EventID, h Handler, opts ...ListenOption) {
	if l.err != nil {
		return
	}
	if _, err := l.bus.Listen(id, l.module, h, opts...); err != nil {
		l.err = err
	}
}

// Registry owns the hooks, modules, bus and in-flight gate of one
// interception session.
type Registry struct {
	bus  *Bus
	gate *Gate

	mu      sync.Mutex
	hooks   []Hook
	byName  map[string]Hook
	modules []Module
	frozen  bool
}

// NewRegistry creates an empty registry with its own bus.
func NewRegistry() *Registry {
	return &Registry{
		bus:    NewBus(),
		gate:   NewGate(),
		byName: make(map[string]Hook),
	}
}

func (r *Registry) Bus() *Bus {
	return r.bus
}

func (r *Registry) Gate() *Gate {
	return r.gate
}

// Shim creates a shim for hook that dispatches event, registering event
// and any post event on the bus.
func (r *Registry) Shim(hook string, event EventID, opts ...ShimOption) *Shim {
	s := NewShim(r.bus, r.gate, hook, event, opts...)
	r.bus.RegisterEvent(event)
	if s.Post != EventNone {
		r.bus.RegisterEvent(s.Post)
	}
	return s
}

// AddHook appends h to the install order.
func (r *Registry) AddHook(h Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errors.Wrapf(ErrFrozen, "add hook %s", h.Name())
	}
	if _, ok := r.byName[h.Name()]; ok {
		return errors.Wrapf(ErrDoubleHook, "hook %s", h.Name())
	}
	r.hooks = append(r.hooks, h)
	r.byName[h.Name()] = h
	return nil
}

// AddModule appends m to the listen order.
func (r *Registry) AddModule(m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errors.Wrapf(ErrFrozen, "add module %s", m.Name())
	}
	if rg, ok := m.(Registrar); ok {
		rg.RegisterEvents(r.bus)
	}
	r.modules = append(r.modules, m)
	return nil
}

// Hook returns the hook registered under name.
func (r *Registry) Hook(name string) (Hook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byName[name]
	if !ok {
		return nil, errors.Wrap(ErrHookNotFound, name)
	}
	return h, nil
}

// Hooks returns the hooks in registration order.
func (r *Registry) Hooks() []Hook {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Hook(nil), r.hooks...)
}

// Modules returns the modules in registration order.
func (r *Registry) Modules() []Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Module(nil), r.modules...)
}

func (r *Registry) freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// startModules lets every module subscribe, then seals the bus.
// On failure the subscriptions made so far are dropped, so a later Start
// does not subscribe those modules twice.
func (r *Registry) startModules() error {
	before := r.bus.subs.Load()
	for _, m := range r.Modules() {
		l := &moduleListener{bus: r.bus, module: m.Name()}
		m.StartListening(l)
		if l.err != nil {
			r.bus.subs.Store(before)
			return errors.Wrapf(l.err, "module %s", m.Name())
		}
		logger.Info().Str("module", m.Name()).Msg("module listening")
	}
	r.bus.Seal()
	return nil
}
