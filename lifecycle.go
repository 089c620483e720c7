package catnip

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// State is the lifecycle phase of an interception session.
type State int

const (
	Uninstalled State = iota
	Installed
	Draining
	Unloaded
)

func (s State) String() string {
	switch s {
	case Uninstalled:
		return "uninstalled"
	case Installed:
		return "installed"
	case Draining:
		return "draining"
	case Unloaded:
		return "unloaded"
	}
	return "unknown"
}

// DefaultQuiescence bounds how long ShutdownAll waits for running shims.
const DefaultQuiescence = 4096 * time.Millisecond

// Lifecycle installs and removes the hooks of a registry as one unit.
type Lifecycle struct {
	reg        *Registry
	host       Host
	quiescence time.Duration

	mu    sync.Mutex
	state State
	// hooks installed by InstallAll, in install order
	done []Hook
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithQuiescence sets the upper bound of the drain wait.
func WithQuiescence(d time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if d > 0 {
			l.quiescence = d
		}
	}
}

// NewLifecycle creates a controller for the hooks and modules of reg.
func NewLifecycle(reg *Registry, host Host, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{reg: reg, host: host, quiescence: DefaultQuiescence}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Lifecycle) setState(s State) {
	logger.Info().Stringer("from", l.state).Stringer("to", s).Msg("lifecycle")
	l.state = s
}

// InstallAll installs every hook in registration order. If one fails, the
// hooks already installed are removed and its *InstallError is returned:
// the host is incompatible and must not run partially hooked.
func (l *Lifecycle) InstallAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Uninstalled {
		return errors.Wrapf(ErrAlreadyInstalled, "lifecycle is %s", l.state)
	}
	l.reg.freeze()
	for _, h := range l.reg.Hooks() {
		if err := ctx.Err(); err != nil {
			l.rollback()
			return err
		}
		if err := h.Install(l.host); err != nil {
			l.rollback()
			var ie *InstallError
			if errors.As(err, &ie) {
				return ie
			}
			return &InstallError{Hook: h.Name(), Err: err}
		}
		l.done = append(l.done, h)
	}
	l.setState(Installed)
	return nil
}

func (l *Lifecycle) rollback() {
	for i := len(l.done) - 1; i >= 0; i-- {
		if err := l.done[i].Remove(); err != nil {
			logger.Error().Err(err).Str("hook", l.done[i].Name()).Msg("rollback")
		}
	}
	l.done = nil
}

// Start installs every hook, lets every module subscribe and seals the bus.
func (l *Lifecycle) Start(ctx context.Context) error {
	if err := l.InstallAll(ctx); err != nil {
		return err
	}
	if err := l.reg.startModules(); err != nil {
		l.mu.Lock()
		l.rollback()
		l.setState(Uninstalled)
		l.mu.Unlock()
		return err
	}
	return nil
}

// ShutdownAll stops dispatch, restores every hooked cell in reverse install
// order and waits for running shims to return. Calls after the first are
// no-ops. ErrDrainTimeout means shims were still running when the
// quiescence window ended; the state then stays Draining.
func (l *Lifecycle) ShutdownAll(ctx context.Context) error {
	l.mu.Lock()
	switch l.state {
	case Installed:
	case Draining:
		l.mu.Unlock()
		return l.drain(ctx)
	default:
		l.mu.Unlock()
		return nil
	}
	l.setState(Draining)
	l.reg.bus.Shutdown()
	var first error
	for i := len(l.done) - 1; i >= 0; i-- {
		h := l.done[i]
		if err := h.Remove(); err != nil {
			logger.Error().Err(err).Str("hook", h.Name()).Msg("remove")
			if first == nil {
				first = err
			}
		}
	}
	l.done = nil
	l.mu.Unlock()

	if err := l.drain(ctx); err != nil {
		return err
	}
	return first
}

func (l *Lifecycle) drain(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, l.quiescence)
	defer cancel()
	if err := l.reg.gate.Wait(ctx); err != nil {
		logger.Warn().Int64("in_flight", l.reg.gate.InFlight()).Dur("waited", time.Since(start)).Msg("drain timed out")
		return errors.Wrapf(ErrDrainTimeout, "%d still running", l.reg.gate.InFlight())
	}
	l.mu.Lock()
	if l.state == Draining {
		l.setState(Unloaded)
	}
	l.mu.Unlock()
	logger.Info().Dur("waited", time.Since(start)).Msg("drained")
	return nil
}
