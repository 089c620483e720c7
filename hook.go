package catnip

import (
	"errors"
	"fmt"
)

// Hook is one interception point inside the host process.
type Hook interface {
	// Name identifies the hook in logs and in the registry
	Name() string
	// Install rewrites the hook's cells so that host calls reach its shims
	Install(h Host) error
	// Remove writes every saved original value back
	Remove() error
	// Installed reports whether the cells currently hold the shims
	Installed() bool
}

// patch is one rewritten pointer-sized cell.
type patch struct {
	// the cell being rewritten
	cell uintptr
	// the value found in the cell before the shim was written
	origin uintptr
	// the value written in place of origin
	shim uintptr
	// set while the cell holds shim
	applied bool
}

func (p *patch) apply(m Memory) error {
	orig, err := ReadPtr(m, p.cell)
	if err != nil {
		return err
	}
	p.origin = orig
	if err := WritePtr(m, p.cell, p.shim); err != nil {
		return err
	}
	p.applied = true
	logger.Debug().
		Str("cell", hex(p.cell)).
		Str("original", hex(p.origin)).
		Str("shim", hex(p.shim)).
		Msg("cell patched")
	return nil
}

func (p *patch) restore(m Memory) error {
	if !p.applied {
		return nil
	}
	if err := WritePtr(m, p.cell, p.origin); err != nil {
		return err
	}
	p.applied = false
	logger.Debug().
		Str("cell", hex(p.cell)).
		Str("original", hex(p.origin)).
		Msg("cell restored")
	return nil
}

func hex(v uintptr) string {
	return fmt.Sprintf("%#x", v)
}

// InstallError marks a hook that could not be installed. The host binary is
// considered incompatible with this build; callers must not run with a
// partially hooked process.
type InstallError struct {
	Hook string
	Err  error
}

func (e *InstallError) Error() string {
	return "install " + e.Hook + ": " + e.Err.Error()
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

var (
	// ErrDoubleHook means already hooked
	ErrDoubleHook = errors.New("double hook")
	// ErrHookNotFound means the hook not found
	ErrHookNotFound = errors.New("hook not found")
	// ErrAlreadyInstalled means Install was called twice without Remove
	ErrAlreadyInstalled = errors.New("hook already installed")
	// ErrNotInstalled means the hook has no saved original
	ErrNotInstalled = errors.New("hook not installed")
	// ErrInputType means inputs are not func type
	ErrInputType = errors.New("inputs are not func type")
	// ErrModuleNotLoaded means the named module is not mapped in the host
	ErrModuleNotLoaded = errors.New("module not loaded")
	// ErrPatternNotFound means no address in the module matched the pattern
	ErrPatternNotFound = errors.New("pattern not found")
	// ErrNoDisplacement means the matched instruction has no usable memory operand
	ErrNoDisplacement = errors.New("instruction has no displacement")
	// ErrUnsupported means the host cannot perform the operation on this platform
	ErrUnsupported = errors.New("unsupported on this host")
	// ErrFrozen means the registry no longer accepts hooks or modules
	ErrFrozen = errors.New("registry frozen")
	// ErrSealed means the bus no longer accepts subscriptions
	ErrSealed = errors.New("bus sealed")
	// ErrUnknownEvent means the event was never registered
	ErrUnknownEvent = errors.New("unknown event")
	// ErrDrainTimeout means shims were still running when the quiescence window ended
	ErrDrainTimeout = errors.New("in-flight calls did not drain")
)
