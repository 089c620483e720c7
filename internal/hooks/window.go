package hooks

import (
	"sync"
	"sync/atomic"

	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Window messages the menu cares about.
const (
	WMPaint       = 0x000F
	WMInput       = 0x00FF
	WMKeyDown     = 0x0100
	WMKeyUp       = 0x0101
	WMChar        = 0x0102
	WMSysKeyDown  = 0x0104
	WMSysKeyUp    = 0x0105
	WMMouseMove   = 0x0200
	WMLButtonDown = 0x0201
	WMLButtonUp   = 0x0202
	WMLButtonDbl  = 0x0203
	WMRButtonDown = 0x0204
	WMRButtonUp   = 0x0205
	WMRButtonDbl  = 0x0206
	WMMButtonDown = 0x0207
	WMMButtonUp   = 0x0208
	WMMButtonDbl  = 0x0209
	WMMouseWheel  = 0x020A
	WMXButtonDown = 0x020B
	WMXButtonUp   = 0x020C
	WMXButtonDbl  = 0x020D
	WMMouseHWheel = 0x020E
	WMNCMouseMove = 0x00A0
	WMNCMouseHov  = 0x02A0
	WMMouseHover  = 0x02A1
	WMNCMouseLeav = 0x02A2
	WMMouseLeave  = 0x02A3
)

// WndProcArgs is the context of the window procedure event. Handlers that
// swallow a message set Invocation.Result and return NoOriginal.
type WndProcArgs struct {
	Hwnd   uintptr
	Msg    uint32
	WParam uintptr
	LParam uintptr
}

// WindowProcs swaps and calls the procedure of the host window.
type WindowProcs interface {
	// SwapWndProc installs proc and returns the procedure it replaced
	SwapWndProc(proc uintptr) (uintptr, error)
	// CallWndProc forwards a message to proc
	CallWndProc(proc, hwnd, msg, wparam, lparam uintptr) uintptr
}

// Window replaces the host window procedure.
type Window struct {
	procs WindowProcs
	shim  *catnip.Shim
	// OnInput, when set, is told whether the host should receive input
	OnInput func(enabled bool)

	mu        sync.Mutex
	cb        uintptr
	old       uintptr
	installed bool
	input     atomic.Bool
}

// NewWindow builds the window procedure hook.
func NewWindow(reg *catnip.Registry, procs WindowProcs) *Window {
	w := &Window{procs: procs, shim: reg.Shim("window", catnip.EventWindowProc)}
	w.input.Store(true)
	return w
}

func (w *Window) Name() string {
	return "window"
}

func (w *Window) wndProc(args ...uintptr) uintptr {
	data := WndProcArgs{Hwnd: args[0], Msg: uint32(args[1]), WParam: args[2], LParam: args[3]}
	return w.shim.Run(args, data, func(a ...uintptr) uintptr {
		w.mu.Lock()
		old := w.old
		w.mu.Unlock()
		return w.procs.CallWndProc(old, a[0], a[1], a[2], a[3])
	})
}

func (w *Window) Install(h catnip.Host) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.installed {
		return catnip.ErrAlreadyInstalled
	}
	if w.cb == 0 {
		cb, err := h.NewCallback(w.wndProc, 4)
		if err != nil {
			return &catnip.InstallError{Hook: w.Name(), Err: err}
		}
		w.cb = cb
	}
	old, err := w.procs.SwapWndProc(w.cb)
	if err != nil {
		return &catnip.InstallError{Hook: w.Name(), Err: err}
	}
	w.old = old
	w.installed = true
	log.Info().Str("hook", w.Name()).Msg("hook installed")
	return nil
}

func (w *Window) Remove() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.installed {
		return catnip.ErrNotInstalled
	}
	if _, err := w.procs.SwapWndProc(w.old); err != nil {
		return errors.Wrap(err, "restore window procedure")
	}
	// old stays set: messages already inside the shim still forward to it
	w.installed = false
	log.Info().Str("hook", w.Name()).Msg("hook removed")
	return nil
}

func (w *Window) Installed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.installed
}

// SetInputEnabled records whether the host should receive input.
func (w *Window) SetInputEnabled(enabled bool) {
	w.input.Store(enabled)
	if w.OnInput != nil {
		w.OnInput(enabled)
	}
}

// InputEnabled reports the last value given to SetInputEnabled.
func (w *Window) InputEnabled() bool {
	return w.input.Load()
}
