// Package menu is the in-game menu module: it toggles on hot keys, hides
// input from the host while open and asks the other modules to draw.
package menu

import (
	"sync/atomic"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/hooks"
	"github.com/rs/zerolog/log"
)

// Virtual key codes of the default toggle keys.
const (
	VKInsert = 0x2D
	VKF11    = 0x7A
)

// InputSwitch tells the host whether it should receive input.
type InputSwitch interface {
	SetInputEnabled(enabled bool)
}

// Menu is the menu module.
type Menu struct {
	keys  map[uintptr]struct{}
	input InputSwitch
	bus   *catnip.Bus
	open  atomic.Bool

	// OnEject runs on its own goroutine when the user asks to unload
	OnEject func()
	eject   atomic.Bool
}

// New creates the menu toggled by keys. input may be nil.
func New(keys []int, input InputSwitch) *Menu {
	m := &Menu{keys: make(map[uintptr]struct{}), input: input}
	for _, k := range keys {
		m.keys[uintptr(k)] = struct{}{}
	}
	return m
}

func (m *Menu) Name() string {
	return "menu"
}

func (m *Menu) RegisterEvents(b *catnip.Bus) {
	m.bus = b
	b.RegisterEvent(catnip.EventMenu)
	b.RegisterEvent(catnip.EventPostImGuiInput)
}

func (m *Menu) StartListening(l catnip.Listener) {
	l.Listen(catnip.EventWindowProc, m.onWindowProc)
	l.Listen(catnip.EventPresent, m.onFrame)
}

func (m *Menu) IsOpen() bool {
	return m.open.Load()
}

// SetOpen opens or closes the menu and switches host input accordingly.
func (m *Menu) SetOpen(open bool) {
	m.open.Store(open)
	if m.input != nil {
		m.input.SetInputEnabled(!open)
	}
	log.Debug().Bool("open", open).Msg("menu")
}

func (m *Menu) push(id catnip.EventID, data interface{}) catnip.Flags {
	if m.bus == nil {
		return 0
	}
	return m.bus.PushEvent(id, &catnip.Invocation{Event: id, Data: data})
}

// AcceptMsg reports whether the menu swallows the message.
func (m *Menu) AcceptMsg(msg hooks.WndProcArgs) bool {
	if msg.Msg == hooks.WMKeyDown {
		if _, ok := m.keys[msg.WParam]; ok {
			m.SetOpen(!m.IsOpen())
			return true
		}
	}

	hide := m.push(catnip.EventPostImGuiInput, msg).Has(catnip.NoOriginal)
	// swallowing paint makes the host repaint forever
	if msg.Msg == hooks.WMPaint {
		return false
	}
	if m.IsOpen() {
		switch msg.Msg {
		case hooks.WMInput,
			hooks.WMMouseMove, hooks.WMMouseHover, hooks.WMNCMouseHov,
			hooks.WMNCMouseMove, hooks.WMMouseLeave, hooks.WMNCMouseLeav,
			hooks.WMLButtonDown, hooks.WMLButtonDbl,
			hooks.WMRButtonDown, hooks.WMRButtonDbl,
			hooks.WMMButtonDown, hooks.WMMButtonDbl,
			hooks.WMXButtonDown, hooks.WMXButtonDbl,
			hooks.WMMouseWheel, hooks.WMMouseHWheel,
			hooks.WMKeyDown, hooks.WMSysKeyDown, hooks.WMChar:
			return true
		case hooks.WMKeyUp, hooks.WMSysKeyUp,
			hooks.WMLButtonUp, hooks.WMRButtonUp, hooks.WMMButtonUp, hooks.WMXButtonUp:
			// the host must see releases or keys stay pressed
			return false
		}
	}
	return hide
}

func (m *Menu) onWindowProc(inv *catnip.Invocation) catnip.Flags {
	msg, ok := inv.Data.(hooks.WndProcArgs)
	if !ok || !m.AcceptMsg(msg) {
		return 0
	}
	inv.Result = 1
	return catnip.NoOriginal | catnip.Skip
}

func (m *Menu) onFrame(inv *catnip.Invocation) catnip.Flags {
	if !m.IsOpen() {
		return 0
	}
	m.push(catnip.EventMenu, inv.Data)
	return 0
}

// Eject starts OnEject on a new goroutine, at most once. The returned
// channel is closed when OnEject returns.
func (m *Menu) Eject() <-chan struct{} {
	done := make(chan struct{})
	if !m.eject.CompareAndSwap(false, true) || m.OnEject == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		m.OnEject()
	}()
	return done
}
