package catnip

import (
	"sync"

	"github.com/pkg/errors"
)

// InstanceFunc resolves the live object whose virtual table is patched.
type InstanceFunc func(h Host) (uintptr, error)

type slotDef struct {
	index int
	argc  int
	fn    Func
	addr  uintptr
}

// VTable patches slots of the virtual table of one live instance. Every
// instance sharing the table is affected. Each slot keeps its own saved
// original, so unrelated slots never clobber each other on restore.
type VTable struct {
	name     string
	instance InstanceFunc
	defs     []*slotDef

	mu    sync.Mutex
	host  Host
	table uintptr
	slots map[int]*patch
	order []int
	// originals outlive Remove so late shim calls can still pass through
	origins map[int]uintptr
}

// NewVTable creates a vtable hook. instance may be nil when the caller uses
// Attach and Set directly instead of Install.
func NewVTable(name string, instance InstanceFunc) *VTable {
	return &VTable{
		name:     name,
		instance: instance,
		slots:    make(map[int]*patch),
		origins:  make(map[int]uintptr),
	}
}

// Define registers a shim that Install writes into slot index.
func (v *VTable) Define(index, argc int, fn Func) *VTable {
	v.defs = append(v.defs, &slotDef{index: index, argc: argc, fn: fn})
	return v
}

func (v *VTable) Name() string {
	return v.name
}

// Table returns the address of the attached virtual table.
func (v *VTable) Table() uintptr {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.table
}

// Attach reads the vtable pointer of instance.
func (v *VTable) Attach(h Host, instance uintptr) error {
	table, err := ReadPtr(h, instance)
	if err != nil {
		return errors.Wrapf(err, "%s: vtable of %#x", v.name, instance)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.order) > 0 {
		return ErrAlreadyInstalled
	}
	v.host = h
	v.table = table
	return nil
}

// SlotAddr returns the address of slot index in the attached table, zero
// before Attach.
func (v *VTable) SlotAddr(index int) uintptr {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.host == nil {
		return 0
	}
	return v.slotAddr(index)
}

func (v *VTable) slotAddr(index int) uintptr {
	return v.table + uintptr(index*v.host.PtrSize())
}

// Set saves slot index and overwrites it with shim.
func (v *VTable) Set(index int, shim uintptr) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.host == nil {
		return errors.Wrapf(ErrNotInstalled, "%s: not attached", v.name)
	}
	if _, ok := v.slots[index]; ok {
		return errors.Wrapf(ErrDoubleHook, "%s: slot %d", v.name, index)
	}
	p := &patch{cell: v.slotAddr(index), shim: shim}
	if err := p.apply(v.host); err != nil {
		return err
	}
	v.slots[index] = p
	v.order = append(v.order, index)
	v.origins[index] = p.origin
	return nil
}

// Original returns the saved value of slot index, zero if it is not hooked.
func (v *VTable) Original(index int) uintptr {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.origins[index]
}

// Call invokes the saved original of slot index.
func (v *VTable) Call(index int, args ...uintptr) (uintptr, error) {
	v.mu.Lock()
	h, orig := v.host, v.origins[index]
	v.mu.Unlock()
	if orig == 0 {
		return 0, errors.Wrapf(ErrNotInstalled, "%s: slot %d", v.name, index)
	}
	return h.Call(orig, args...)
}

// Install attaches to the resolved instance and writes every defined slot.
func (v *VTable) Install(h Host) error {
	if v.instance == nil {
		return &InstallError{Hook: v.name, Err: errors.New("no instance resolver")}
	}
	inst, err := v.instance(h)
	if err != nil {
		return &InstallError{Hook: v.name, Err: err}
	}
	if err := v.Attach(h, inst); err != nil {
		return &InstallError{Hook: v.name, Err: err}
	}
	for _, d := range v.defs {
		if d.addr == 0 {
			addr, err := h.NewCallback(d.fn, d.argc)
			if err != nil {
				v.Remove()
				return &InstallError{Hook: v.name, Err: err}
			}
			d.addr = addr
		}
		if err := v.Set(d.index, d.addr); err != nil {
			v.Remove()
			return &InstallError{Hook: v.name, Err: err}
		}
	}
	logger.Info().Str("hook", v.name).Str("vtable", hex(v.Table())).Int("slots", len(v.defs)).Msg("hook installed")
	return nil
}

// Remove restores every slot in reverse order of Set.
func (v *VTable) Remove() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.order) == 0 {
		return ErrNotInstalled
	}
	var first error
	for i := len(v.order) - 1; i >= 0; i-- {
		p := v.slots[v.order[i]]
		if err := p.restore(v.host); err != nil && first == nil {
			first = errors.Wrapf(err, "remove %s slot %d", v.name, v.order[i])
		}
	}
	v.order = nil
	v.slots = make(map[int]*patch)
	logger.Info().Str("hook", v.name).Msg("hook removed")
	return first
}

func (v *VTable) Installed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.order) > 0
}

// VCall calls virtual method index of the object at this, passing this as
// the first argument.
func VCall(h Host, this uintptr, index int, args ...uintptr) (uintptr, error) {
	table, err := ReadPtr(h, this)
	if err != nil {
		return 0, err
	}
	fn, err := ReadPtr(h, table+uintptr(index*h.PtrSize()))
	if err != nil {
		return 0, err
	}
	return h.Call(fn, append([]uintptr{this}, args...)...)
}
