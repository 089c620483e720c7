//go:build windows

package catnip

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// processHost is the address space of the current process.
type processHost struct{}

// Process returns the host for the current process.
func Process() Host {
	return processHost{}
}

func (processHost) PtrSize() int {
	return processPtrSize
}

func (processHost) Lookup(module string) (Region, error) {
	name, err := windows.UTF16PtrFromString(module)
	if err != nil {
		return Region{}, err
	}
	var h windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, name, &h); err != nil {
		return Region{}, errors.Wrapf(ErrModuleNotLoaded, "%s: %v", module, err)
	}
	var mi windows.ModuleInfo
	if err := windows.GetModuleInformation(windows.CurrentProcess(), h, &mi, uint32(unsafe.Sizeof(mi))); err != nil {
		return Region{}, errors.Wrapf(err, "module information %s", module)
	}
	return Region{Name: module, Base: mi.BaseOfDll, Size: uintptr(mi.SizeOfImage)}, nil
}

func (processHost) ReadAt(p []byte, addr uintptr) error {
	copy(p, makeSlice(addr, uintptr(len(p))))
	return nil
}

func (processHost) Patch(addr uintptr, p []byte) error {
	size := uintptr(len(p))
	var old uint32
	if err := windows.VirtualProtect(addr, size, windows.PAGE_EXECUTE_READWRITE, &old); err != nil {
		return errors.Wrapf(err, "VirtualProtect %#x", addr)
	}
	copy(makeSlice(addr, size), p)
	var tmp uint32
	if err := windows.VirtualProtect(addr, size, old, &tmp); err != nil {
		return errors.Wrapf(err, "VirtualProtect restore %#x", addr)
	}
	return nil
}

// Alloc commits fresh pages. They are never released.
func (processHost) Alloc(size uintptr, prot int) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, pageProt(prot))
	if err != nil {
		return 0, errors.Wrap(err, "VirtualAlloc")
	}
	return addr, nil
}

func pageProt(prot int) uint32 {
	switch {
	case prot&ProtExec != 0 && prot&ProtWrite != 0:
		return windows.PAGE_EXECUTE_READWRITE
	case prot&ProtExec != 0:
		return windows.PAGE_EXECUTE_READ
	case prot&ProtWrite != 0:
		return windows.PAGE_READWRITE
	}
	return windows.PAGE_READONLY
}

// NewCallback wraps fn in a stdcall trampoline. Windows caps the number of
// callbacks a process may create, so hooks create theirs once and reuse it
// across install cycles.
func (processHost) NewCallback(fn Func, argc int) (uintptr, error) {
	var cb interface{}
	switch argc {
	case 0:
		cb = func() uintptr { return fn() }
	case 1:
		cb = func(a uintptr) uintptr { return fn(a) }
	case 2:
		cb = func(a, b uintptr) uintptr { return fn(a, b) }
	case 3:
		cb = func(a, b, c uintptr) uintptr { return fn(a, b, c) }
	case 4:
		cb = func(a, b, c, d uintptr) uintptr { return fn(a, b, c, d) }
	case 5:
		cb = func(a, b, c, d, e uintptr) uintptr { return fn(a, b, c, d, e) }
	case 6:
		cb = func(a, b, c, d, e, f uintptr) uintptr { return fn(a, b, c, d, e, f) }
	default:
		return 0, errors.Errorf("callback with %d arguments: %v", argc, ErrUnsupported)
	}
	return windows.NewCallback(cb), nil
}

func (processHost) Call(addr uintptr, args ...uintptr) (uintptr, error) {
	r, _, _ := syscall.SyscallN(addr, args...)
	return r, nil
}
