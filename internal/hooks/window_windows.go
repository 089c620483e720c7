//go:build windows

package hooks

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW      = user32.NewProc("FindWindowW")
	procSetWindowLongPtr = user32.NewProc("SetWindowLongPtrW")
	procCallWindowProcW  = user32.NewProc("CallWindowProcW")
)

const gwlpWndProc = ^uintptr(3) // GWLP_WNDPROC (-4)

// Win32Window swaps the procedure of one top-level window.
type Win32Window struct {
	HWND windows.HWND
}

// FindWindow locates the top-level window of class.
func FindWindow(class string) (*Win32Window, error) {
	p, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return nil, err
	}
	r, _, e := procFindWindowW.Call(uintptr(unsafe.Pointer(p)), 0)
	if r == 0 {
		return nil, errors.Wrapf(e, "FindWindow %q", class)
	}
	return &Win32Window{HWND: windows.HWND(r)}, nil
}

func (w *Win32Window) SwapWndProc(proc uintptr) (uintptr, error) {
	r, _, e := procSetWindowLongPtr.Call(uintptr(w.HWND), gwlpWndProc, proc)
	if r == 0 && e != windows.ERROR_SUCCESS {
		return 0, errors.Wrap(e, "SetWindowLongPtr")
	}
	return r, nil
}

func (w *Win32Window) CallWndProc(proc, hwnd, msg, wparam, lparam uintptr) uintptr {
	r, _, _ := procCallWindowProcW.Call(proc, hwnd, msg, wparam, lparam)
	return r
}
