package hooks

import (
	"context"
	"testing"

	"github.com/fengyoulin/catnip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcs struct {
	cur       uintptr
	forwarded []uint32
}

func (f *fakeProcs) SwapWndProc(proc uintptr) (uintptr, error) {
	old := f.cur
	f.cur = proc
	return old, nil
}

func (f *fakeProcs) CallWndProc(proc, hwnd, msg, wparam, lparam uintptr) uintptr {
	if proc != 0xDEF {
		return 0
	}
	f.forwarded = append(f.forwarded, uint32(msg))
	return 0x11
}

func TestWindow(t *testing.T) {
	img := catnip.NewImage(8)
	procs := &fakeProcs{cur: 0xDEF}
	reg := catnip.NewRegistry()
	w := NewWindow(reg, procs)
	require.NoError(t, reg.AddHook(w))
	_, err := reg.Bus().Listen(catnip.EventWindowProc, "menu", func(inv *catnip.Invocation) catnip.Flags {
		if inv.Data.(WndProcArgs).Msg == WMKeyDown {
			inv.Result = 1
			return catnip.NoOriginal
		}
		return 0
	})
	require.NoError(t, err)

	lc := catnip.NewLifecycle(reg, img)
	require.NoError(t, lc.Start(context.Background()))
	require.True(t, w.Installed())
	cb := procs.cur
	assert.NotEqual(t, uintptr(0xDEF), cb)

	r, err := img.Call(cb, 0x1, WMKeyDown, 0x2D, 0)
	require.NoError(t, err)
	assert.Equal(t, uintptr(1), r)
	r, err = img.Call(cb, 0x1, WMPaint, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x11), r)
	assert.Equal(t, []uint32{WMPaint}, procs.forwarded)

	require.NoError(t, lc.ShutdownAll(context.Background()))
	assert.Equal(t, uintptr(0xDEF), procs.cur)
	assert.False(t, w.Installed())
	assert.ErrorIs(t, w.Remove(), catnip.ErrNotInstalled)
}

func TestWindowInput(t *testing.T) {
	var got []bool
	w := NewWindow(catnip.NewRegistry(), &fakeProcs{})
	assert.True(t, w.InputEnabled())
	w.OnInput = func(enabled bool) { got = append(got, enabled) }
	w.SetInputEnabled(false)
	w.SetInputEnabled(true)
	assert.True(t, w.InputEnabled())
	assert.Equal(t, []bool{false, true}, got)
}
