package hooks

import (
	"encoding/binary"
	"testing"

	"github.com/fengyoulin/catnip"
	"github.com/stretchr/testify/require"
)

// newObject lays out an instance whose virtual table has n slots; slots
// not in fns stay zero.
func newObject(t *testing.T, img *catnip.Image, n int, fns map[int]catnip.Func) (inst, table uintptr) {
	t.Helper()
	ps := uintptr(img.PtrSize())
	table, err := img.Alloc(ps*uintptr(n), catnip.ProtRead)
	require.NoError(t, err)
	for i, fn := range fns {
		addr, err := img.NewCallback(fn, 0)
		require.NoError(t, err)
		require.NoError(t, img.PutPtr(table+ps*uintptr(i), addr))
	}
	inst, err = img.Alloc(0x100, catnip.ProtRW)
	require.NoError(t, err)
	require.NoError(t, img.PutPtr(inst, table))
	return inst, table
}

func instanceOf(inst uintptr) catnip.InstanceFunc {
	return func(catnip.Host) (uintptr, error) { return inst, nil }
}

func slot(table uintptr, i int) uintptr {
	return table + uintptr(8*i)
}

func appendDisp(code []byte, cell, end uintptr) []byte {
	return binary.LittleEndian.AppendUint32(code, uint32(int32(cell-end)))
}

// overlayModule maps a 64-bit overlay renderer whose Present and Reset
// call sites reference two cells holding present and reset.
func overlayModule(t *testing.T, img *catnip.Image, present, reset catnip.Func) (presentCell, resetCell uintptr) {
	t.Helper()
	const base = uintptr(0x30000000)
	presentCell, resetCell = base+0x1000, base+0x1008

	code := []byte{0x90, 0x48, 0x8D, 0x05}
	code = appendDisp(code, presentCell, base+uintptr(len(code))+4)
	code = append(code, 0x48, 0x8D, 0x15, 0x92, 0xC6, 0xFF, 0xFF)
	code = append(code, 0xFF, 0x15)
	code = appendDisp(code, resetCell, base+uintptr(len(code))+4)
	code = append(code, 0x8B, 0xF8, 0x85, 0xC0, 0x78, 0x23, 0xC3)
	for len(code) < 64 {
		code = append(code, 0xCC)
	}
	_, err := img.Map("GameOverlayRenderer64.dll", base, code, catnip.ProtRX)
	require.NoError(t, err)
	_, err = img.Map("", base+0x1000, make([]byte, 0x10), catnip.ProtRead)
	require.NoError(t, err)

	for cell, fn := range map[uintptr]catnip.Func{presentCell: present, resetCell: reset} {
		addr, err := img.NewCallback(fn, 0)
		require.NoError(t, err)
		require.NoError(t, img.PutPtr(cell, addr))
	}
	return presentCell, resetCell
}
