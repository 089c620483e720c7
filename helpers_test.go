package catnip

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	modBase  = uintptr(0x10000000)
	dataBase = uintptr(0x10001000)
)

var (
	sigPresent = NewSignature("game.dll", "FF 15 ?? ?? ?? ?? 8B F8")
	sigReset   = NewSignature("game.dll", "FF 15 ?? ?? ?? ?? 8B D8")
	sigMissing = NewSignature("game.dll", "FF 15 ?? ?? ?? ?? 8B C8")
)

// newHost maps game.dll with one "call [rip+disp]" site per routine. Site i
// calls through cell i of a read-only data page; the cell holds routine i.
func newHost(t *testing.T, routines ...Func) (*Image, []uintptr) {
	t.Helper()
	require.LessOrEqual(t, len(routines), 2)
	img := NewImage(8)
	tails := [][]byte{{0x8B, 0xF8}, {0x8B, 0xD8}}
	code := []byte{0x90, 0x90}
	var cells []uintptr
	for i := range routines {
		cell := dataBase + uintptr(8*i)
		site := modBase + uintptr(len(code))
		code = append(code, 0xFF, 0x15)
		code = binary.LittleEndian.AppendUint32(code, uint32(int32(cell-(site+6))))
		code = append(code, tails[i]...)
		cells = append(cells, cell)
	}
	code = append(code, 0xC3)
	for len(code) < 64 {
		code = append(code, 0xCC)
	}
	_, err := img.Map("game.dll", modBase, code, ProtRX)
	require.NoError(t, err)
	_, err = img.Map("", dataBase, make([]byte, 0x100), ProtRead)
	require.NoError(t, err)
	for i, fn := range routines {
		addr, err := img.NewCallback(fn, 1)
		require.NoError(t, err)
		require.NoError(t, img.PutPtr(cells[i], addr))
	}
	return img, cells
}

// newObject lays out an instance whose first word points at a virtual
// table holding fns.
func newObject(t *testing.T, img *Image, fns ...Func) (inst, table uintptr) {
	t.Helper()
	ps := uintptr(img.PtrSize())
	table, err := img.Alloc(ps*uintptr(len(fns)), ProtRead)
	require.NoError(t, err)
	for i, fn := range fns {
		addr, err := img.NewCallback(fn, 2)
		require.NoError(t, err)
		require.NoError(t, img.PutPtr(table+ps*uintptr(i), addr))
	}
	inst, err = img.Alloc(4*ps, ProtRW)
	require.NoError(t, err)
	require.NoError(t, img.PutPtr(inst, table))
	return inst, table
}

func mustReadPtr(t *testing.T, m Memory, addr uintptr) uintptr {
	t.Helper()
	v, err := ReadPtr(m, addr)
	require.NoError(t, err)
	return v
}
