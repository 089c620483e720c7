// Package resolution registers custom video modes with the engine so an
// exact windowed resolution can be selected.
package resolution

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fengyoulin/catnip"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// MaxModes is the capacity of the engine's mode array.
const MaxModes = 512

var (
	// ErrModeListFull means the mode array has no free entry
	ErrModeListFull = errors.New("video mode array is full")
	// ErrModeCount means the word before the mode array is not the count
	ErrModeCount = errors.New("video mode count not found")
)

// VideoMode is one entry of the engine's mode array.
type VideoMode struct {
	Width       int32 `struc:"int32,little"`
	Height      int32 `struc:"int32,little"`
	BPP         int32 `struc:"int32,little"`
	RefreshRate int32 `struc:"int32,little"`
}

const modeSize = 16

// Engine is the part of the engine client the module drives.
type Engine interface {
	// VideoModes returns the address and length of the sorted mode array
	VideoModes() (addr uintptr, count int, err error)
	ClientCmdUnrestricted(cmd string) error
}

// ReadModes decodes count modes at addr.
func ReadModes(mem catnip.Memory, addr uintptr, count int) ([]VideoMode, error) {
	buf := make([]byte, count*modeSize)
	if err := mem.ReadAt(buf, addr); err != nil {
		return nil, errors.Wrap(err, "read video modes")
	}
	modes := make([]VideoMode, count)
	r := bytes.NewReader(buf)
	for i := range modes {
		if err := struc.Unpack(r, &modes[i]); err != nil {
			return nil, errors.Wrapf(err, "video mode %d", i)
		}
	}
	return modes, nil
}

func writeModes(mem catnip.Memory, addr uintptr, modes []VideoMode) error {
	var buf bytes.Buffer
	for i := range modes {
		if err := struc.Pack(&buf, &modes[i]); err != nil {
			return err
		}
	}
	return mem.Patch(addr, buf.Bytes())
}

// Register inserts a width x height mode into the engine's array, keeping
// it sorted by width then height. It reports false when the mode exists.
func Register(mem catnip.Memory, eng Engine, width, height int) (bool, error) {
	addr, count, err := eng.VideoModes()
	if err != nil {
		return false, err
	}
	modes, err := ReadModes(mem, addr, count)
	if err != nil {
		return false, err
	}
	for _, m := range modes {
		if int(m.Width) == width && int(m.Height) == height {
			return false, nil
		}
	}
	if count >= MaxModes {
		return false, ErrModeListFull
	}
	stored, err := catnip.ReadInt32(mem, addr-4)
	if err != nil {
		return false, errors.Wrap(err, "read video mode count")
	}
	if int(stored) != count {
		return false, errors.Wrapf(ErrModeCount, "found %d, want %d", stored, count)
	}

	mode := VideoMode{Width: int32(width), Height: int32(height)}
	if count > 0 {
		// every mode carries the same depth and rate
		mode.BPP, mode.RefreshRate = modes[0].BPP, modes[0].RefreshRate
	}
	i := count
	for ; i > 0; i-- {
		m := modes[i-1]
		if int(m.Width) < width || (int(m.Width) == width && int(m.Height) < height) {
			break
		}
	}
	modes = append(modes[:i], append([]VideoMode{mode}, modes[i:]...)...)
	if err := writeModes(mem, addr+uintptr(i*modeSize), modes[i:]); err != nil {
		return false, errors.Wrap(err, "write video modes")
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(count+1))
	if err := mem.Patch(addr-4, n[:]); err != nil {
		return false, errors.Wrap(err, "write video mode count")
	}
	return true, nil
}

// Set asks the engine to switch to the registered mode closest to width x
// height, windowed.
func Set(eng Engine, width, height int) error {
	return eng.ClientCmdUnrestricted(fmt.Sprintf("mat_setvideomode %d %d 1", width, height))
}
