package catnip

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"
)

// Rule turns a matched call site into the address of the pointer cell it
// references.
type Rule interface {
	Cell(mem Memory, site uintptr) (uintptr, error)
}

// RelRIP reads a signed 32-bit displacement at site+off that is relative to
// the end of the displacement itself, as in x64 "FF 15 disp32".
type RelRIP int

func (r RelRIP) Cell(mem Memory, site uintptr) (uintptr, error) {
	disp, err := ReadInt32(mem, site+uintptr(r))
	if err != nil {
		return 0, errors.Wrapf(err, "displacement at %#x", site+uintptr(r))
	}
	return site + uintptr(r) + 4 + uintptr(int64(disp)), nil
}

// Abs32 reads an absolute 32-bit address at site+off, as in x86 "FF 15 abs32".
type Abs32 int

func (a Abs32) Cell(mem Memory, site uintptr) (uintptr, error) {
	var buf [4]byte
	if err := mem.ReadAt(buf[:], site+uintptr(a)); err != nil {
		return 0, errors.Wrapf(err, "address at %#x", site+uintptr(a))
	}
	return uintptr(binary.LittleEndian.Uint32(buf[:])), nil
}

// Decoded decodes the instruction at the site and takes the cell from its
// memory operand. Mode is 32 or 64; zero picks the host pointer size.
type Decoded struct {
	Mode int
}

func (d Decoded) Cell(mem Memory, site uintptr) (uintptr, error) {
	mode := d.Mode
	if mode == 0 {
		mode = mem.PtrSize() * 8
	}
	var buf [15]byte
	if err := mem.ReadAt(buf[:], site); err != nil {
		return 0, errors.Wrapf(err, "instruction at %#x", site)
	}
	inst, err := x86asm.Decode(buf[:], mode)
	if err != nil {
		return 0, errors.Wrapf(err, "decode at %#x", site)
	}
	for _, a := range inst.Args {
		m, ok := a.(x86asm.Mem)
		if !ok {
			continue
		}
		if m.Base == x86asm.RIP {
			return site + uintptr(inst.Len) + uintptr(m.Disp), nil
		}
		if mode == 32 && m.Base == 0 && m.Index == 0 {
			return uintptr(uint32(m.Disp)), nil
		}
	}
	return 0, errors.Wrapf(ErrNoDisplacement, "%v at %#x", inst, site)
}

// Disasm decodes up to n instructions starting at addr.
func Disasm(mem Memory, addr uintptr, n int) ([]x86asm.Inst, error) {
	buf := make([]byte, 15*n)
	if err := mem.ReadAt(buf, addr); err != nil {
		// the tail may run past the mapping; retry with what fits
		buf = buf[:15]
		if err := mem.ReadAt(buf, addr); err != nil {
			return nil, err
		}
	}
	var out []x86asm.Inst
	for i := 0; i < n && len(buf) > 0; i++ {
		inst, err := x86asm.Decode(buf, mem.PtrSize()*8)
		if err != nil {
			return out, err
		}
		out = append(out, inst)
		buf = buf[inst.Len:]
	}
	return out, nil
}
