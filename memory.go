package catnip

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
)

// Region is the mapped image of one loaded module.
type Region struct {
	Name string
	Base uintptr
	Size uintptr
}

// Contains reports whether addr lies inside the region.
func (r Region) Contains(addr uintptr) bool {
	return r.Base <= addr && addr < r.Base+r.Size
}

// Memory is access to the address space that holds the patched modules.
type Memory interface {
	// Lookup returns the code region of a loaded module
	Lookup(module string) (Region, error)
	// ReadAt fills p with the bytes at addr
	ReadAt(p []byte, addr uintptr) error
	// Patch writes p at addr whatever the page protection is, and leaves
	// the protection as it found it
	Patch(addr uintptr, p []byte) error
	// PtrSize is the size of a host pointer in bytes
	PtrSize() int
}

// Func is a host-callable routine taking and returning machine words.
type Func func(args ...uintptr) uintptr

// ABI bridges Go functions and host code.
type ABI interface {
	// NewCallback returns an address the host can call to reach fn
	NewCallback(fn Func, argc int) (uintptr, error)
	// Call invokes the host routine at addr
	Call(addr uintptr, args ...uintptr) (uintptr, error)
}

// Allocator is implemented by hosts that can hand out scratch memory the
// host's own code may read and write, such as out-parameters of calls.
type Allocator interface {
	Alloc(size uintptr, prot int) (uintptr, error)
}

// Host is a process whose cells can be rewritten and whose code can be called.
type Host interface {
	Memory
	ABI
}

// ReadPtr reads one host pointer at addr.
func ReadPtr(m Memory, addr uintptr) (uintptr, error) {
	var buf [8]byte
	n := m.PtrSize()
	if err := m.ReadAt(buf[:n], addr); err != nil {
		return 0, errors.Wrapf(err, "read pointer at %#x", addr)
	}
	if n == 4 {
		return uintptr(binary.LittleEndian.Uint32(buf[:4])), nil
	}
	return uintptr(binary.LittleEndian.Uint64(buf[:])), nil
}

// WritePtr patches one host pointer at addr.
func WritePtr(m Memory, addr, v uintptr) error {
	var buf [8]byte
	n := m.PtrSize()
	if n == 4 {
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
	} else {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
	}
	if err := m.Patch(addr, buf[:n]); err != nil {
		return errors.Wrapf(err, "write pointer at %#x", addr)
	}
	return nil
}

// ReadInt32 reads a little-endian int32 at addr.
func ReadInt32(m Memory, addr uintptr) (int32, error) {
	var buf [4]byte
	if err := m.ReadAt(buf[:], addr); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

// cstringChunk bounds each read of ReadCString so it never crosses a page.
const cstringChunk = 0x1000

// ReadCString reads a NUL-terminated string of at most max bytes. It reads
// no further than the page holding the terminator; a mapping that ends
// inside a page is read a byte at a time.
func ReadCString(m Memory, addr uintptr, max int) (string, error) {
	var out []byte
	for len(out) < max {
		cur := addr + uintptr(len(out))
		n := int(cstringChunk - cur%cstringChunk)
		if rest := max - len(out); n > rest {
			n = rest
		}
		buf := make([]byte, n)
		if err := m.ReadAt(buf, cur); err != nil {
			buf = buf[:1]
			if err := m.ReadAt(buf, cur); err != nil {
				return "", err
			}
		}
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			return string(append(out, buf[:i]...)), nil
		}
		out = append(out, buf...)
	}
	return string(out), nil
}

// makeSlice views live process memory as a byte slice.
func makeSlice(addr, size uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

// processPtrSize is the pointer size of the process this package runs in.
const processPtrSize = int(unsafe.Sizeof(uintptr(0)))
