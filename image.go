package catnip

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Page protections of an Image segment.
const (
	ProtRead = 1 << iota
	ProtWrite
	ProtExec

	ProtRW  = ProtRead | ProtWrite
	ProtRX  = ProtRead | ProtExec
	ProtAll = ProtRead | ProtWrite | ProtExec
)

// thunkBase is where Image places the addresses it hands out for callbacks.
// It is never mapped, so data reads there fail.
const thunkBase = 0x7ff00000

// MemError describes a faulting access to an Image.
type MemError struct {
	Addr   uintptr
	Size   int
	Reason string
}

func (m *MemError) Error() string {
	return fmt.Sprintf("%s at %#x(%d)", m.Reason, m.Addr, m.Size)
}

type segment struct {
	name string
	addr uintptr
	data []byte
	prot int
}

func (s *segment) end() uintptr {
	return s.addr + uintptr(len(s.data))
}

func (s *segment) contains(addr uintptr) bool {
	return s.addr <= addr && addr < s.end()
}

// Image is an in-memory host: a set of mapped segments, named module regions
// and a table of host-callable routines. It stands in for a live process when
// scanning module files offline and in tests.
type Image struct {
	mu      sync.RWMutex
	ptrSize int
	segs    []*segment
	modules map[string]Region
	funcs   map[uintptr]Func
	next    uintptr
	brk     uintptr
}

// NewImage creates an empty image with the given pointer size (4 or 8).
func NewImage(ptrSize int) *Image {
	if ptrSize != 4 && ptrSize != 8 {
		panic(fmt.Sprintf("bad pointer size %d", ptrSize))
	}
	return &Image{
		ptrSize: ptrSize,
		modules: make(map[string]Region),
		funcs:   make(map[uintptr]Func),
		next:    thunkBase,
		brk:     0x40000000,
	}
}

func (m *Image) PtrSize() int {
	return m.ptrSize
}

// Map places data at addr. A non-empty name with exec protection records
// the segment as the module's code region; later exec segments of the same
// module widen it.
func (m *Image) Map(name string, addr uintptr, data []byte, prot int) (Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := addr + uintptr(len(data))
	for _, s := range m.segs {
		if addr < s.end() && s.addr < end {
			return Region{}, errors.Errorf("segment %#x-%#x overlaps %#x-%#x", addr, end, s.addr, s.end())
		}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.segs = append(m.segs, &segment{name: name, addr: addr, data: buf, prot: prot})
	sort.Slice(m.segs, func(i, j int) bool { return m.segs[i].addr < m.segs[j].addr })

	if name == "" || prot&ProtExec == 0 {
		return Region{Name: name, Base: addr, Size: uintptr(len(data))}, nil
	}
	r, ok := m.modules[name]
	if !ok {
		r = Region{Name: name, Base: addr, Size: uintptr(len(data))}
	} else {
		lo, hi := r.Base, r.Base+r.Size
		if addr < lo {
			lo = addr
		}
		if end > hi {
			hi = end
		}
		r.Base, r.Size = lo, hi-lo
	}
	m.modules[name] = r
	return r, nil
}

// Alloc maps size zeroed bytes at a fresh address.
func (m *Image) Alloc(size uintptr, prot int) (uintptr, error) {
	m.mu.Lock()
	addr := m.brk
	m.brk += (size + 0xfff) &^ 0xfff
	m.mu.Unlock()
	if _, err := m.Map("", addr, make([]byte, size), prot); err != nil {
		return 0, err
	}
	return addr, nil
}

func (m *Image) Lookup(module string) (Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.modules[module]
	if !ok {
		return Region{}, errors.Wrap(ErrModuleNotLoaded, module)
	}
	return r, nil
}

// access walks the segments covering addr..addr+len(p), calling fn with the
// overlapping byte ranges. Every byte must be mapped with prot.
func (m *Image) access(addr uintptr, size int, prot int, fn func(seg []byte, off int)) error {
	done := 0
	for done < size {
		cur := addr + uintptr(done)
		var seg *segment
		for _, s := range m.segs {
			if s.contains(cur) {
				seg = s
				break
			}
		}
		if seg == nil {
			return &MemError{Addr: cur, Size: size - done, Reason: "unmapped access"}
		}
		if seg.prot&prot != prot {
			return &MemError{Addr: cur, Size: size - done, Reason: "protected access"}
		}
		n := int(seg.end() - cur)
		if n > size-done {
			n = size - done
		}
		start := int(cur - seg.addr)
		fn(seg.data[start:start+n], done)
		done += n
	}
	return nil
}

func (m *Image) ReadAt(p []byte, addr uintptr) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access(addr, len(p), ProtRead, func(seg []byte, off int) {
		copy(p[off:], seg)
	})
}

// WriteAt writes p honouring page protections, like a host store would.
func (m *Image) WriteAt(p []byte, addr uintptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access(addr, len(p), ProtWrite, func(seg []byte, off int) {
		copy(seg, p[off:])
	})
}

func (m *Image) Patch(addr uintptr, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access(addr, len(p), 0, func(seg []byte, off int) {
		copy(seg, p[off:])
	})
}

// NewCallback registers fn and returns its address. argc is not checked.
func (m *Image) NewCallback(fn Func, argc int) (uintptr, error) {
	if fn == nil {
		return 0, errors.New("nil callback")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := m.next
	m.next += 0x10
	m.funcs[addr] = fn
	return addr, nil
}

func (m *Image) Call(addr uintptr, args ...uintptr) (uintptr, error) {
	m.mu.RLock()
	fn, ok := m.funcs[addr]
	m.mu.RUnlock()
	if !ok {
		return 0, &MemError{Addr: addr, Size: 1, Reason: "call to non-routine"}
	}
	return fn(args...), nil
}

// CallThrough reads the routine address stored in cell and calls it, the way
// host code calls through an import slot or a vtable entry.
func (m *Image) CallThrough(cell uintptr, args ...uintptr) (uintptr, error) {
	addr, err := ReadPtr(m, cell)
	if err != nil {
		return 0, err
	}
	return m.Call(addr, args...)
}

// PutPtr stores a pointer ignoring protections. It is meant for laying out
// host data structures.
func (m *Image) PutPtr(addr, v uintptr) error {
	return WritePtr(m, addr, v)
}
