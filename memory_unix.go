//go:build !windows

package catnip

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var pageSize uintptr

func init() {
	pageSize = uintptr(unix.Getpagesize())
}

// processHost is the address space of the current process.
type processHost struct{}

// Process returns the host for the current process. Cells can be read and
// patched in place; native callbacks need a platform ABI and are not
// available here.
func Process() Host {
	return processHost{}
}

func (processHost) PtrSize() int {
	return processPtrSize
}

// mapping is one line of /proc/self/maps.
type mapping struct {
	start, end uintptr
	prot       int
	path       string
}

func readMaps() ([]mapping, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, errors.Wrap(err, "open maps")
	}
	defer f.Close()
	var maps []mapping
	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 5 {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err1 := strconv.ParseUint(bounds[0], 16, 64)
		end, err2 := strconv.ParseUint(bounds[1], 16, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		m := mapping{start: uintptr(start), end: uintptr(end)}
		perms := fields[1]
		if strings.Contains(perms, "r") {
			m.prot |= unix.PROT_READ
		}
		if strings.Contains(perms, "w") {
			m.prot |= unix.PROT_WRITE
		}
		if strings.Contains(perms, "x") {
			m.prot |= unix.PROT_EXEC
		}
		if len(fields) >= 6 {
			m.path = fields[5]
		}
		maps = append(maps, m)
	}
	return maps, s.Err()
}

// Lookup returns the executable mapping of the module whose file name or
// path equals module.
func (processHost) Lookup(module string) (Region, error) {
	maps, err := readMaps()
	if err != nil {
		return Region{}, err
	}
	for _, m := range maps {
		if m.prot&unix.PROT_EXEC == 0 || m.path == "" {
			continue
		}
		if m.path == module || filepath.Base(m.path) == module {
			return Region{Name: module, Base: m.start, Size: m.end - m.start}, nil
		}
	}
	return Region{}, errors.Wrap(ErrModuleNotLoaded, module)
}

func (processHost) ReadAt(p []byte, addr uintptr) error {
	copy(p, makeSlice(addr, uintptr(len(p))))
	return nil
}

func (processHost) Patch(addr uintptr, p []byte) error {
	size := uintptr(len(p))
	prot, err := currentProt(addr)
	if err != nil {
		return err
	}
	if err := protectPages(addr, size, prot|unix.PROT_WRITE); err != nil {
		return err
	}
	copy(makeSlice(addr, size), p)
	return protectPages(addr, size, prot)
}

func (processHost) NewCallback(fn Func, argc int) (uintptr, error) {
	return 0, ErrUnsupported
}

func (processHost) Call(addr uintptr, args ...uintptr) (uintptr, error) {
	return 0, ErrUnsupported
}

// Alloc maps fresh anonymous pages. They are never released.
func (processHost) Alloc(size uintptr, prot int) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, int(size), unixProt(prot), unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, errors.Wrap(err, "mmap")
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

func unixProt(prot int) int {
	var p int
	if prot&ProtRead != 0 {
		p |= unix.PROT_READ
	}
	if prot&ProtWrite != 0 {
		p |= unix.PROT_WRITE
	}
	if prot&ProtExec != 0 {
		p |= unix.PROT_EXEC
	}
	return p
}

func currentProt(addr uintptr) (int, error) {
	maps, err := readMaps()
	if err != nil {
		return 0, err
	}
	for _, m := range maps {
		if m.start <= addr && addr < m.end {
			return m.prot, nil
		}
	}
	return 0, errors.Errorf("address %#x is not mapped", addr)
}

func protectPages(addr, size uintptr, prot int) error {
	start := pageSize * (addr / pageSize)
	length := pageSize * ((addr + size + pageSize - 1 - start) / pageSize)
	for i := uintptr(0); i < length; i += pageSize {
		data := makeSlice(start+i, pageSize)
		err := unix.Mprotect(data, prot)
		if err != nil {
			return errors.Wrapf(err, "mprotect %#x", start+i)
		}
	}
	return nil
}
