// Package objimage reads the executable sections and symbols of ELF, PE and
// Mach-O files so that signatures can be checked against a binary on disk.
package objimage

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Section is one executable section at its preferred load address.
type Section struct {
	Name string
	Addr uint64
	Data []byte
}

// File is the loadable code of one object file.
type File struct {
	Format   string
	PtrSize  int
	Sections []Section
	Symbols  map[string]uint64
}

// Bounds returns the span from the lowest section start to the highest
// section end.
func (f *File) Bounds() (lo, hi uint64) {
	for i, s := range f.Sections {
		end := s.Addr + uint64(len(s.Data))
		if i == 0 || s.Addr < lo {
			lo = s.Addr
		}
		if end > hi {
			hi = end
		}
	}
	return lo, hi
}

type rawFile interface {
	format() string
	ptrSize() int
	sections() ([]Section, error)
	symbols() (map[string]uint64, error)
}

var objType = []func(io.ReaderAt) (rawFile, error){
	openElf,
	openPE,
	openMacho,
}

// Open parses name with each known format in turn.
func Open(name string) (*File, error) {
	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r, name)
}

// Parse reads an object file from r. name is used in errors only.
func Parse(r io.ReaderAt, name string) (*File, error) {
	for _, try := range objType {
		raw, err := try(r)
		if err != nil {
			continue
		}
		secs, err := raw.sections()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: sections", name)
		}
		syms, err := raw.symbols()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: symbols", name)
		}
		return &File{
			Format:   raw.format(),
			PtrSize:  raw.ptrSize(),
			Sections: secs,
			Symbols:  syms,
		}, nil
	}
	return nil, errors.Errorf("open %s: unrecognized object file", name)
}

// ReadSymbols returns the symbol table of name.
func ReadSymbols(name string) (map[string]uint64, error) {
	f, err := Open(name)
	if err != nil {
		return nil, err
	}
	return f.Symbols, nil
}
