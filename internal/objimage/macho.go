package objimage

import (
	"debug/macho"
	"io"
)

type machoFile struct {
	macho *macho.File
}

func openMacho(r io.ReaderAt) (rawFile, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &machoFile{f}, nil
}

func (f *machoFile) format() string {
	return "macho"
}

func (f *machoFile) ptrSize() int {
	if f.macho.Magic == macho.Magic32 {
		return 4
	}
	return 8
}

func (f *machoFile) sections() ([]Section, error) {
	var out []Section
	for _, s := range f.macho.Sections {
		if s.Seg != "__TEXT" || s.Name != "__text" {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, err
		}
		out = append(out, Section{Name: s.Name, Addr: s.Addr, Data: data})
	}
	return out, nil
}

func (f *machoFile) symbols() (map[string]uint64, error) {
	if f.macho.Symtab == nil {
		return map[string]uint64{}, nil
	}
	out := make(map[string]uint64, len(f.macho.Symtab.Syms))
	for _, s := range f.macho.Symtab.Syms {
		out[s.Name] = s.Value
	}
	return out, nil
}
