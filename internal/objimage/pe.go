package objimage

import (
	"debug/pe"
	"io"
)

type peFile struct {
	pe   *pe.File
	base uint64
}

func openPE(r io.ReaderAt) (rawFile, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}
	p := &peFile{pe: f}
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		p.base = uint64(oh.ImageBase)
	case *pe.OptionalHeader64:
		p.base = oh.ImageBase
	}
	return p, nil
}

func (f *peFile) format() string {
	return "pe"
}

func (f *peFile) ptrSize() int {
	if _, ok := f.pe.OptionalHeader.(*pe.OptionalHeader32); ok {
		return 4
	}
	return 8
}

func (f *peFile) sections() ([]Section, error) {
	var out []Section
	for _, s := range f.pe.Sections {
		if s.Characteristics&pe.IMAGE_SCN_MEM_EXECUTE == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, err
		}
		out = append(out, Section{Name: s.Name, Addr: f.base + uint64(s.VirtualAddress), Data: data})
	}
	return out, nil
}

// symbols returns COFF symbols, which release builds usually strip.
func (f *peFile) symbols() (map[string]uint64, error) {
	out := make(map[string]uint64, len(f.pe.Symbols))
	for _, s := range f.pe.Symbols {
		if s.SectionNumber <= 0 || int(s.SectionNumber) > len(f.pe.Sections) {
			continue
		}
		sec := f.pe.Sections[s.SectionNumber-1]
		out[s.Name] = f.base + uint64(sec.VirtualAddress) + uint64(s.Value)
	}
	return out, nil
}
