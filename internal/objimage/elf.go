package objimage

import (
	"debug/elf"
	"io"
)

type elfFile struct {
	elf *elf.File
}

func openElf(r io.ReaderAt) (rawFile, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &elfFile{f}, nil
}

func (e *elfFile) format() string {
	return "elf"
}

func (e *elfFile) ptrSize() int {
	if e.elf.Class == elf.ELFCLASS32 {
		return 4
	}
	return 8
}

func (e *elfFile) sections() ([]Section, error) {
	var out []Section
	for _, s := range e.elf.Sections {
		if s.Flags&elf.SHF_EXECINSTR == 0 || s.Type != elf.SHT_PROGBITS {
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

func (e *elfFile) symbols() (map[string]uint64, error) {
	syms, err := e.elf.Symbols()
	if err == elf.ErrNoSymbols {
		return map[string]uint64{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]uint64, len(syms))
	for _, k := range syms {
		if k.Name != "" {
			out[k.Name] = k.Value
		}
	}
	return out, nil
}
