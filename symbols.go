package catnip

import (
	"github.com/fengyoulin/catnip/internal/objimage"
	"github.com/pkg/errors"
)

// GetSymbols returns the symbol table of the object file name.
func GetSymbols(name string) (map[string]uintptr, error) {
	syms, err := objimage.ReadSymbols(name)
	if err != nil {
		return nil, err
	}
	out := make(map[string]uintptr, len(syms))
	for k, v := range syms {
		out[k] = uintptr(v)
	}
	return out, nil
}

// MapFile loads the executable sections of the object file at path into img
// as module, at their preferred addresses. Gaps between sections are mapped
// as zeros so the module reads as one region.
func MapFile(img *Image, path, module string) (Region, error) {
	f, err := objimage.Open(path)
	if err != nil {
		return Region{}, err
	}
	return mapObject(img, f, path, module)
}

// LoadFile maps the object file at path as module into a new image with
// the file's pointer size.
func LoadFile(path, module string) (*Image, Region, error) {
	f, err := objimage.Open(path)
	if err != nil {
		return nil, Region{}, err
	}
	img := NewImage(f.PtrSize)
	r, err := mapObject(img, f, path, module)
	if err != nil {
		return nil, Region{}, err
	}
	return img, r, nil
}

func mapObject(img *Image, f *objimage.File, path, module string) (Region, error) {
	if f.PtrSize != img.PtrSize() {
		return Region{}, errors.Errorf("%s: %d-bit %s into %d-bit image", path, f.PtrSize*8, f.Format, img.PtrSize()*8)
	}
	if len(f.Sections) == 0 {
		return Region{}, errors.Errorf("%s: no executable sections", path)
	}
	lo, hi := f.Bounds()
	buf := make([]byte, hi-lo)
	for _, s := range f.Sections {
		copy(buf[s.Addr-lo:], s.Data)
	}
	r, err := img.Map(module, uintptr(lo), buf, ProtRX)
	if err != nil {
		return Region{}, errors.Wrap(err, path)
	}
	logger.Debug().Str("module", module).Str("file", path).Str("format", f.Format).Str("base", hex(r.Base)).Msg("file mapped")
	return r, nil
}
