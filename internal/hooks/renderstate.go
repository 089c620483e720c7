package hooks

import (
	"encoding/binary"

	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
)

// Direct3D 9 device methods and states used around overlay dispatch.
const (
	d3dSetRenderState = 57
	d3dGetRenderState = 58

	D3DRSSRGBWriteEnable = 194
)

// RenderStates reads and writes device render states.
type RenderStates interface {
	RenderState(device uintptr, state uint32) (uint32, error)
	SetRenderState(device uintptr, state, value uint32) error
}

// D3D9States calls the device's own GetRenderState and SetRenderState.
type D3D9States struct {
	host catnip.Host
	// out-parameter of GetRenderState
	scratch uintptr
}

// NewD3D9States needs a host that can allocate the out-parameter.
func NewD3D9States(h catnip.Host) (*D3D9States, error) {
	a, ok := h.(catnip.Allocator)
	if !ok {
		return nil, errors.Wrap(catnip.ErrUnsupported, "render states need an allocating host")
	}
	scratch, err := a.Alloc(4, catnip.ProtRW)
	if err != nil {
		return nil, err
	}
	return &D3D9States{host: h, scratch: scratch}, nil
}

func (d *D3D9States) RenderState(device uintptr, state uint32) (uint32, error) {
	if _, err := catnip.VCall(d.host, device, d3dGetRenderState, uintptr(state), d.scratch); err != nil {
		return 0, errors.Wrapf(err, "GetRenderState(%d)", state)
	}
	var buf [4]byte
	if err := d.host.ReadAt(buf[:], d.scratch); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *D3D9States) SetRenderState(device uintptr, state, value uint32) error {
	_, err := catnip.VCall(d.host, device, d3dSetRenderState, uintptr(state), uintptr(value))
	return errors.Wrapf(err, "SetRenderState(%d)", state)
}
