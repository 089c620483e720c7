package hooks

import (
	"encoding/binary"
	"math"

	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/arch/x86/x86asm"
)

// Client frame stages.
const (
	FrameUndefined = iota - 1
	FrameStart
	FrameNetUpdateStart
	FrameNetUpdatePostDataUpdateStart
	FrameNetUpdatePostDataUpdateEnd
	FrameNetUpdateEnd
	FrameRenderStart
	FrameRenderEnd
)

const (
	clientHudProcessInput  = 10
	clientFrameStageNotify = 37
	clientModeOverrideView = 16
)

// FrameStageArgs is the context of FrameStageNotify.
type FrameStageArgs struct {
	Stage int
}

// ViewSetup gives handlers access to the view setup being overridden.
type ViewSetup struct {
	mem  catnip.Memory
	addr uintptr
	fov  int
}

// NewViewSetup views the setup at addr whose fov field sits at fovOffset.
func NewViewSetup(mem catnip.Memory, addr uintptr, fovOffset int) *ViewSetup {
	return &ViewSetup{mem: mem, addr: addr, fov: fovOffset}
}

// Addr is the host address of the view setup.
func (v *ViewSetup) Addr() uintptr {
	return v.addr
}

// FOV reads the horizontal field of view in degrees.
func (v *ViewSetup) FOV() (float32, error) {
	var buf [4]byte
	if err := v.mem.ReadAt(buf[:], v.addr+uintptr(v.fov)); err != nil {
		return 0, errors.Wrap(err, "read fov")
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

// SetFOV writes the horizontal field of view in degrees.
func (v *ViewSetup) SetFOV(fov float32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(fov))
	return errors.Wrap(v.mem.Patch(v.addr+uintptr(v.fov), buf[:]), "write fov")
}

// Client hooks FrameStageNotify of the client DLL and OverrideView of the
// client mode. They live on two objects, so Client is two vtable hooks
// installed and removed together.
type Client struct {
	dll  *catnip.VTable
	mode *catnip.VTable
}

// NewClient hooks the client DLL and client mode instances. fovOffset is
// the byte offset of fov inside the view setup.
func NewClient(reg *catnip.Registry, mem catnip.Memory, dll, mode catnip.InstanceFunc, fovOffset int) *Client {
	c := &Client{}
	stage := reg.Shim("client", catnip.EventFrameStageNotify)
	override := reg.Shim("client", catnip.EventOverrideView)

	c.dll = catnip.NewVTable("client", dll).
		Define(clientFrameStageNotify, 2, func(args ...uintptr) uintptr {
			return stage.Run(args, FrameStageArgs{Stage: int(int32(args[1]))}, original(c.dll, clientFrameStageNotify))
		})
	c.mode = catnip.NewVTable("client_mode", mode).
		Define(clientModeOverrideView, 2, func(args ...uintptr) uintptr {
			return override.Run(args, NewViewSetup(mem, args[1], fovOffset), original(c.mode, clientModeOverrideView))
		})
	return c
}

func original(v *catnip.VTable, index int) catnip.Func {
	return func(args ...uintptr) uintptr {
		r, err := v.Call(index, args...)
		if err != nil {
			log.Error().Err(err).Str("hook", v.Name()).Int("slot", index).Msg("call original")
		}
		return r
	}
}

func (c *Client) Name() string {
	return "client"
}

func (c *Client) Install(h catnip.Host) error {
	if err := c.dll.Install(h); err != nil {
		return err
	}
	if err := c.mode.Install(h); err != nil {
		c.dll.Remove()
		return err
	}
	return nil
}

func (c *Client) Remove() error {
	err := c.mode.Remove()
	if err2 := c.dll.Remove(); err == nil {
		err = err2
	}
	return err
}

func (c *Client) Installed() bool {
	return c.dll.Installed() && c.mode.Installed()
}

// ClientMode finds the client mode through the client DLL: HudProcessInput
// forwards to the client mode, and the first pointer it loads is the
// client mode global.
func ClientMode(dll catnip.InstanceFunc) catnip.InstanceFunc {
	return func(h catnip.Host) (uintptr, error) {
		inst, err := dll(h)
		if err != nil {
			return 0, err
		}
		table, err := catnip.ReadPtr(h, inst)
		if err != nil {
			return 0, err
		}
		fn, err := catnip.ReadPtr(h, table+uintptr(clientHudProcessInput*h.PtrSize()))
		if err != nil {
			return 0, err
		}
		insts, err := catnip.Disasm(h, fn, 8)
		if len(insts) == 0 {
			return 0, errors.Wrapf(err, "client mode: decode %#x", fn)
		}
		pc := fn
		for _, in := range insts {
			if in.Op == x86asm.MOV {
				if _, ok := in.Args[0].(x86asm.Reg); ok {
					if cell, err := (catnip.Decoded{}).Cell(h, pc); err == nil {
						mode, err := catnip.ReadPtr(h, cell)
						if err == nil && mode != 0 {
							log.Debug().Uint64("cell", uint64(cell)).Uint64("mode", uint64(mode)).Msg("client mode found")
							return mode, nil
						}
					}
				}
			}
			pc += uintptr(in.Len)
		}
		return 0, errors.Errorf("client mode: no pointer load in HudProcessInput at %#x", fn)
	}
}
