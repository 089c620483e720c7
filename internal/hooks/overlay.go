package hooks

import (
	"sync/atomic"

	"github.com/fengyoulin/catnip"
	"github.com/rs/zerolog/log"
)

// Overlay signatures: the overlay renderer calls Present and Reset through
// pointer cells it owns.
var (
	overlay64 = struct {
		module, present, reset string
	}{
		"GameOverlayRenderer64.dll",
		"8D 05 ?? ?? ?? ?? 48 8D 15 92 C6 FF FF",
		"FF 15 ?? ?? ?? ?? 8B F8 85 C0 78 23",
	}
	overlay32 = struct {
		module, present, reset string
	}{
		"GameOverlayRenderer.dll",
		"FF 15 ?? ?? ?? ?? 8B F8 85 DB",
		"FF 15 ? ? ? ? 8B F8 85 FF 78 18",
	}
)

// DeviceArgs is the context of Present and Reset.
type DeviceArgs struct {
	Device uintptr
}

// Overlay intercepts Present and Reset of the overlay renderer. Both cells
// are resolved before either is written.
type Overlay struct {
	*catnip.CodePatch

	states RenderStates
	device atomic.Uintptr
}

// NewOverlay builds the overlay hook for a host with the given pointer size.
// states may be nil, in which case Present dispatches without touching
// render states.
func NewOverlay(reg *catnip.Registry, ptrSize int, states RenderStates, ov Overrides) *Overlay {
	o := &Overlay{states: states}

	sigs := overlay64
	var rule catnip.Rule = catnip.RelRIP(2)
	if ptrSize == 4 {
		sigs = overlay32
		rule = catnip.Abs32(2)
	}
	presentSig, presentRule := ov.site("overlay.present", catnip.NewSignature(sigs.module, sigs.present), rule)
	resetSig, resetRule := ov.site("overlay.reset", catnip.NewSignature(sigs.module, sigs.reset), rule)

	present := reg.Shim("overlay", catnip.EventPresent, catnip.WithAround(o.aroundPresent))
	reset := reg.Shim("overlay", catnip.EventReset)

	o.CodePatch = catnip.NewCodePatch("overlay",
		&catnip.Site{
			Sig:  presentSig,
			Rule: presentRule,
			Argc: 5,
			Shim: func(args ...uintptr) uintptr {
				o.device.Store(args[0])
				return present.Run(args, DeviceArgs{Device: args[0]}, o.original(0))
			},
		},
		&catnip.Site{
			Sig:  resetSig,
			Rule: resetRule,
			Argc: 2,
			Shim: func(args ...uintptr) uintptr {
				o.device.Store(args[0])
				return reset.Run(args, DeviceArgs{Device: args[0]}, o.original(1))
			},
		},
	)
	return o
}

// Device returns the device seen by the most recent Present or Reset.
func (o *Overlay) Device() uintptr {
	return o.device.Load()
}

func (o *Overlay) original(site int) catnip.Func {
	return func(args ...uintptr) uintptr {
		r, err := o.CallOriginal(site, args...)
		if err != nil {
			log.Error().Err(err).Int("site", site).Msg("overlay original")
		}
		return r
	}
}

// aroundPresent turns sRGB writes off for the subscribers' drawing and
// restores the host's value before the real Present runs.
func (o *Overlay) aroundPresent(inv *catnip.Invocation, dispatch func()) {
	if o.states == nil {
		dispatch()
		return
	}
	dev := inv.Args[0]
	old, err := o.states.RenderState(dev, D3DRSSRGBWriteEnable)
	if err != nil {
		log.Warn().Err(err).Msg("read sRGB state")
		dispatch()
		return
	}
	if err := o.states.SetRenderState(dev, D3DRSSRGBWriteEnable, 0); err != nil {
		log.Warn().Err(err).Msg("disable sRGB")
	}
	dispatch()
	if err := o.states.SetRenderState(dev, D3DRSSRGBWriteEnable, old); err != nil {
		log.Warn().Err(err).Msg("restore sRGB")
	}
}
