package hooks

import (
	"github.com/fengyoulin/catnip"
)

const renderViewDrawFade = 24

// ViewDrawFadeArgs is the context of ViewDrawFade.
type ViewDrawFadeArgs struct {
	Color    uintptr // uint8[4]
	Material uintptr
}

// RenderView hooks the engine render view interface.
type RenderView struct {
	*catnip.VTable
}

// NewRenderView hooks ViewDrawFade of the instance resolved by instance.
func NewRenderView(reg *catnip.Registry, instance catnip.InstanceFunc) *RenderView {
	rv := &RenderView{}
	fade := reg.Shim("render_view", catnip.EventViewDrawFade)
	rv.VTable = catnip.NewVTable("render_view", instance).
		Define(renderViewDrawFade, 3, func(args ...uintptr) uintptr {
			return fade.Run(args, ViewDrawFadeArgs{Color: args[1], Material: args[2]}, original(rv.VTable, renderViewDrawFade))
		})
	return rv
}
