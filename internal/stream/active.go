// Package stream applies the render tweaks of the active stream from inside
// the model, client and render view hooks.
package stream

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/hooks"
	"github.com/fengyoulin/catnip/internal/tweak"
	"github.com/rs/zerolog/log"
)

type materialParams struct {
	name  string
	color [3]float32
	alpha float32
}

type dmeParams struct {
	affected bool
	color    [3]float32
	blend    float32
}

// Active holds the stream whose tweaks are applied to the frames being
// drawn.
type Active struct {
	host Host

	mu              sync.RWMutex
	stream          *tweak.Stream
	updateMaterials bool

	// guards affected and dme
	matMu    sync.Mutex
	affected map[uintptr]materialParams
	dme      dmeParams
}

// NewActive creates the module. A nil subsystem of host disables the
// tweaks that drive it.
func NewActive(host Host) *Active {
	return &Active{host: host, affected: make(map[uintptr]materialParams)}
}

func (a *Active) Name() string {
	return "active_stream"
}

func (a *Active) StartListening(l catnip.Listener) {
	l.Listen(catnip.EventDrawProp, a.onDrawProp)
	l.Listen(catnip.EventDrawPropArray, a.onDrawProp)
	l.Listen(catnip.EventPreDrawModel, a.preDrawModel)
	l.Listen(catnip.EventPostDrawModel, a.postDrawModel)
	l.Listen(catnip.EventFrameStageNotify, a.onFrameStageNotify)
	l.Listen(catnip.EventOverrideView, a.onOverrideView)
}

// Get returns the active stream, nil if there is none.
func (a *Active) Get() *tweak.Stream {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stream
}

// Set makes s the active stream. Materials are updated on the next frame
// when the stream changes.
func (a *Active) Set(s *tweak.Stream) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updateMaterials = a.stream != s
	a.stream = s
	a.updateCvars()
}

// SignalUpdate tells the module that the tweaks of s changed. A nil s
// stands for whichever stream is active.
func (a *Active) SignalUpdate(s *tweak.Stream, materials bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stream == nil {
		return
	}
	if s == nil || s == a.stream {
		a.updateMaterials = a.updateMaterials || materials
		a.updateCvars()
	}
}

// PendingMaterialUpdate reports whether the next render start frame will
// update materials.
func (a *Active) PendingMaterialUpdate() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.updateMaterials
}

func (a *Active) setCvar(name, value string) {
	if a.host.Cvars == nil {
		return
	}
	if err := a.host.Cvars.SetValue(name, value); err != nil {
		log.Warn().Err(err).Str("cvar", name).Msg("set cvar")
	}
}

func boolCvar(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (a *Active) updateCvars() {
	a.updateFog()
	if misc, ok := tweak.First[*tweak.Misc](a.stream); ok {
		a.setCvar("r_drawviewmodel", boolCvar(misc.ViewModel))
		a.setCvar("cl_drawhud", boolCvar(misc.HUD))
		a.setCvar("r_drawstaticprops", boolCvar(misc.Props))
		a.setCvar("r_shadows", boolCvar(misc.Shadows))
		a.setCvar("r_3dsky", boolCvar(misc.Skybox))
		a.setCvar("r_skybox", boolCvar(misc.Skybox))
		a.setCvar("r_drawparticles", boolCvar(misc.Particles))
	}
}

func (a *Active) updateFog() {
	fog, ok := tweak.First[*tweak.Fog](a.stream)
	if !ok {
		a.setCvar("fog_override", "0")
		return
	}
	a.setCvar("fog_override", "1")
	for _, layer := range []struct {
		suffix string
		p      tweak.FogParams
	}{{"", fog.Fog}, {"skybox", fog.SkyFog}} {
		rgb := layer.p.RGB()
		a.setCvar("fog_enable"+layer.suffix, boolCvar(layer.p.Enabled))
		a.setCvar("fog_start"+layer.suffix, strconv.Itoa(layer.p.Start))
		a.setCvar("fog_end"+layer.suffix, strconv.Itoa(layer.p.End))
		a.setCvar("fog_color"+layer.suffix, fmt.Sprintf("%d %d %d", rgb[0], rgb[1], rgb[2]))
	}
}

// UpdateMaterials applies the material tweaks of the active stream to every
// loaded material and restores materials no tweak affects any more.
func (a *Active) UpdateMaterials() {
	a.mu.Lock()
	a.updateMaterials = false
	s := a.stream
	a.mu.Unlock()
	if a.host.Materials == nil {
		return
	}

	tweaks := tweak.Of[*tweak.Material](s)
	a.matMu.Lock()
	defer a.matMu.Unlock()
	for _, mat := range a.host.Materials.Materials() {
		hit := false
		for _, t := range tweaks {
			if t.IsMaterialAffected(mat) {
				hit = true
				a.setMaterialColor(mat, t.Color)
			}
		}
		if !hit {
			a.restoreMaterial(mat)
		}
	}
}

func (a *Active) storeMaterial(mat Material) {
	if old, ok := a.affected[mat.Handle()]; ok && old.name == mat.Name() {
		return
	}
	a.affected[mat.Handle()] = materialParams{
		name:  mat.Name(),
		color: mat.ColorModulation(),
		alpha: mat.AlphaModulation(),
	}
}

func (a *Active) restoreMaterial(mat Material) {
	old, ok := a.affected[mat.Handle()]
	if !ok {
		return
	}
	// the handle may have been reused by another material
	if old.name == mat.Name() {
		mat.ColorModulate(old.color)
		mat.AlphaModulate(old.alpha)
	}
	delete(a.affected, mat.Handle())
}

func (a *Active) setMaterialColor(mat Material, c tweak.Color) {
	a.storeMaterial(mat)
	mat.ColorModulate([3]float32{c[0], c[1], c[2]})
	mat.AlphaModulate(c[3])
}

func (a *Active) onDrawProp(*catnip.Invocation) catnip.Flags {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if t, ok := tweak.First[*tweak.PropRender](a.stream); ok && t.Hide {
		return catnip.NoOriginal
	}
	return 0
}

func (a *Active) preDrawModel(inv *catnip.Invocation) catnip.Flags {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.stream == nil {
		return 0
	}
	d, ok := inv.Data.(*hooks.DrawModelArgs)
	if !ok || d.Info == nil || a.host.Entities == nil {
		return 0
	}
	class, ok := a.host.Entities.ClientClass(int(d.Info.EntityIndex))
	if !ok {
		return 0
	}

	a.matMu.Lock()
	defer a.matMu.Unlock()
	for _, t := range tweak.Of[*tweak.EntityFilter](a.stream) {
		if !t.IsEntityAffected(class) {
			continue
		}
		if t.IsEffectInvisible() {
			// no post event follows a suppressed draw
			a.restoreDME()
			return catnip.NoOriginal
		}
		if !a.dme.affected {
			a.dme.affected = true
			if a.host.View != nil {
				a.dme.color = a.host.View.ColorModulation()
				a.dme.blend = a.host.View.Blend()
			}
		}
		if a.host.View != nil {
			a.host.View.SetColorModulation([3]float32{t.Color[0], t.Color[1], t.Color[2]})
			a.host.View.SetBlend(t.Color[3])
		}
		if t.Effect == tweak.MaterialCustom && t.CustomMaterial != 0 && a.host.Models != nil {
			a.host.Models.ForcedMaterialOverride(t.CustomMaterial, OverrideNormal)
		}
	}
	return 0
}

func (a *Active) postDrawModel(*catnip.Invocation) catnip.Flags {
	a.matMu.Lock()
	defer a.matMu.Unlock()
	a.restoreDME()
	return 0
}

func (a *Active) restoreDME() {
	if !a.dme.affected {
		return
	}
	if a.host.Models != nil {
		a.host.Models.ForcedMaterialOverride(0, OverrideNormal)
	}
	if a.host.View != nil {
		a.host.View.SetColorModulation(a.dme.color)
		a.host.View.SetBlend(a.dme.blend)
	}
	a.dme = dmeParams{}
}

func (a *Active) onFrameStageNotify(inv *catnip.Invocation) catnip.Flags {
	d, ok := inv.Data.(hooks.FrameStageArgs)
	if !ok || d.Stage != hooks.FrameRenderStart {
		return 0
	}
	if a.PendingMaterialUpdate() {
		a.UpdateMaterials()
	}
	return 0
}

func (a *Active) onOverrideView(inv *catnip.Invocation) catnip.Flags {
	a.mu.RLock()
	defer a.mu.RUnlock()
	vs, ok := inv.Data.(*hooks.ViewSetup)
	if !ok {
		return 0
	}
	for _, t := range tweak.Of[*tweak.Camera](a.stream) {
		if !t.FOVOverride {
			continue
		}
		if err := vs.SetFOV(t.FOV); err != nil {
			log.Warn().Err(err).Msg("override fov")
		}
	}
	return 0
}
