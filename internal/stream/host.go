package stream

import (
	"github.com/fengyoulin/catnip/internal/tweak"
)

// OverrideType is the kind of a forced material override.
type OverrideType int

const (
	OverrideNormal OverrideType = iota
	OverrideBuildShadows
	OverrideDepthWrite
	OverrideSSAODepthWrite
)

// EntityList resolves entity indices.
type EntityList interface {
	// ClientClass returns the client class name of entity index, false if
	// there is no such entity
	ClientClass(index int) (string, bool)
}

// RenderView is the engine's colour and blend state for model drawing.
type RenderView interface {
	ColorModulation() [3]float32
	SetColorModulation(c [3]float32)
	Blend() float32
	SetBlend(b float32)
}

// ModelRender forces a material on the following model draws. A zero
// material clears the override.
type ModelRender interface {
	ForcedMaterialOverride(material uintptr, kind OverrideType)
}

// Material is one loaded host material.
type Material interface {
	tweak.MaterialInfo
	// Handle identifies the material for as long as it stays loaded
	Handle() uintptr
	ColorModulation() [3]float32
	AlphaModulation() float32
	ColorModulate(c [3]float32)
	AlphaModulate(a float32)
}

// MaterialSystem enumerates loaded materials.
type MaterialSystem interface {
	Materials() []Material
}

// Cvars sets console variables.
type Cvars interface {
	SetValue(name, value string) error
}

// Host groups the subsystems the active stream drives.
type Host struct {
	Entities  EntityList
	View      RenderView
	Models    ModelRender
	Materials MaterialSystem
	Cvars     Cvars
}

// CommandCvars sets console variables by running "name value" commands.
type CommandCvars func(cmd string) error

func (c CommandCvars) SetValue(name, value string) error {
	return c(name + " " + value)
}
