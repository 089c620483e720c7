package stream

import (
	"github.com/fengyoulin/catnip"
	"github.com/rs/zerolog/log"
)

// EntitySlots locate the entity class name through the entity list.
// Offsets are in pointers.
type EntitySlots struct {
	GetClientEntity int
	// offset of the networkable base inside an entity
	Networkable    int
	GetClientClass int
	// offset of the network name inside a client class
	NetworkName int
}

// DefaultEntitySlots are the layout of the supported host build.
var DefaultEntitySlots = EntitySlots{
	GetClientEntity: 3,
	Networkable:     2,
	GetClientClass:  2,
	NetworkName:     2,
}

// HostEntityList reads entity classes through the host's entity list.
type HostEntityList struct {
	Host     catnip.Host
	Instance uintptr
	Slots    EntitySlots
}

func (e HostEntityList) ClientClass(index int) (string, bool) {
	ps := uintptr(e.Host.PtrSize())
	ent, err := catnip.VCall(e.Host, e.Instance, e.Slots.GetClientEntity, uintptr(index))
	if err != nil || ent == 0 {
		return "", false
	}
	class, err := catnip.VCall(e.Host, ent+uintptr(e.Slots.Networkable)*ps, e.Slots.GetClientClass)
	if err != nil || class == 0 {
		return "", false
	}
	name, err := catnip.ReadPtr(e.Host, class+uintptr(e.Slots.NetworkName)*ps)
	if err != nil || name == 0 {
		return "", false
	}
	s, err := catnip.ReadCString(e.Host, name, 64)
	if err != nil {
		log.Debug().Err(err).Int("entity", index).Msg("client class name")
		return "", false
	}
	return s, true
}

// DefaultForcedMaterialOverride is the index of ForcedMaterialOverride in
// the model render interface.
const DefaultForcedMaterialOverride = 1

// HostModelRender forces materials through the host's model render
// interface.
type HostModelRender struct {
	Host     catnip.Host
	Instance uintptr
	Index    int
}

func (m HostModelRender) ForcedMaterialOverride(material uintptr, kind OverrideType) {
	if _, err := catnip.VCall(m.Host, m.Instance, m.Index, material, uintptr(kind)); err != nil {
		log.Warn().Err(err).Msg("forced material override")
	}
}
