package hooks

import (
	"bytes"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/fengyoulin/catnip"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ModelRenderSlots are the virtual indices of the hooked model render
// methods. They differ between host builds.
type ModelRenderSlots struct {
	DrawModelExecute        int
	DrawModelExStaticProp   int
	DrawStaticPropArrayFast int
}

// DefaultModelRenderSlots are the indices of the supported host build.
var DefaultModelRenderSlots = ModelRenderSlots{
	DrawModelExecute:        19,
	DrawModelExStaticProp:   29,
	DrawStaticPropArrayFast: 30,
}

// ModelRenderInfo is the decoded render info of one DrawModelExecute call.
type ModelRenderInfo struct {
	Origin         [3]float32
	Angles         [3]float32
	Renderable     uint64
	Model          uint64
	ModelToWorld   uint64
	LightingOffset uint64
	LightingOrigin uint64
	Flags          int32
	EntityIndex    int32
	Skin           int32
	Body           int32
	HitboxSet      int32
	Instance       uint16
}

type modelRenderInfo32 struct {
	Origin         [3]float32
	Angles         [3]float32
	Renderable     uint32
	Model          uint32
	ModelToWorld   uint32
	LightingOffset uint32
	LightingOrigin uint32
	Flags          int32
	EntityIndex    int32
	Skin           int32
	Body           int32
	HitboxSet      int32
	Instance       uint16
}

// ReadModelRenderInfo decodes the render info at addr.
func ReadModelRenderInfo(m catnip.Memory, addr uintptr) (*ModelRenderInfo, error) {
	var info ModelRenderInfo
	if m.PtrSize() == 8 {
		size, _ := struc.Sizeof(&info)
		buf := make([]byte, size)
		if err := m.ReadAt(buf, addr); err != nil {
			return nil, errors.Wrap(err, "model render info")
		}
		if err := struc.UnpackWithOrder(bytes.NewReader(buf), &info, binary.LittleEndian); err != nil {
			return nil, err
		}
		return &info, nil
	}
	var i32 modelRenderInfo32
	size, _ := struc.Sizeof(&i32)
	buf := make([]byte, size)
	if err := m.ReadAt(buf, addr); err != nil {
		return nil, errors.Wrap(err, "model render info")
	}
	if err := struc.UnpackWithOrder(bytes.NewReader(buf), &i32, binary.LittleEndian); err != nil {
		return nil, err
	}
	info = ModelRenderInfo{
		Origin:         i32.Origin,
		Angles:         i32.Angles,
		Renderable:     uint64(i32.Renderable),
		Model:          uint64(i32.Model),
		ModelToWorld:   uint64(i32.ModelToWorld),
		LightingOffset: uint64(i32.LightingOffset),
		LightingOrigin: uint64(i32.LightingOrigin),
		Flags:          i32.Flags,
		EntityIndex:    i32.EntityIndex,
		Skin:           i32.Skin,
		Body:           i32.Body,
		HitboxSet:      i32.HitboxSet,
		Instance:       i32.Instance,
	}
	return &info, nil
}

// DrawModelArgs is the context of the pre and post DrawModelExecute events.
type DrawModelArgs struct {
	State uintptr
	Info  *ModelRenderInfo
	// InfoAddr is the host address Info was read from
	InfoAddr  uintptr
	ModelName string
	Bones     uintptr
}

// DrawPropArgs is the context of the static prop events.
type DrawPropArgs struct {
	Args []uintptr
}

// ModelNamer resolves a model pointer to its name.
type ModelNamer interface {
	ModelName(model uintptr) (string, error)
}

// ModelRender hooks model drawing and records which models were drawn.
type ModelRender struct {
	*catnip.VTable

	host  catnip.Memory
	namer ModelNamer
	slots ModelRenderSlots

	mu    sync.Mutex
	drawn map[string]struct{}
}

// NewModelRender hooks the model render instance. namer may be nil, in
// which case model names are neither resolved nor recorded.
func NewModelRender(reg *catnip.Registry, mem catnip.Memory, instance catnip.InstanceFunc, namer ModelNamer, slots ModelRenderSlots) *ModelRender {
	mr := &ModelRender{host: mem, namer: namer, slots: slots, drawn: make(map[string]struct{})}

	dme := reg.Shim("model_render", catnip.EventPreDrawModel, catnip.WithPost(catnip.EventPostDrawModel))
	prop := reg.Shim("model_render", catnip.EventDrawProp)
	propArray := reg.Shim("model_render", catnip.EventDrawPropArray)

	mr.VTable = catnip.NewVTable("model_render", instance).
		Define(slots.DrawModelExecute, 4, func(args ...uintptr) uintptr {
			return dme.Run(args, mr.drawModelArgs(args), original(mr.VTable, slots.DrawModelExecute))
		}).
		Define(slots.DrawModelExStaticProp, 2, func(args ...uintptr) uintptr {
			return prop.Run(args, DrawPropArgs{Args: args[1:]}, original(mr.VTable, slots.DrawModelExStaticProp))
		}).
		Define(slots.DrawStaticPropArrayFast, 4, func(args ...uintptr) uintptr {
			return propArray.Run(args, DrawPropArgs{Args: args[1:]}, original(mr.VTable, slots.DrawStaticPropArrayFast))
		})
	return mr
}

func (mr *ModelRender) drawModelArgs(args []uintptr) *DrawModelArgs {
	d := &DrawModelArgs{State: args[1], InfoAddr: args[2], Bones: args[3]}
	info, err := ReadModelRenderInfo(mr.host, args[2])
	if err != nil {
		log.Debug().Err(err).Msg("draw model info")
		return d
	}
	d.Info = info
	if mr.namer != nil && info.Model != 0 {
		if name, err := mr.namer.ModelName(uintptr(info.Model)); err == nil {
			d.ModelName = name
			mr.mu.Lock()
			mr.drawn[name] = struct{}{}
			mr.mu.Unlock()
		}
	}
	return d
}

// DrawnModels returns the sorted names of the models drawn since the last
// ClearDrawnModels.
func (mr *ModelRender) DrawnModels() []string {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	out := make([]string, 0, len(mr.drawn))
	for name := range mr.drawn {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ClearDrawnModels forgets every recorded model.
func (mr *ModelRender) ClearDrawnModels() {
	mr.mu.Lock()
	mr.drawn = make(map[string]struct{})
	mr.mu.Unlock()
}

// ModelInfo names models through the host's model info interface.
type ModelInfo struct {
	Host     catnip.Host
	Instance uintptr
	// Index of GetModelName in the interface
	Index int
}

func (mi ModelInfo) ModelName(model uintptr) (string, error) {
	p, err := catnip.VCall(mi.Host, mi.Instance, mi.Index, model)
	if err != nil {
		return "", err
	}
	if p == 0 {
		return "", errors.New("unnamed model")
	}
	return catnip.ReadCString(mi.Host, p, 260)
}
