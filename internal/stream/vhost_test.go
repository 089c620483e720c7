package stream

import (
	"testing"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/tweak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// object lays out an instance at a fresh address whose table holds fns.
func object(t *testing.T, img *catnip.Image, fns map[int]catnip.Func) uintptr {
	t.Helper()
	inst, err := img.Alloc(0x40, catnip.ProtRW)
	require.NoError(t, err)
	place(t, img, inst, fns)
	return inst
}

// place writes a table holding fns into the first word at addr.
func place(t *testing.T, img *catnip.Image, addr uintptr, fns map[int]catnip.Func) {
	t.Helper()
	table, err := img.Alloc(8*16, catnip.ProtRead)
	require.NoError(t, err)
	for i, fn := range fns {
		cb, err := img.NewCallback(fn, 0)
		require.NoError(t, err)
		require.NoError(t, img.PutPtr(table+uintptr(8*i), cb))
	}
	require.NoError(t, img.PutPtr(addr, table))
}

func TestHostEntityList(t *testing.T) {
	img := catnip.NewImage(8)
	name, err := img.Alloc(16, catnip.ProtRead)
	require.NoError(t, err)
	require.NoError(t, img.Patch(name, []byte("CTFPlayer\x00")))
	class, err := img.Alloc(0x20, catnip.ProtRead)
	require.NoError(t, err)
	require.NoError(t, img.PutPtr(class+16, name))

	ent, err := img.Alloc(0x40, catnip.ProtRW)
	require.NoError(t, err)
	var networkable uintptr
	place(t, img, ent+16, map[int]catnip.Func{
		DefaultEntitySlots.GetClientClass: func(args ...uintptr) uintptr {
			networkable = args[0]
			return class
		},
	})
	list := object(t, img, map[int]catnip.Func{
		DefaultEntitySlots.GetClientEntity: func(args ...uintptr) uintptr {
			if args[1] == 5 {
				return ent
			}
			return 0
		},
	})

	el := HostEntityList{Host: img, Instance: list, Slots: DefaultEntitySlots}
	s, ok := el.ClientClass(5)
	require.True(t, ok)
	assert.Equal(t, "CTFPlayer", s)
	assert.Equal(t, ent+16, networkable)

	_, ok = el.ClientClass(6)
	assert.False(t, ok)
}

func TestHostModelRender(t *testing.T) {
	img := catnip.NewImage(8)
	var got [][]uintptr
	inst := object(t, img, map[int]catnip.Func{
		DefaultForcedMaterialOverride: func(args ...uintptr) uintptr {
			got = append(got, args)
			return 0
		},
	})
	mr := HostModelRender{Host: img, Instance: inst, Index: DefaultForcedMaterialOverride}
	mr.ForcedMaterialOverride(0x77, OverrideDepthWrite)
	mr.ForcedMaterialOverride(0, OverrideNormal)
	assert.Equal(t, [][]uintptr{{inst, 0x77, 2}, {inst, 0, 0}}, got)
}

// Without colour or material subsystems the entity filter still hides
// entities and forces custom materials.
func TestPartialHost(t *testing.T) {
	img := catnip.NewImage(8)
	var overrides []uintptr
	inst := object(t, img, map[int]catnip.Func{
		DefaultForcedMaterialOverride: func(args ...uintptr) uintptr {
			overrides = append(overrides, args[1])
			return 0
		},
	})
	var cmds []string
	a := NewActive(Host{
		Entities: entityNames{1: "CTFPlayer", 2: "CTFAmmoPack"},
		Models:   HostModelRender{Host: img, Instance: inst, Index: DefaultForcedMaterialOverride},
		Cvars:    CommandCvars(func(cmd string) error { cmds = append(cmds, cmd); return nil }),
	})

	custom := tweak.NewEntityFilter()
	custom.Filter = tweak.FilterWhitelist
	custom.Player = true
	custom.Effect = tweak.MaterialCustom
	custom.CustomMaterial = 0x99
	hide := tweak.NewEntityFilter()
	hide.Filter = tweak.FilterWhitelist
	hide.AddClass("CTFAmmoPack")
	hide.Effect = tweak.MaterialInvisible
	a.Set(tweak.NewStream("s", custom, hide))
	assert.Contains(t, cmds, "fog_override 0")

	assert.Equal(t, catnip.Flags(0), a.preDrawModel(drawArgs(1)))
	a.postDrawModel(nil)
	assert.Equal(t, []uintptr{0x99, 0}, overrides)

	assert.Equal(t, catnip.NoOriginal, a.preDrawModel(drawArgs(2)))

	// material updates are skipped
	a.onFrameStageNotify(&catnip.Invocation{})
	a.UpdateMaterials()
	assert.False(t, a.PendingMaterialUpdate())
}

type entityNames map[int]string

func (e entityNames) ClientClass(index int) (string, bool) {
	s, ok := e[index]
	return s, ok
}
