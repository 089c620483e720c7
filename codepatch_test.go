package catnip

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodePatchInstallRemove(t *testing.T) {
	var calls []string
	img, cells := newHost(t, func(args ...uintptr) uintptr {
		calls = append(calls, "original")
		return args[0] + 1
	})
	before := mustReadPtr(t, img, cells[0])

	var cp *CodePatch
	cp = NewCodePatch("present", &Site{
		Sig:  sigPresent,
		Rule: RelRIP(2),
		Argc: 1,
		Shim: func(args ...uintptr) uintptr {
			calls = append(calls, "shim")
			r, err := cp.CallOriginal(0, args...)
			if err != nil {
				return 0
			}
			return r * 10
		},
	})
	assert.Equal(t, "present", cp.Name())
	assert.False(t, cp.Installed())

	require.NoError(t, cp.Install(img))
	assert.True(t, cp.Installed())
	assert.Equal(t, cells[0], cp.Site(0).Cell())
	assert.Equal(t, before, cp.Site(0).Original())
	assert.NotEqual(t, before, mustReadPtr(t, img, cells[0]))

	r, err := img.CallThrough(cells[0], 4)
	require.NoError(t, err)
	assert.Equal(t, uintptr(50), r)
	assert.Equal(t, []string{"shim", "original"}, calls)

	assert.ErrorIs(t, cp.Install(img), ErrAlreadyInstalled)

	require.NoError(t, cp.Remove())
	assert.False(t, cp.Installed())
	assert.Equal(t, before, mustReadPtr(t, img, cells[0]))

	calls = nil
	r, err = img.CallThrough(cells[0], 4)
	require.NoError(t, err)
	assert.Equal(t, uintptr(5), r)
	assert.Equal(t, []string{"original"}, calls)

	assert.ErrorIs(t, cp.Remove(), ErrNotInstalled)
}

func TestCodePatchReinstall(t *testing.T) {
	img, cells := newHost(t, func(...uintptr) uintptr { return 1 })
	cp := NewCodePatch("present", &Site{Sig: sigPresent, Rule: RelRIP(2), Shim: func(...uintptr) uintptr { return 2 }})

	require.NoError(t, cp.Install(img))
	shim := mustReadPtr(t, img, cells[0])
	require.NoError(t, cp.Remove())
	require.NoError(t, cp.Install(img))
	assert.Equal(t, shim, mustReadPtr(t, img, cells[0]))
	require.NoError(t, cp.Remove())
}

func TestCodePatchMultipleSites(t *testing.T) {
	img, cells := newHost(t,
		func(...uintptr) uintptr { return 1 },
		func(...uintptr) uintptr { return 2 },
	)
	cp := NewCodePatch("overlay",
		&Site{Sig: sigPresent, Rule: RelRIP(2), Shim: func(...uintptr) uintptr { return 10 }},
		&Site{Sig: sigReset, Rule: Decoded{}, Shim: func(...uintptr) uintptr { return 20 }},
	)
	require.NoError(t, cp.Install(img))

	r, err := img.CallThrough(cells[0])
	require.NoError(t, err)
	assert.Equal(t, uintptr(10), r)
	r, err = img.CallThrough(cells[1])
	require.NoError(t, err)
	assert.Equal(t, uintptr(20), r)

	r, err = cp.CallOriginal(1)
	require.NoError(t, err)
	assert.Equal(t, uintptr(2), r)

	require.NoError(t, cp.Remove())
	r, err = img.CallThrough(cells[1])
	require.NoError(t, err)
	assert.Equal(t, uintptr(2), r)
}

func TestCodePatchAllOrNothing(t *testing.T) {
	img, cells := newHost(t, func(...uintptr) uintptr { return 1 })
	before := mustReadPtr(t, img, cells[0])

	cp := NewCodePatch("overlay",
		&Site{Sig: sigPresent, Rule: RelRIP(2), Shim: func(...uintptr) uintptr { return 10 }},
		&Site{Sig: sigMissing, Rule: RelRIP(2), Shim: func(...uintptr) uintptr { return 20 }},
	)
	err := cp.Install(img)
	var ie *InstallError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "overlay", ie.Hook)
	assert.ErrorIs(t, err, ErrPatternNotFound)

	assert.False(t, cp.Installed())
	assert.Equal(t, before, mustReadPtr(t, img, cells[0]))

	_, err = cp.CallOriginal(0)
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestCodePatchModuleNotLoaded(t *testing.T) {
	img := NewImage(8)
	cp := NewCodePatch("overlay", &Site{Sig: sigPresent, Rule: RelRIP(2), Shim: func(...uintptr) uintptr { return 0 }})
	err := cp.Install(img)
	assert.ErrorIs(t, err, ErrModuleNotLoaded)
}
