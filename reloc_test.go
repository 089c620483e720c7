package catnip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelRIP(t *testing.T) {
	img, cells := newHost(t, func(...uintptr) uintptr { return 0 })
	site, err := FindPattern(img, sigPresent)
	require.NoError(t, err)

	cell, err := RelRIP(2).Cell(img, site)
	require.NoError(t, err)
	assert.Equal(t, cells[0], cell)

	_, err = RelRIP(2).Cell(img, 0x1000)
	assert.Error(t, err)
}

func TestAbs32(t *testing.T) {
	img := NewImage(4)
	code := []byte{0xFF, 0x15, 0x78, 0x56, 0x34, 0x12, 0x8B, 0xF8}
	_, err := img.Map("game.dll", 0x00400000, code, ProtRX)
	require.NoError(t, err)

	cell, err := Abs32(2).Cell(img, 0x00400000)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x12345678), cell)
}

func TestDecoded(t *testing.T) {
	img, cells := newHost(t, func(...uintptr) uintptr { return 0 })
	site, err := FindPattern(img, sigPresent)
	require.NoError(t, err)

	cell, err := Decoded{}.Cell(img, site)
	require.NoError(t, err)
	assert.Equal(t, cells[0], cell)

	// lea rax, [rip+0x100]
	lea := make([]byte, 32)
	copy(lea, []byte{0x48, 0x8D, 0x05, 0x00, 0x01, 0x00, 0x00})
	for i := 7; i < len(lea); i++ {
		lea[i] = 0x90
	}
	_, err = img.Map("lea.dll", 0x20000000, lea, ProtRX)
	require.NoError(t, err)
	cell, err = Decoded{Mode: 64}.Cell(img, 0x20000000)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x20000000+7+0x100), cell)

	// nop has no memory operand
	_, err = Decoded{}.Cell(img, 0x20000007)
	assert.ErrorIs(t, err, ErrNoDisplacement)
}

func TestDecoded32(t *testing.T) {
	img := NewImage(4)
	code := make([]byte, 16)
	copy(code, []byte{0xFF, 0x15, 0x78, 0x56, 0x34, 0x12, 0x8B, 0xF8})
	_, err := img.Map("game.dll", 0x00400000, code, ProtRX)
	require.NoError(t, err)

	cell, err := Decoded{}.Cell(img, 0x00400000)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x12345678), cell)
}

func TestDisasm(t *testing.T) {
	img, _ := newHost(t, func(...uintptr) uintptr { return 0 })
	insts, err := Disasm(img, modBase, 2)
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.Equal(t, "NOP", insts[0].Op.String())
	assert.Equal(t, "NOP", insts[1].Op.String())
}
