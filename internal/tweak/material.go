package tweak

import "strings"

// TextureGroups are the host's material texture groups.
var TextureGroups = [27]string{
	"Lightmaps",
	"World textures",
	"Model textures",
	"VGUI textures",
	"Particle textures",
	"Decal textures",
	"SkyBox textures",
	"ClientEffect textures",
	"Other textures",
	"Precached",
	"CubeMap textures",
	"RenderTargets",
	"Unaccounted textures",
	"Static Indices",
	"Displacement Verts",
	"Lighting Verts",
	"World Verts",
	"Model Verts",
	"Other Verts",
	"Dynamic Indices",
	"Dynamic Verts",
	"DepthBuffer",
	"ViewModel",
	"Pixel Shaders",
	"Vertex Shaders",
	"RenderTarget Surfaces",
	"Morph Targets",
}

// TextureGroup returns the index of a texture group name, -1 if unknown.
func TextureGroup(name string) int {
	for i, g := range TextureGroups {
		if g == name {
			return i
		}
	}
	return -1
}

// MaterialInfo is what a material tweak needs to know about a material.
type MaterialInfo interface {
	Name() string
	TextureGroup() string
}

// Material multiplies the colour of materials by texture group.
type Material struct {
	Color  Color                    `json:"color"`
	Groups [len(TextureGroups)]bool `json:"groups"`
	// Props also affects static prop materials, which ignore the usual
	// material overrides
	Props  bool         `json:"props"`
	Filter FilterChoice `json:"filter"`
}

func NewMaterial() *Material {
	return &Material{Color: White}
}

func (*Material) Kind() Kind     { return KindMaterial }
func (*Material) Name() string   { return "Materials" }
func (m *Material) Clone() Tweak { c := *m; return &c }

// SetGroup enables or disables the named texture group.
func (m *Material) SetGroup(name string, on bool) bool {
	i := TextureGroup(name)
	if i < 0 {
		return false
	}
	m.Groups[i] = on
	return true
}

func (m *Material) listed(mat MaterialInfo) bool {
	if m.Props && strings.HasPrefix(mat.Name(), "models/props") {
		return true
	}
	i := TextureGroup(mat.TextureGroup())
	return i >= 0 && m.Groups[i]
}

// IsMaterialAffected reports whether mat gets this tweak's colour.
func (m *Material) IsMaterialAffected(mat MaterialInfo) bool {
	switch m.Filter {
	case FilterWhitelist:
		return m.listed(mat)
	case FilterBlacklist:
		return !m.listed(mat)
	}
	return true
}
