// Package tweak defines the render tweaks a stream is made of. Each kind
// configures one hooked part of rendering.
package tweak

// Kind names a tweak variant.
type Kind string

const (
	KindMisc       Kind = "misc"
	KindEntity     Kind = "entity"
	KindMaterial   Kind = "material"
	KindCamera     Kind = "camera"
	KindFog        Kind = "fog"
	KindPropRender Kind = "prop_render"
)

// Tweak is one set of render settings.
type Tweak interface {
	Kind() Kind
	// Name is a user friendly name
	Name() string
	Clone() Tweak
}

// FilterChoice selects which objects a tweak applies to.
type FilterChoice int

const (
	FilterAll FilterChoice = iota
	FilterWhitelist
	FilterBlacklist
)

func (f FilterChoice) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterWhitelist:
		return "whitelist"
	case FilterBlacklist:
		return "blacklist"
	}
	return "unknown"
}

// Color is an RGBA multiplier.
type Color [4]float32

// White leaves colours unchanged.
var White = Color{1, 1, 1, 1}

// Defaults returns one default tweak of every kind.
func Defaults() []Tweak {
	return []Tweak{
		NewMisc(),
		NewEntityFilter(),
		NewMaterial(),
		NewCamera(),
		NewFog(),
		&PropRender{},
	}
}

// New returns a default tweak of kind k, nil if k is unknown.
func New(k Kind) Tweak {
	for _, t := range Defaults() {
		if t.Kind() == k {
			return t
		}
	}
	return nil
}

// Misc toggles whole categories of drawing through console variables.
type Misc struct {
	ViewModel   bool `json:"viewmodel"`
	HUD         bool `json:"hud"`
	Props       bool `json:"props"`
	Shadows     bool `json:"shadows"`
	Skybox      bool `json:"skybox"`
	Decals      bool `json:"decals"`
	Particles   bool `json:"particles"`
	MiscEffects bool `json:"misc_effects"`
}

func NewMisc() *Misc {
	return &Misc{true, true, true, true, true, true, true, true}
}

func (*Misc) Kind() Kind     { return KindMisc }
func (*Misc) Name() string   { return "Miscellaneous" }
func (m *Misc) Clone() Tweak { c := *m; return &c }

// Camera overrides the view.
type Camera struct {
	FOV         float32 `json:"fov"`
	FOVOverride bool    `json:"fov_override"`
}

func NewCamera() *Camera {
	return &Camera{FOV: 90}
}

func (*Camera) Kind() Kind     { return KindCamera }
func (*Camera) Name() string   { return "Camera" }
func (c *Camera) Clone() Tweak { x := *c; return &x }

// FogParams is one fog layer. Color components are in [0, 1].
type FogParams struct {
	Enabled bool       `json:"enabled"`
	Start   int        `json:"start"`
	End     int        `json:"end"`
	Color   [3]float32 `json:"color"`
}

// RGB formats the colour the way the fog console variables expect it.
func (p FogParams) RGB() [3]int {
	return [3]int{int(p.Color[0] * 255), int(p.Color[1] * 255), int(p.Color[2] * 255)}
}

// Fog overrides world and skybox fog.
type Fog struct {
	Fog    FogParams `json:"fog"`
	SkyFog FogParams `json:"skyfog"`
}

func NewFog() *Fog {
	return &Fog{}
}

func (*Fog) Kind() Kind     { return KindFog }
func (*Fog) Name() string   { return "Fog" }
func (f *Fog) Clone() Tweak { c := *f; return &c }

// PropRender controls static prop drawing.
type PropRender struct {
	Hide bool `json:"hide"`
}

func (*PropRender) Kind() Kind     { return KindPropRender }
func (*PropRender) Name() string   { return "Props" }
func (p *PropRender) Clone() Tweak { c := *p; return &c }
