package tweak

import (
	"sort"
	"strings"
)

// MaterialChoice is the effect an entity filter gives to entities.
type MaterialChoice int

const (
	MaterialNormal MaterialChoice = iota
	MaterialInvisible
	MaterialCustom
)

func (m MaterialChoice) String() string {
	switch m {
	case MaterialNormal:
		return "Normal"
	case MaterialInvisible:
		return "Invisible"
	case MaterialCustom:
		return "Custom"
	}
	return "unknown"
}

// EntityFilter changes how a filtered set of entities is drawn.
type EntityFilter struct {
	Filter FilterChoice   `json:"filter"`
	Effect MaterialChoice `json:"effect"`
	// CustomMaterial is the host material forced on affected entities when
	// Effect is MaterialCustom
	CustomMaterial uintptr `json:"-"`
	Color          Color   `json:"color"`

	// Classes holds client class names
	Classes    map[string]struct{} `json:"-"`
	Player     bool                `json:"player"`
	Weapon     bool                `json:"weapon"`
	Wearable   bool                `json:"wearable"`
	Projectile bool                `json:"projectile"`
}

func NewEntityFilter() *EntityFilter {
	return &EntityFilter{Color: White, Classes: make(map[string]struct{})}
}

func (*EntityFilter) Kind() Kind   { return KindEntity }
func (*EntityFilter) Name() string { return "Entities" }

func (e *EntityFilter) Clone() Tweak {
	c := *e
	c.Classes = make(map[string]struct{}, len(e.Classes))
	for k := range e.Classes {
		c.Classes[k] = struct{}{}
	}
	return &c
}

// AddClass adds a client class name to the filter list.
func (e *EntityFilter) AddClass(names ...string) {
	if e.Classes == nil {
		e.Classes = make(map[string]struct{})
	}
	for _, n := range names {
		e.Classes[n] = struct{}{}
	}
}

// ClassList returns the filtered class names in order.
func (e *EntityFilter) ClassList() []string {
	out := make([]string, 0, len(e.Classes))
	for n := range e.Classes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (e *EntityFilter) listed(class string) bool {
	if _, ok := e.Classes[class]; ok {
		return true
	}
	switch {
	case e.Player && strings.Contains(class, "Player"):
		return true
	case e.Weapon && strings.Contains(class, "Weapon"):
		return true
	case e.Wearable && strings.Contains(class, "Wearable"):
		return true
	case e.Projectile && strings.Contains(class, "Projectile"):
		return true
	}
	return false
}

// IsEntityAffected reports whether an entity of the given client class
// should be drawn differently than normal.
func (e *EntityFilter) IsEntityAffected(class string) bool {
	switch e.Filter {
	case FilterWhitelist:
		return e.listed(class)
	case FilterBlacklist:
		return !e.listed(class)
	}
	return true
}

// IsEffectInvisible reports whether the effect hides affected entities.
func (e *EntityFilter) IsEffectInvisible() bool {
	return e.Effect == MaterialInvisible
}
