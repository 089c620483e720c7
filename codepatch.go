package catnip

import (
	"sync"

	"github.com/pkg/errors"
)

// Site is one call site of a CodePatch: a signature locating the
// instruction, the rule leading from it to a pointer cell, and the shim
// written into that cell.
type Site struct {
	Sig  Signature
	Rule Rule
	Shim Func
	Argc int

	// the shim's host address, created once and kept across install cycles
	addr  uintptr
	patch patch
}

// Cell returns the address of the rewritten cell, zero before the first install.
func (s *Site) Cell() uintptr {
	return s.patch.cell
}

// Original returns the saved pre-install value of the cell.
func (s *Site) Original() uintptr {
	return s.patch.origin
}

// CodePatch swaps the pointer cells referenced by one or more call sites
// found by pattern search.
type CodePatch struct {
	name  string
	sites []*Site

	mu        sync.Mutex
	host      Host
	installed bool
}

// NewCodePatch creates a hook over the given sites.
func NewCodePatch(name string, sites ...*Site) *CodePatch {
	return &CodePatch{name: name, sites: sites}
}

func (c *CodePatch) Name() string {
	return c.name
}

// Sites returns every site in install order.
func (c *CodePatch) Sites() []*Site {
	return c.sites
}

// Site returns the i-th site.
func (c *CodePatch) Site(i int) *Site {
	return c.sites[i]
}

func (c *CodePatch) Installed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed
}

// Install locates every site before writing any cell, so a missing
// signature leaves the host untouched.
func (c *CodePatch) Install(h Host) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed {
		return ErrAlreadyInstalled
	}
	cells := make([]uintptr, len(c.sites))
	for i, s := range c.sites {
		site, err := FindPattern(h, s.Sig)
		if err != nil {
			return &InstallError{Hook: c.name, Err: err}
		}
		cell, err := s.Rule.Cell(h, site)
		if err != nil {
			return &InstallError{Hook: c.name, Err: err}
		}
		cells[i] = cell
	}
	for _, s := range c.sites {
		if s.addr != 0 {
			continue
		}
		addr, err := h.NewCallback(s.Shim, s.Argc)
		if err != nil {
			return &InstallError{Hook: c.name, Err: errors.Wrap(err, "shim callback")}
		}
		s.addr = addr
	}
	for i, s := range c.sites {
		s.patch = patch{cell: cells[i], shim: s.addr}
		if err := s.patch.apply(h); err != nil {
			for _, done := range c.sites[:i] {
				done.patch.restore(h)
			}
			return &InstallError{Hook: c.name, Err: err}
		}
	}
	c.host = h
	c.installed = true
	logger.Info().Str("hook", c.name).Int("sites", len(c.sites)).Msg("hook installed")
	return nil
}

// Remove writes every saved original back.
func (c *CodePatch) Remove() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.installed {
		return ErrNotInstalled
	}
	var first error
	for _, s := range c.sites {
		if err := s.patch.restore(c.host); err != nil && first == nil {
			first = errors.Wrapf(err, "remove %s", c.name)
		}
	}
	c.installed = false
	logger.Info().Str("hook", c.name).Msg("hook removed")
	return first
}

// CallOriginal calls the saved original of site i.
func (c *CodePatch) CallOriginal(i int, args ...uintptr) (uintptr, error) {
	c.mu.Lock()
	h, orig := c.host, c.sites[i].patch.origin
	c.mu.Unlock()
	if h == nil || orig == 0 {
		return 0, ErrNotInstalled
	}
	return h.Call(orig, args...)
}
