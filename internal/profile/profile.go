// Package profile persists module settings. Saving pushes a config save
// event whose subscribers write into a shared document; loading pushes a
// config load event carrying the parsed document.
package profile

import (
	"os"
	"path/filepath"

	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Profile is the module that owns the profile file.
type Profile struct {
	path string
	bus  *catnip.Bus
}

// New creates the module for the profile at path.
func New(path string) *Profile {
	return &Profile{path: path}
}

func (p *Profile) Name() string {
	return "profile"
}

func (p *Profile) Path() string {
	return p.path
}

func (p *Profile) RegisterEvents(b *catnip.Bus) {
	p.bus = b
	b.RegisterEvent(catnip.EventConfigSave)
	b.RegisterEvent(catnip.EventConfigLoad)
}

func (p *Profile) StartListening(catnip.Listener) {}

// Save collects every module's settings and writes the file.
func (p *Profile) Save() error {
	if p.bus == nil {
		return errors.Wrap(catnip.ErrNotInstalled, "profile is not registered")
	}
	doc := NewDocument()
	p.bus.PushEvent(catnip.EventConfigSave, &catnip.Invocation{Event: catnip.EventConfigSave, Data: doc})
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return errors.Wrap(err, "create profile directory")
	}
	if err := os.WriteFile(p.path, doc.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "write profile")
	}
	log.Info().Str("path", p.path).Msg("profile saved")
	return nil
}

// Load reads the file and hands it to every module. A missing file is not
// an error.
func (p *Profile) Load() error {
	if p.bus == nil {
		return errors.Wrap(catnip.ErrNotInstalled, "profile is not registered")
	}
	raw, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		log.Debug().Str("path", p.path).Msg("no profile")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read profile")
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return errors.Wrap(err, p.path)
	}
	p.bus.PushEvent(catnip.EventConfigLoad, &catnip.Invocation{Event: catnip.EventConfigLoad, Data: doc})
	log.Info().Str("path", p.path).Msg("profile loaded")
	return nil
}
