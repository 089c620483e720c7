package stream

import (
	"encoding/json"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/profile"
	"github.com/fengyoulin/catnip/internal/tweak"
	"github.com/rs/zerolog/log"
)

const profileKey = "ActiveStream"

// Persister saves and loads the active stream with the profile.
type Persister struct {
	Active *Active
}

func (p Persister) Name() string {
	return "active_stream.profile"
}

func (p Persister) RegisterEvents(b *catnip.Bus) {
	b.RegisterEvent(catnip.EventConfigSave)
	b.RegisterEvent(catnip.EventConfigLoad)
}

func (p Persister) StartListening(l catnip.Listener) {
	l.Listen(catnip.EventConfigSave, p.save)
	l.Listen(catnip.EventConfigLoad, p.load)
}

func (p Persister) save(inv *catnip.Invocation) catnip.Flags {
	doc, ok := inv.Data.(*profile.Document)
	if !ok {
		return 0
	}
	s := p.Active.Get()
	if s == nil {
		return 0
	}
	if err := doc.Set(profileKey, s); err != nil {
		log.Error().Err(err).Msg("save active stream")
	}
	return 0
}

func (p Persister) load(inv *catnip.Invocation) catnip.Flags {
	doc, ok := inv.Data.(*profile.Document)
	if !ok {
		return 0
	}
	v := doc.Get(profileKey)
	if !v.Exists() {
		return 0
	}
	s := &tweak.Stream{}
	if err := json.Unmarshal([]byte(v.Raw), s); err != nil {
		log.Error().Err(err).Msg("load active stream")
		return 0
	}
	p.Active.Set(s)
	return 0
}
