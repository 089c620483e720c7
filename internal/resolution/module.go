package resolution

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/profile"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Command is the console command handled by Module.Command.
const Command = "sf_set_resolution"

const profileKey = "Resolution"

// Module remembers a resolution and optionally applies it on profile load.
type Module struct {
	mem catnip.Memory
	eng Engine

	mu      sync.Mutex
	width   int
	height  int
	startup bool
}

// New creates the module.
func New(mem catnip.Memory, eng Engine) *Module {
	return &Module{mem: mem, eng: eng}
}

func (m *Module) Name() string {
	return "resolution"
}

func (m *Module) RegisterEvents(b *catnip.Bus) {
	b.RegisterEvent(catnip.EventConfigSave)
	b.RegisterEvent(catnip.EventConfigLoad)
}

func (m *Module) StartListening(l catnip.Listener) {
	l.Listen(catnip.EventConfigSave, m.onConfigSave)
	l.Listen(catnip.EventConfigLoad, m.onConfigLoad)
}

// Settings returns the remembered resolution.
func (m *Module) Settings() (width, height int, startup bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height, m.startup
}

// Configure sets the remembered resolution.
func (m *Module) Configure(width, height int, startup bool) {
	m.mu.Lock()
	m.width, m.height, m.startup = width, height, startup
	m.mu.Unlock()
}

// Apply registers width x height and switches to it.
func (m *Module) Apply(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid resolution %dx%d", width, height)
	}
	added, err := Register(m.mem, m.eng, width, height)
	if err != nil {
		return err
	}
	log.Debug().Int("width", width).Int("height", height).Bool("added", added).Msg("video mode")
	return Set(m.eng, width, height)
}

// Command runs the console command with its arguments.
func (m *Module) Command(args ...string) error {
	if len(args) < 2 {
		return m.eng.ClientCmdUnrestricted("echo " + Command + " <width> <height>")
	}
	w, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(err, "width")
	}
	h, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Wrap(err, "height")
	}
	if err := m.Apply(w, h); err != nil {
		return err
	}
	return m.eng.ClientCmdUnrestricted(fmt.Sprintf("echo Set Resolution to %dx%d.", w, h))
}

func (m *Module) onConfigSave(inv *catnip.Invocation) catnip.Flags {
	doc, ok := inv.Data.(*profile.Document)
	if !ok {
		return 0
	}
	w, h, s := m.Settings()
	if err := doc.Set(profileKey, map[string]interface{}{"width": w, "height": h, "startup": s}); err != nil {
		log.Error().Err(err).Msg("save resolution")
	}
	return 0
}

func (m *Module) onConfigLoad(inv *catnip.Invocation) catnip.Flags {
	doc, ok := inv.Data.(*profile.Document)
	if !ok {
		return 0
	}
	v := doc.Get(profileKey)
	if !v.Exists() {
		return 0
	}
	w, h, s := int(v.Get("width").Int()), int(v.Get("height").Int()), v.Get("startup").Bool()
	m.Configure(w, h, s)
	if s {
		if err := m.Apply(w, h); err != nil {
			log.Error().Err(err).Msg("apply startup resolution")
		}
	}
	return 0
}
