// Package app assembles an interception session from configuration and
// whatever host collaborators are available.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/config"
	"github.com/fengyoulin/catnip/internal/hooks"
	"github.com/fengyoulin/catnip/internal/menu"
	"github.com/fengyoulin/catnip/internal/profile"
	"github.com/fengyoulin/catnip/internal/resolution"
	"github.com/fengyoulin/catnip/internal/stream"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Collaborators are the host objects the session may hook or drive. A nil
// field disables the hooks and modules that need it.
type Collaborators struct {
	// Overlay enables the overlay Present and Reset hook
	Overlay      bool
	RenderStates hooks.RenderStates

	Window      hooks.WindowProcs
	RenderView  catnip.InstanceFunc
	ModelRender catnip.InstanceFunc
	ModelNamer  hooks.ModelNamer
	ClientDLL   catnip.InstanceFunc
	ClientMode  catnip.InstanceFunc

	Stream *stream.Host
	Engine resolution.Engine

	// Unload runs after an eject has shut the session down
	Unload func()
}

// App is one assembled session.
type App struct {
	Config    *config.Config
	Host      catnip.Host
	Registry  *catnip.Registry
	Lifecycle *catnip.Lifecycle

	Overlay     *hooks.Overlay
	Window      *hooks.Window
	RenderView  *hooks.RenderView
	ModelRender *hooks.ModelRender
	Client      *hooks.Client

	Profile    *profile.Profile
	Menu       *menu.Menu
	Active     *stream.Active
	Resolution *resolution.Module

	unload   func()
	logClose io.Closer
	mu       sync.Mutex
	stopped  bool
}

// New builds the session. Nothing touches the host until Start.
func New(cfg *config.Config, host catnip.Host, c Collaborators) (*App, error) {
	logger, closer, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}
	log.Logger = logger
	catnip.SetLogger(logger)

	reg := catnip.NewRegistry()
	a := &App{
		Config:    cfg,
		Host:      host,
		Registry:  reg,
		Lifecycle: catnip.NewLifecycle(reg, host, catnip.WithQuiescence(cfg.Lifecycle.Quiescence)),
		unload:    c.Unload,
		logClose:  closer,
	}
	if err := a.addHooks(c); err != nil {
		closer.Close()
		return nil, err
	}
	if err := a.addModules(c); err != nil {
		closer.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) addHooks(c Collaborators) error {
	reg := a.Registry
	var added []catnip.Hook
	if c.Overlay {
		a.Overlay = hooks.NewOverlay(reg, a.Host.PtrSize(), c.RenderStates, hooks.Overrides(a.Config.Signatures))
		added = append(added, a.Overlay)
	}
	if c.Window != nil {
		a.Window = hooks.NewWindow(reg, c.Window)
		added = append(added, a.Window)
	}
	if c.RenderView != nil {
		a.RenderView = hooks.NewRenderView(reg, c.RenderView)
		added = append(added, a.RenderView)
	}
	if c.ModelRender != nil {
		a.ModelRender = hooks.NewModelRender(reg, a.Host, c.ModelRender, c.ModelNamer, hooks.DefaultModelRenderSlots)
		added = append(added, a.ModelRender)
	}
	if c.ClientDLL != nil && c.ClientMode != nil {
		a.Client = hooks.NewClient(reg, a.Host, c.ClientDLL, c.ClientMode, a.Config.Hooks.FOVOffset)
		added = append(added, a.Client)
	}
	for _, h := range added {
		if err := reg.AddHook(h); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) addModules(c Collaborators) error {
	var added []catnip.Module
	a.Profile = profile.New(a.Config.Profile.Path)
	added = append(added, a.Profile)

	if a.Overlay != nil && a.Window != nil {
		a.Menu = menu.New(a.Config.Menu.ToggleKeys, a.Window)
		a.Menu.OnEject = a.eject
		added = append(added, a.Menu)
	} else {
		log.Info().Msg("menu disabled: needs the overlay and window hooks")
	}
	if c.Stream != nil && a.ModelRender != nil && a.Client != nil {
		a.Active = stream.NewActive(*c.Stream)
		added = append(added, a.Active, stream.Persister{Active: a.Active})
	}
	if c.Engine != nil {
		a.Resolution = resolution.New(a.Host, c.Engine)
		added = append(added, a.Resolution)
	}
	for _, m := range added {
		if err := a.Registry.AddModule(m); err != nil {
			return err
		}
	}
	return nil
}

// Start installs every hook, starts the modules and loads the profile.
func (a *App) Start(ctx context.Context) error {
	if err := a.Lifecycle.Start(ctx); err != nil {
		var ie *catnip.InstallError
		if errors.As(err, &ie) {
			diagnose(ie)
		}
		return err
	}
	if err := a.Profile.Load(); err != nil {
		log.Warn().Err(err).Msg("load profile")
	}
	log.Info().Int("hooks", len(a.Registry.Hooks())).Int("modules", len(a.Registry.Modules())).Msg("session started")
	return nil
}

// Shutdown saves the profile, restores the host and waits for running
// shims. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return nil
	}
	if a.Lifecycle.State() == catnip.Installed {
		if err := a.Profile.Save(); err != nil {
			log.Warn().Err(err).Msg("save profile")
		}
	}
	// on a drain timeout a later call retries
	if err := a.Lifecycle.ShutdownAll(ctx); err != nil {
		return err
	}
	a.stopped = true
	log.Info().Msg("session stopped")
	return a.logClose.Close()
}

func (a *App) eject() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*a.Config.Lifecycle.Quiescence)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		// a shim may still be running our code
		log.Error().Err(err).Msg("eject: session did not drain, staying loaded")
		return
	}
	if a.unload != nil {
		a.unload()
	}
}
