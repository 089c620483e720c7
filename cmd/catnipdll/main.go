//go:build windows

// Command catnipdll is the in-process build: loaded into the host as a DLL
// (go build -buildmode=c-shared), it installs the hooks from a goroutine
// started at load time and unloads itself on eject.
package main

import "C"

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"unsafe"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/app"
	"github.com/fengyoulin/catnip/internal/config"
	"github.com/fengyoulin/catnip/internal/hooks"
	"github.com/fengyoulin/catnip/internal/resolution"
	"github.com/fengyoulin/catnip/internal/stream"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tebeka/atexit"
	"golang.org/x/sys/windows"
)

const windowClass = "Valve001"

var (
	kernel32                 = windows.NewLazySystemDLL("kernel32.dll")
	freeLibraryAndExitThread = kernel32.NewProc("FreeLibraryAndExitThread")
)

func init() {
	go run()
}

func main() {}

// selfModule returns the handle of this DLL and the directory config files
// are looked up in.
func selfModule() (windows.Handle, string, error) {
	var h windows.Handle
	addr := reflect.ValueOf(run).Pointer()
	flags := uint32(windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS | windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT)
	if err := windows.GetModuleHandleEx(flags, (*uint16)(unsafe.Pointer(addr)), &h); err != nil {
		return 0, "", errors.Wrap(err, "own module handle")
	}
	name, err := moduleFileName(h)
	if err != nil {
		return 0, "", err
	}
	return h, filepath.Dir(name), nil
}

func moduleFileName(h windows.Handle) (string, error) {
	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetModuleFileName(h, &buf[0], uint32(len(buf)))
	if err != nil {
		return "", errors.Wrap(err, "module file name")
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// createInterface resolves an interface exported by a host module.
func createInterface(module, name string) catnip.InstanceFunc {
	return func(catnip.Host) (uintptr, error) {
		proc := windows.NewLazyDLL(module).NewProc("CreateInterface")
		if err := proc.Find(); err != nil {
			return 0, errors.Wrapf(catnip.ErrModuleNotLoaded, "%s: %v", module, err)
		}
		cname, err := windows.BytePtrFromString(name)
		if err != nil {
			return 0, err
		}
		p, _, _ := proc.Call(uintptr(unsafe.Pointer(cname)), 0)
		if p == 0 {
			return 0, errors.Errorf("%s: no interface %s", module, name)
		}
		return p, nil
	}
}

func run() {
	self, dir, err := selfModule()
	if err != nil {
		log.Error().Err(err).Msg("catnip")
		return
	}
	if err := config.LoadEnv(filepath.Join(dir, ".env")); err != nil {
		log.Warn().Err(err).Msg("load .env")
	}
	path := os.Getenv("CATNIP_CONFIG")
	if path == "" {
		if p := filepath.Join(dir, "catnip.yaml"); fileExists(p) {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return
	}
	if !filepath.IsAbs(cfg.Profile.Path) {
		cfg.Profile.Path = filepath.Join(dir, cfg.Profile.Path)
	}

	host := catnip.Process()
	c := app.Collaborators{
		Overlay:     true,
		RenderView:  createInterface("engine.dll", "VEngineRenderView014"),
		ModelRender: createInterface("engine.dll", "VEngineModel016"),
		Unload: func() {
			freeLibraryAndExitThread.Call(uintptr(self), 0)
		},
	}
	if states, err := hooks.NewD3D9States(host); err == nil {
		c.RenderStates = states
	}
	if win, err := hooks.FindWindow(windowClass); err == nil {
		c.Window = win
	} else {
		log.Warn().Err(err).Msg("host window")
	}
	if info, err := createInterface("engine.dll", "VModelInfoClient004")(host); err == nil {
		c.ModelNamer = hooks.ModelInfo{Host: host, Instance: info, Index: 3}
	}
	clientDLL := createInterface("client.dll", "VClient018")
	c.ClientDLL = clientDLL
	c.ClientMode = hooks.ClientMode(clientDLL)

	var engine *resolution.HostEngine
	if eng, err := createInterface("engine.dll", "VEngineClient014")(host); err == nil {
		engine = &resolution.HostEngine{Host: host, Instance: eng, Slots: resolution.DefaultEngineSlots}
		c.Engine = engine
	}
	c.Stream = streamHost(host, engine)

	a, err := app.New(cfg, host, c)
	if err != nil {
		log.Error().Err(err).Msg("assemble session")
		return
	}
	atexit.Register(func() {
		a.Shutdown(context.Background())
	})
	if err := a.Start(context.Background()); err != nil {
		var ie *catnip.InstallError
		if errors.As(err, &ie) {
			// the host build does not match; running half-hooked is not an option
			atexit.Fatalf("catnip: %v", err)
		}
		log.Error().Err(err).Msg("start session")
	}
}

// streamHost supplies the subsystems reachable through word-sized calls.
// Colour modulation, blend and material modulation pass floats by value,
// which the host call ABI cannot carry, so those tweaks stay off.
func streamHost(host catnip.Host, engine *resolution.HostEngine) *stream.Host {
	sh := &stream.Host{}
	if engine != nil {
		sh.Cvars = stream.CommandCvars(engine.ClientCmdUnrestricted)
	}
	if list, err := createInterface("client.dll", "VClientEntityList003")(host); err == nil {
		sh.Entities = stream.HostEntityList{Host: host, Instance: list, Slots: stream.DefaultEntitySlots}
	} else {
		log.Warn().Err(err).Msg("entity list")
	}
	if mr, err := createInterface("engine.dll", "VEngineModel016")(host); err == nil {
		sh.Models = stream.HostModelRender{Host: host, Instance: mr, Index: stream.DefaultForcedMaterialOverride}
	}
	return sh
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
