package resolution

import (
	"sync"

	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
)

// EngineSlots are the virtual indices of the engine client methods used.
type EngineSlots struct {
	GetVideoModes         int
	ClientCmdUnrestricted int
}

// DefaultEngineSlots are the indices of the supported host build.
var DefaultEngineSlots = EngineSlots{
	GetVideoModes:         95,
	ClientCmdUnrestricted: 106,
}

const maxCommand = 256

// HostEngine calls the engine client interface of the host.
type HostEngine struct {
	Host     catnip.Host
	Instance uintptr
	Slots    EngineSlots

	once sync.Once
	// out parameters of GetVideoModes, then the command buffer
	scratch uintptr
	err     error
}

func (e *HostEngine) alloc() (uintptr, error) {
	e.once.Do(func() {
		a, ok := e.Host.(catnip.Allocator)
		if !ok {
			e.err = errors.Wrap(catnip.ErrUnsupported, "engine calls need an allocating host")
			return
		}
		e.scratch, e.err = a.Alloc(uintptr(2*e.Host.PtrSize()+maxCommand), catnip.ProtRW)
	})
	return e.scratch, e.err
}

func (e *HostEngine) vcall(index int, args ...uintptr) (uintptr, error) {
	return catnip.VCall(e.Host, e.Instance, index, args...)
}

func (e *HostEngine) VideoModes() (uintptr, int, error) {
	scratch, err := e.alloc()
	if err != nil {
		return 0, 0, err
	}
	ps := uintptr(e.Host.PtrSize())
	if _, err := e.vcall(e.Slots.GetVideoModes, scratch, scratch+ps); err != nil {
		return 0, 0, errors.Wrap(err, "GetVideoModes")
	}
	count, err := catnip.ReadInt32(e.Host, scratch)
	if err != nil {
		return 0, 0, err
	}
	list, err := catnip.ReadPtr(e.Host, scratch+ps)
	if err != nil {
		return 0, 0, err
	}
	return list, int(count), nil
}

func (e *HostEngine) ClientCmdUnrestricted(cmd string) error {
	if len(cmd) >= maxCommand {
		return errors.Errorf("command too long: %d bytes", len(cmd))
	}
	scratch, err := e.alloc()
	if err != nil {
		return err
	}
	buf := scratch + uintptr(2*e.Host.PtrSize())
	if err := e.Host.Patch(buf, append([]byte(cmd), 0)); err != nil {
		return err
	}
	_, err = e.vcall(e.Slots.ClientCmdUnrestricted, buf)
	return errors.Wrap(err, "ClientCmd_Unrestricted")
}
