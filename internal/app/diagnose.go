package app

import (
	"os"

	"github.com/fengyoulin/catnip"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/process"
)

// Identity describes the process the session runs in.
type Identity struct {
	PID     int32
	Name    string
	Exe     string
	Threads int32
}

// HostIdentity reads the identity of the current process. Fields that
// cannot be read stay empty.
func HostIdentity() Identity {
	id := Identity{PID: int32(os.Getpid())}
	p, err := process.NewProcess(id.PID)
	if err != nil {
		return id
	}
	id.Name, _ = p.Name()
	id.Exe, _ = p.Exe()
	id.Threads, _ = p.NumThreads()
	return id
}

func diagnose(ie *catnip.InstallError) {
	id := HostIdentity()
	log.Error().
		Err(ie.Err).
		Str("hook", ie.Hook).
		Int32("pid", id.PID).
		Str("process", id.Name).
		Str("exe", id.Exe).
		Int32("threads", id.Threads).
		Msg("install failed, host left untouched")
}
