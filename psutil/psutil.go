// Package psutil lists the processes running on this machine.
package psutil

import (
	"context"

	psprocess "github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo describes a running process.
type ProcessInfo struct {
	PID     int32
	Name    string
	Cmdline string
}

// Lister lists the running processes.
type Lister interface {
	// Processes returns the running processes. Processes that exit while they are
	// inspected or that can't be inspected are reported with the information that
	// could be read, possibly only the PID.
	Processes(ctx context.Context) ([]ProcessInfo, error)
}

type lister struct {
	processes func(ctx context.Context) ([]*psprocess.Process, error)
}

// New returns a Lister for the processes of the operating system.
func New() Lister {
	return &lister{
		processes: psprocess.ProcessesWithContext,
	}
}

func (l *lister) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := l.processes(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ProcessInfo, 0, len(procs))

	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info := ProcessInfo{
			PID: p.Pid,
		}

		if name, err := p.NameWithContext(ctx); err == nil {
			info.Name = name
		}

		if cmdline, err := p.CmdlineWithContext(ctx); err == nil {
			info.Cmdline = cmdline
		}

		infos = append(infos, info)
	}

	return infos, nil
}
