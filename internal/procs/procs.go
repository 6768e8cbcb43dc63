// Package procs answers process-liveness queries by name.
package procs

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Lister reports whether a process with a given name is running
type Lister interface {
	Running(ctx context.Context, name string) (bool, error)
}

// Match reports whether a process name matches a target: exact, ignoring case
func Match(processName, target string) bool {
	return strings.EqualFold(processName, target)
}

// SystemLister queries the live process table
type SystemLister struct{}

// Running implements Lister
func (SystemLister) Running(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}

	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			// Process may have exited
			continue
		}
		if Match(pname, name) {
			return true, nil
		}
	}
	return false, nil
}
