package autostart

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/psantana5/focusguard/internal/shell"
)

// launchctl load/unload report several failures on stdout with exit status 0
var launchctlFailures = []string{
	"already loaded",
	"Load failed",
	"Unload failed",
	"Could not find specified service",
	"No such file or directory",
	"Invalid property list",
}

// Launchctl drives the per-user launchd instance
type Launchctl struct {
	Runner shell.Runner
}

// NewLaunchctl creates a launchctl-backed service manager
func NewLaunchctl(runner shell.Runner) *Launchctl {
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	return &Launchctl{Runner: runner}
}

// Load implements ServiceManager
func (l *Launchctl) Load(ctx context.Context, path string) error {
	return l.run(ctx, "load", path)
}

// Unload implements ServiceManager
func (l *Launchctl) Unload(ctx context.Context, path string) error {
	return l.run(ctx, "unload", path)
}

// Loaded implements ServiceManager
func (l *Launchctl) Loaded(ctx context.Context, label string) (bool, error) {
	_, err := l.Runner.Run(ctx, "launchctl", "list", label)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

func (l *Launchctl) run(ctx context.Context, verb, path string) error {
	out, err := l.Runner.Run(ctx, "launchctl", verb, path)
	if err != nil {
		return err
	}
	msg := strings.TrimSpace(string(out))
	for _, failure := range launchctlFailures {
		if strings.Contains(msg, failure) {
			return fmt.Errorf("launchctl %s: %s", verb, msg)
		}
	}
	return nil
}
