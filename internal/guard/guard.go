// Package guard sequences the privileged commands. Every command is strictly
// ordered and aborts on the first failure, so the lock toggle, always the
// last step, only happens when everything before it succeeded.
package guard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/psantana5/focusguard/internal/autostart"
	"github.com/psantana5/focusguard/internal/config"
	"github.com/psantana5/focusguard/internal/credential"
	"github.com/psantana5/focusguard/internal/desktop"
	"github.com/psantana5/focusguard/internal/errs"
	"github.com/psantana5/focusguard/internal/lock"
	"github.com/psantana5/focusguard/internal/monitor"
	"github.com/psantana5/focusguard/internal/procs"
	"github.com/psantana5/focusguard/internal/shell"
	"github.com/psantana5/focusguard/pkg/logging"
)

// Deps are the OS collaborators a Guard drives
type Deps struct {
	Prompter       credential.Prompter
	ServiceManager autostart.ServiceManager
	Lister         procs.Lister
	Logger         *logging.Logger
	// Executable is the focusguard binary the monitor script execs
	Executable string
}

// Guard implements setup, start, stop and status
type Guard struct {
	cfg        *config.Config
	gate       *credential.Gate
	lock       *lock.Controller
	registrar  *autostart.Registrar
	prompter   credential.Prompter
	lister     procs.Lister
	logger     *logging.Logger
	executable string
}

// New wires a Guard from configuration
func New(cfg *config.Config, deps Deps) *Guard {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	lister := deps.Lister
	if lister == nil {
		lister = procs.SystemLister{}
	}
	manager := deps.ServiceManager
	if manager == nil {
		manager = autostart.NewLaunchctl(shell.ExecRunner{})
	}

	return &Guard{
		cfg:        cfg,
		gate:       credential.NewGate(cfg.CredentialFile, logger),
		lock:       lock.NewController(logger),
		registrar:  autostart.NewRegistrar(cfg.LaunchAgentsDir, cfg.Label, manager, logger),
		prompter:   deps.Prompter,
		lister:     lister,
		logger:     logger,
		executable: deps.Executable,
	}
}

// Gate exposes the credential gate
func (g *Guard) Gate() *credential.Gate {
	return g.gate
}

// Registrar exposes the autostart registrar
func (g *Guard) Registrar() *autostart.Registrar {
	return g.registrar
}

// Setup runs first-time password setup
func (g *Guard) Setup() error {
	return g.gate.Setup(g.prompter)
}

// Start verifies the password, writes the monitor script, installs and loads
// the login agent, then locks the controlling file.
func (g *Guard) Start(ctx context.Context) error {
	if err := g.gate.Verify(g.prompter); err != nil {
		return g.abort("start", err)
	}

	if err := g.WriteMonitorScript(); err != nil {
		return g.abort("start", err)
	}

	d := autostart.Descriptor{
		ProgramArguments:  []string{g.cfg.MonitorScript},
		StandardOutPath:   g.cfg.LogFile,
		StandardErrorPath: g.cfg.LogFile,
	}
	if err := g.registrar.Install(d); err != nil {
		return g.abort("start", err)
	}

	if err := g.registrar.Activate(ctx); err != nil {
		return g.abort("start", err)
	}

	if err := g.lock.Lock(g.cfg.LockPath); err != nil {
		return g.abort("start", err)
	}

	g.logger.Info("Monitor started")
	return nil
}

// Stop verifies the password, unloads the login agent and unlocks the
// controlling file. The descriptor stays on disk, inactive.
func (g *Guard) Stop(ctx context.Context) error {
	if err := g.gate.Verify(g.prompter); err != nil {
		return g.abort("stop", err)
	}

	if err := g.registrar.Deactivate(ctx); err != nil {
		return g.abort("stop", err)
	}

	if err := g.lock.Unlock(g.cfg.LockPath); err != nil {
		return g.abort("stop", err)
	}

	g.logger.Info("Monitor stopped")
	return nil
}

func (g *Guard) abort(op string, err error) error {
	g.logger.Error(fmt.Sprintf("%s aborted: %v", op, err))
	return fmt.Errorf("%s: %w", op, err)
}

// WriteMonitorScript (re)generates the executable script the login agent runs
func (g *Guard) WriteMonitorScript() error {
	path := g.cfg.MonitorScript
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.New(errs.KindWrite, "monitor script", filepath.Dir(path), err)
	}

	script := MonitorScript(g.executable, g.cfg.ConfigFile, g.cfg.Env)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return errs.New(errs.KindWrite, "monitor script", path, err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, 0o755); err != nil {
		return errs.New(errs.KindWrite, "monitor script", path, err)
	}

	g.logger.Info(fmt.Sprintf("Wrote monitor script %s", path))
	return nil
}

// MonitorScript renders the sh script that execs the monitor loop. The login
// agent does not see the user's shell environment, so env overrides in effect
// at start are exported by the script itself.
func MonitorScript(executable, configFile string, env map[string]string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n# Generated by focusguard start. Run by the login agent.\n")

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "export %s=%s\n", name, shell.Quote(env[name]))
	}

	args := []string{"exec", shell.Quote(executable), "monitor"}
	if configFile != "" {
		args = append(args, "--config", shell.Quote(configFile))
	}
	b.WriteString(strings.Join(args, " ") + "\n")
	return b.String()
}

// BuildTargets turns target specs into monitor targets
func BuildTargets(specs []config.TargetSpec, runner shell.Runner) ([]monitor.Target, error) {
	targets := make([]monitor.Target, 0, len(specs))
	for _, tgt := range specs {
		r, err := desktop.NewRelauncher(tgt.Strategy, tgt.Argument(), runner)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", tgt.Name, err)
		}
		targets = append(targets, monitor.Target{Name: tgt.Name, Relauncher: r})
	}
	return targets, nil
}
