package guard

import (
	"context"

	"github.com/psantana5/focusguard/internal/config"
)

// TargetState is the liveness of one target at status time
type TargetState struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Running  bool   `json:"running"`
	Error    string `json:"error,omitempty"`
}

// Status summarises the guard without requiring the password
type Status struct {
	Configured     bool          `json:"configured"`
	DescriptorPath string        `json:"descriptor_path"`
	Installed      bool          `json:"installed"`
	Loaded         bool          `json:"loaded"`
	LoadedError    string        `json:"loaded_error,omitempty"`
	LockPath       string        `json:"lock_path"`
	Locked         bool          `json:"locked"`
	LockError      string        `json:"lock_error,omitempty"`
	LogFile        string        `json:"log_file"`
	Targets        []TargetState `json:"targets"`
}

// Agent describes the login agent state in words
func (s *Status) Agent() string {
	switch {
	case s.Loaded:
		return "loaded"
	case s.Installed:
		// stop unloads but never deletes the descriptor
		return "installed (inactive)"
	default:
		return "not installed"
	}
}

// Status collects the current state. Individual probe failures are recorded
// in the result rather than returned.
func (g *Guard) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Configured:     g.gate.Configured(),
		DescriptorPath: g.registrar.Path(),
		Installed:      g.registrar.Installed(),
		LockPath:       g.cfg.LockPath,
		LogFile:        g.cfg.LogFile,
	}

	loaded, err := g.registrar.Active(ctx)
	if err != nil {
		st.LoadedError = err.Error()
	}
	st.Loaded = loaded

	locked, err := g.lock.IsLocked(g.cfg.LockPath)
	if err != nil {
		st.LockError = err.Error()
	}
	st.Locked = locked

	specs, err := config.LoadTargets(g.cfg.TargetsFile)
	if err != nil {
		return nil, err
	}
	for _, tgt := range specs {
		ts := TargetState{Name: tgt.Name, Strategy: tgt.Strategy}
		running, err := g.lister.Running(ctx, tgt.Name)
		if err != nil {
			ts.Error = err.Error()
		}
		ts.Running = running
		st.Targets = append(st.Targets, ts)
	}
	return st, nil
}
