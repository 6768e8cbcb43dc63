// Package monitor implements the long-running supervisor that keeps the
// target applications alive.
//
// The loop is level-triggered: once per check interval every target is
// looked up by name and relaunched if absent. There is no backoff and no cap
// on relaunch attempts. After PauseThreshold iterations the loop notifies the
// user and pauses for PauseDuration, then starts counting again from zero.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/psantana5/focusguard/internal/desktop"
	"github.com/psantana5/focusguard/internal/procs"
	"github.com/psantana5/focusguard/pkg/logging"
)

const (
	DefaultCheckInterval  = time.Second
	DefaultPauseThreshold = 1200
	DefaultPauseDuration  = 60 * time.Second

	NotificationTitle = "FocusGuard"
)

// State of the loop
type State int

const (
	Active State = iota
	Paused
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Target is one supervised application
type Target struct {
	Name       string
	Relauncher desktop.Relauncher
}

// Config configures the loop
type Config struct {
	Targets        []Target
	CheckInterval  time.Duration
	PauseThreshold int
	PauseDuration  time.Duration

	Lister   procs.Lister
	Notifier desktop.Notifier
	Logger   *logging.Logger

	// Metrics is optional
	Metrics *Metrics
	// Textfile, when set, receives a metrics snapshot on every pause
	Textfile string

	// Sleep replaces the real timer, mainly for tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// TargetStatus is the last observation of one target
type TargetStatus struct {
	Name             string    `json:"name"`
	Relauncher       string    `json:"relauncher"`
	Running          bool      `json:"running"`
	LastChecked      time.Time `json:"last_checked,omitempty"`
	LastRelaunch     time.Time `json:"last_relaunch,omitempty"`
	RelaunchAttempts int64     `json:"relaunch_attempts"`
	RelaunchFailures int64     `json:"relaunch_failures"`
	LastError        string    `json:"last_error,omitempty"`
}

// Status is a point-in-time snapshot of the loop
type Status struct {
	State      string         `json:"state"`
	Counter    int            `json:"counter"`
	Iterations int64          `json:"iterations"`
	Pauses     int64          `json:"pauses"`
	StartedAt  time.Time      `json:"started_at"`
	LastPause  time.Time      `json:"last_pause,omitempty"`
	Targets    []TargetStatus `json:"targets"`
}

// Loop is the monitor state machine
type Loop struct {
	cfg Config

	mu         sync.RWMutex
	state      State
	counter    int
	iterations int64
	pauses     int64
	startedAt  time.Time
	lastPause  time.Time
	targets    []TargetStatus
}

// New validates cfg and creates a loop in the Active state
func New(cfg Config) (*Loop, error) {
	if len(cfg.Targets) == 0 {
		return nil, errors.New("monitor: no targets configured")
	}
	seen := make(map[string]bool, len(cfg.Targets))
	for _, t := range cfg.Targets {
		if t.Name == "" || t.Relauncher == nil {
			return nil, fmt.Errorf("monitor: target %q needs a name and a relauncher", t.Name)
		}
		// process names match case-insensitively
		key := strings.ToLower(t.Name)
		if seen[key] {
			return nil, fmt.Errorf("monitor: duplicate target %q", t.Name)
		}
		seen[key] = true
	}
	if cfg.Lister == nil {
		return nil, errors.New("monitor: no process lister")
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.PauseThreshold <= 0 {
		cfg.PauseThreshold = DefaultPauseThreshold
	}
	if cfg.PauseDuration <= 0 {
		cfg.PauseDuration = DefaultPauseDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	targets := make([]TargetStatus, len(cfg.Targets))
	for i, t := range cfg.Targets {
		targets[i] = TargetStatus{Name: t.Name, Relauncher: t.Relauncher.String()}
	}

	return &Loop{
		cfg:       cfg,
		state:     Active,
		startedAt: time.Now(),
		targets:   targets,
	}, nil
}

// Run iterates until ctx is canceled. It only returns ctx's error.
func (l *Loop) Run(ctx context.Context) error {
	l.cfg.Logger.Info(fmt.Sprintf("Monitor loop started: %d targets, pause after %d checks for %v",
		len(l.cfg.Targets), l.cfg.PauseThreshold, l.cfg.PauseDuration))

	for {
		if err := l.Step(ctx); err != nil {
			l.cfg.Logger.Info("Monitor loop stopped")
			return err
		}
	}
}

// Step runs one iteration: count, check every target, pause at the
// threshold, then wait one check interval.
func (l *Loop) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	counter := l.increment()

	for i, t := range l.cfg.Targets {
		l.check(ctx, i, t)
	}

	if counter >= l.cfg.PauseThreshold {
		if err := l.pause(ctx, counter); err != nil {
			return err
		}
	}

	return l.cfg.Sleep(ctx, l.cfg.CheckInterval)
}

// State returns the current state
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Counter returns the iteration counter since the last pause
func (l *Loop) Counter() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counter
}

// Snapshot returns the current status
func (l *Loop) Snapshot() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	targets := make([]TargetStatus, len(l.targets))
	copy(targets, l.targets)

	return Status{
		State:      l.state.String(),
		Counter:    l.counter,
		Iterations: l.iterations,
		Pauses:     l.pauses,
		StartedAt:  l.startedAt,
		LastPause:  l.lastPause,
		Targets:    targets,
	}
}

func (l *Loop) increment() int {
	l.mu.Lock()
	l.counter++
	l.iterations++
	counter := l.counter
	l.mu.Unlock()

	l.cfg.Metrics.setCounter(counter)
	return counter
}

// check looks up one target and relaunches it if absent. Failures are logged
// and never escape, so one target cannot block another.
func (l *Loop) check(ctx context.Context, i int, t Target) {
	logger := l.cfg.Logger.WithField("target", t.Name)

	running, err := l.cfg.Lister.Running(ctx, t.Name)
	now := time.Now()
	if err != nil {
		logger.Error(fmt.Sprintf("Liveness check failed: %v", err))
		l.updateTarget(i, func(s *TargetStatus) {
			s.LastChecked = now
			s.LastError = err.Error()
		})
		return
	}

	l.cfg.Metrics.observeCheck(t.Name, running)
	if running {
		l.updateTarget(i, func(s *TargetStatus) {
			s.Running = true
			s.LastChecked = now
		})
		return
	}

	logger.Info(fmt.Sprintf("%s is not running, relaunching via %s", t.Name, t.Relauncher))
	relaunchErr := t.Relauncher.Relaunch(ctx)
	l.cfg.Metrics.observeRelaunch(t.Name, relaunchErr)
	if relaunchErr != nil {
		logger.Error(fmt.Sprintf("Relaunch failed: %v", relaunchErr))
	}

	l.updateTarget(i, func(s *TargetStatus) {
		s.Running = false
		s.LastChecked = now
		s.LastRelaunch = now
		s.RelaunchAttempts++
		s.LastError = ""
		if relaunchErr != nil {
			s.RelaunchFailures++
			s.LastError = relaunchErr.Error()
		}
	})
}

func (l *Loop) updateTarget(i int, fn func(*TargetStatus)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.targets[i])
}

// pause moves to Paused, notifies once, sleeps, then resets to Active at zero
func (l *Loop) pause(ctx context.Context, counter int) error {
	l.mu.Lock()
	l.state = Paused
	l.pauses++
	l.lastPause = time.Now()
	l.mu.Unlock()
	l.cfg.Metrics.setPaused(true)

	msg := fmt.Sprintf("Checked %d times, pausing for %v", counter, l.cfg.PauseDuration)
	l.cfg.Logger.Info(msg)
	if l.cfg.Notifier != nil {
		if err := l.cfg.Notifier.Notify(ctx, NotificationTitle, msg); err != nil {
			l.cfg.Logger.Error(fmt.Sprintf("Notification failed: %v", err))
		}
	}

	if l.cfg.Textfile != "" {
		if err := l.cfg.Metrics.WriteTextfile(l.cfg.Textfile); err != nil {
			l.cfg.Logger.Error(fmt.Sprintf("Failed to write metrics textfile: %v", err))
		}
	}

	err := l.cfg.Sleep(ctx, l.cfg.PauseDuration)

	l.mu.Lock()
	l.counter = 0
	l.state = Active
	l.mu.Unlock()
	l.cfg.Metrics.setPaused(false)
	l.cfg.Metrics.setCounter(0)

	if err != nil {
		return err
	}
	l.cfg.Logger.Info("Pause over, resuming checks")
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
