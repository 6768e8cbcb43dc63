// Package desktop drives the desktop automation facility (osascript) to
// relaunch target applications and post user notifications.
package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/psantana5/focusguard/internal/shell"
)

// Relaunch strategies accepted in the targets file
const (
	StrategySpotlight = "spotlight"
	StrategyBundle    = "bundle"
)

// Relauncher brings a missing application back
type Relauncher interface {
	Relaunch(ctx context.Context) error
	String() string
}

// SpotlightLaunch opens an application by typing its name into Spotlight
type SpotlightLaunch struct {
	Query  string
	Delay  time.Duration
	Runner shell.Runner
}

// Relaunch implements Relauncher
func (s SpotlightLaunch) Relaunch(ctx context.Context) error {
	delay := s.Delay
	if delay <= 0 {
		delay = time.Second
	}
	secs := fmt.Sprintf("%g", delay.Seconds())

	script := fmt.Sprintf(`tell application "System Events"
	keystroke space using command down
	delay %s
	keystroke %s
	delay %s
	key code 36
end tell`, secs, shell.AppleScriptString(s.Query), secs)

	if _, err := s.Runner.Run(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("spotlight launch of %q: %w", s.Query, err)
	}
	return nil
}

func (s SpotlightLaunch) String() string {
	return fmt.Sprintf("spotlight %q", s.Query)
}

// FixedBundleOpen opens a fixed application bundle from a new Terminal window
type FixedBundleOpen struct {
	BundlePath string
	Runner     shell.Runner
}

// Relaunch implements Relauncher
func (b FixedBundleOpen) Relaunch(ctx context.Context) error {
	command := "open " + shell.Quote(b.BundlePath)
	script := `tell application "Terminal" to do script ` + shell.AppleScriptString(command)

	if _, err := b.Runner.Run(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("open %s: %w", b.BundlePath, err)
	}
	return nil
}

func (b FixedBundleOpen) String() string {
	return "bundle " + b.BundlePath
}

// NewRelauncher builds the relauncher for a named strategy. arg is the
// Spotlight query or the bundle path.
func NewRelauncher(strategy, arg string, runner shell.Runner) (Relauncher, error) {
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	if arg == "" {
		return nil, fmt.Errorf("strategy %q needs a non-empty argument", strategy)
	}
	switch strategy {
	case StrategySpotlight:
		return SpotlightLaunch{Query: arg, Runner: runner}, nil
	case StrategyBundle:
		return FixedBundleOpen{BundlePath: arg, Runner: runner}, nil
	default:
		return nil, fmt.Errorf("unknown relaunch strategy %q", strategy)
	}
}
