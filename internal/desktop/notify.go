package desktop

import (
	"context"
	"fmt"

	"github.com/psantana5/focusguard/internal/shell"
)

// Notifier posts a user-visible notification
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// ScriptNotifier posts notifications through osascript
type ScriptNotifier struct {
	Runner shell.Runner
}

// NewScriptNotifier creates an osascript notifier
func NewScriptNotifier(runner shell.Runner) *ScriptNotifier {
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	return &ScriptNotifier{Runner: runner}
}

// Notify implements Notifier
func (n *ScriptNotifier) Notify(ctx context.Context, title, message string) error {
	script := fmt.Sprintf("display notification %s with title %s",
		shell.AppleScriptString(message), shell.AppleScriptString(title))
	if _, err := n.Runner.Run(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
