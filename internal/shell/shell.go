// Package shell runs OS utilities and quotes arguments for the two script
// languages the guard generates: POSIX sh and AppleScript.
package shell

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its combined output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Quote returns s as a single-quoted POSIX shell word
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// AppleScriptString returns s as an AppleScript string literal
func AppleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
