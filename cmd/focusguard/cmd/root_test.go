package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/focusguard/internal/config"
	"github.com/psantana5/focusguard/internal/errs"
	"github.com/psantana5/focusguard/internal/guard"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// run executes the root command with stdin as the command's input
func run(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile = ""
		outputFormat = "table"
		printExample = false
		rootCmd.SetIn(nil)
	})

	if args == nil {
		// a nil slice makes cobra fall back to os.Args
		args = []string{}
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	setHome(t)
	return run(t, strings.NewReader(""), args...)
}

func TestBareInvocationSetsPassword(t *testing.T) {
	home := setHome(t)

	stdout, stderr, err := run(t, strings.NewReader("abc\nabc\n"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Password set.")
	assert.Contains(t, stderr, "Set a password: Confirm password: ")

	dir := filepath.Join(home, ".focusguard")
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	assert.FileExists(t, filepath.Join(dir, ".password_hash"))

	logs, err := os.ReadFile(filepath.Join(dir, "focusguard.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logs), "[INFO] Password set up")
}

func TestBareInvocationWhenAlreadySet(t *testing.T) {
	setHome(t)
	record := filepath.Join(t.TempDir(), "hash")
	require.NoError(t, os.WriteFile(record, []byte("$2a$04$existing\n"), 0o600))
	t.Setenv("FOCUSGUARD_CREDENTIAL_FILE", record)

	stdout, stderr, err := run(t, strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrAlreadyConfigured)
	assert.Contains(t, stdout, "A password is already set.")
	assert.Contains(t, stdout, "focusguard start")
	assert.Empty(t, stderr, "no prompt is shown")

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$existing\n", string(data))
}

func TestBareInvocationMismatch(t *testing.T) {
	home := setHome(t)

	_, _, err := run(t, strings.NewReader("abc\nxyz\n"))
	assert.ErrorIs(t, err, errs.ErrMismatch)
	assert.NoFileExists(t, filepath.Join(home, ".focusguard", ".password_hash"))
}

func TestUnknownCommandPrintsUsage(t *testing.T) {
	_, stderr, err := execute(t, "pause")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "pause"`)
	assert.Contains(t, stderr, "Usage:")
}

func TestStartRejectsExtraArgs(t *testing.T) {
	_, _, err := execute(t, "start", "now")
	assert.Error(t, err)
}

func TestTargetsExample(t *testing.T) {
	stdout, _, err := execute(t, "targets", "--example")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# focusguard targets")
	assert.Contains(t, stdout, "SelfControl")
}

func TestTargetsJSON(t *testing.T) {
	stdout, _, err := execute(t, "targets", "--output", "json")
	require.NoError(t, err)

	var specs []config.TargetSpec
	require.NoError(t, json.Unmarshal([]byte(stdout), &specs))
	assert.Equal(t, config.DefaultTargets(), specs)
}

func TestPrintStatusTable(t *testing.T) {
	var buf bytes.Buffer
	st := &guard.Status{
		Configured:     true,
		DescriptorPath: "/Users/a/Library/LaunchAgents/com.a.focusguard.plist",
		Installed:      true,
		LockPath:       "/usr/local/bin/focusguard",
		Locked:         true,
		Targets: []guard.TargetState{
			{Name: "SelfControl", Strategy: "bundle", Running: true},
			{Name: "Cold Turkey Blocker", Strategy: "spotlight", Error: "permission denied"},
		},
	}
	require.NoError(t, printStatus(&buf, st))

	out := buf.String()
	assert.Contains(t, out, "installed (inactive)")
	assert.Contains(t, out, "read-only")
	assert.Contains(t, out, "no (error: permission denied)")
}
