package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := setHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	base := filepath.Join(home, ".focusguard")
	assert.Equal(t, base, cfg.HomeDir)
	assert.Equal(t, filepath.Join(base, ".password_hash"), cfg.CredentialFile)
	assert.Equal(t, filepath.Join(base, "focusguard.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(base, "monitor.sh"), cfg.MonitorScript)
	assert.Equal(t, filepath.Join(base, "targets.yaml"), cfg.TargetsFile)
	assert.Equal(t, filepath.Join(home, "Library", "LaunchAgents"), cfg.LaunchAgentsDir)
	assert.Regexp(t, `^com\..+\.focusguard$`, cfg.Label)
	assert.NotEmpty(t, cfg.LockPath)
	assert.Equal(t, time.Second, cfg.CheckInterval)
	assert.Equal(t, 1200, cfg.PauseThreshold)
	assert.Equal(t, 60*time.Second, cfg.PauseDuration)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadFileAndEnv(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(t.TempDir(), "guard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
home_dir: ~/guard
log_file: /tmp/guard.log
pause_threshold: 600
pause_duration: 30s
label: com.test.focusguard
`), 0o644))

	t.Setenv("FOCUSGUARD_METRICS_ADDR", "127.0.0.1:9310")
	t.Setenv("FOCUSGUARD_CHECK_INTERVAL", "2s")
	t.Setenv("FOCUSGUARD_TARGETS_FILE", "~/targets.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, filepath.Join(home, "guard"), cfg.HomeDir)
	assert.Equal(t, filepath.Join(home, "guard", ".password_hash"), cfg.CredentialFile)
	assert.Equal(t, "/tmp/guard.log", cfg.LogFile)
	assert.Equal(t, 600, cfg.PauseThreshold)
	assert.Equal(t, 30*time.Second, cfg.PauseDuration)
	assert.Equal(t, 2*time.Second, cfg.CheckInterval)
	assert.Equal(t, "com.test.focusguard", cfg.Label)
	assert.Equal(t, "127.0.0.1:9310", cfg.MetricsAddr)
	assert.Equal(t, filepath.Join(home, "targets.yaml"), cfg.TargetsFile)
	assert.Equal(t, map[string]string{
		"FOCUSGUARD_METRICS_ADDR":   "127.0.0.1:9310",
		"FOCUSGUARD_CHECK_INTERVAL": "2s",
		"FOCUSGUARD_TARGETS_FILE":   "~/targets.yaml",
	}, cfg.Env)
}

func TestLoadPathsFromEnv(t *testing.T) {
	home := setHome(t)
	logFile := filepath.Join(t.TempDir(), "guard.log")
	t.Setenv("FOCUSGUARD_LOG_FILE", logFile)
	t.Setenv("FOCUSGUARD_CREDENTIAL_FILE", "~/secret/hash")
	t.Setenv("FOCUSGUARD_MONITOR_SCRIPT", "/tmp/fg-monitor.sh")

	cfg, err := Load("")
	require.NoError(t, err)

	base := filepath.Join(home, ".focusguard")
	assert.Equal(t, logFile, cfg.LogFile)
	assert.Equal(t, filepath.Join(home, "secret", "hash"), cfg.CredentialFile)
	assert.Equal(t, "/tmp/fg-monitor.sh", cfg.MonitorScript)
	assert.Equal(t, filepath.Join(base, "targets.yaml"), cfg.TargetsFile)
	assert.Len(t, cfg.Env, 3)
}

func TestEnsureHomeDirIsPrivate(t *testing.T) {
	home := setHome(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureHomeDir())

	info, err := os.Stat(filepath.Join(home, ".focusguard"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestLoadDiscoversDefaultConfigFile(t *testing.T) {
	home := setHome(t)
	dir := filepath.Join(home, ".focusguard")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("pause_threshold: 5\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PauseThreshold)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.ConfigFile)
}

func TestLoadErrors(t *testing.T) {
	setHome(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pause_threshold: 0\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "pause_threshold")
}

func TestLoadTargets(t *testing.T) {
	dir := t.TempDir()

	targets, err := LoadTargets(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTargets(), targets)

	path := filepath.Join(dir, "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
targets:
  - name: Freedom
    strategy: spotlight
  - name: SelfControl
    strategy: bundle
    bundle: /Applications/SelfControl.app
`), 0o644))

	targets, err = LoadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "Freedom", targets[0].Argument())
	assert.Equal(t, "/Applications/SelfControl.app", targets[1].Argument())
}

func TestValidateTargets(t *testing.T) {
	tests := []struct {
		name    string
		targets []TargetSpec
	}{
		{"empty", nil},
		{"no name", []TargetSpec{{Strategy: StrategySpotlight}}},
		{"duplicate", []TargetSpec{
			{Name: "A", Strategy: StrategySpotlight},
			{Name: "a", Strategy: StrategySpotlight},
		}},
		{"unknown strategy", []TargetSpec{{Name: "A", Strategy: "dock"}}},
		{"bundle without path", []TargetSpec{{Name: "A", Strategy: StrategyBundle}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateTargets(tt.targets))
		})
	}
	assert.NoError(t, ValidateTargets(DefaultTargets()))
}

func TestExampleTargetsIsLoadable(t *testing.T) {
	example, err := ExampleTargets()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(example), 0o644))

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTargets(), targets)
}
