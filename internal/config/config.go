package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/psantana5/focusguard/internal/autostart"
)

// EnvPrefix prefixes every environment override, e.g. FOCUSGUARD_LOG_FILE
const EnvPrefix = "FOCUSGUARD"

// Config holds every path and tunable the guard uses. Components receive
// the values they need at construction.
type Config struct {
	HomeDir         string        `mapstructure:"home_dir"`
	CredentialFile  string        `mapstructure:"credential_file"`
	LogFile         string        `mapstructure:"log_file"`
	LogLevel        string        `mapstructure:"log_level"`
	MonitorScript   string        `mapstructure:"monitor_script"`
	LockPath        string        `mapstructure:"lock_path"`
	Label           string        `mapstructure:"label"`
	LaunchAgentsDir string        `mapstructure:"launch_agents_dir"`
	TargetsFile     string        `mapstructure:"targets_file"`
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	PauseThreshold  int           `mapstructure:"pause_threshold"`
	PauseDuration   time.Duration `mapstructure:"pause_duration"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	MetricsTextfile string        `mapstructure:"metrics_textfile"`

	// ConfigFile is the file the values were read from, "" if none
	ConfigFile string `mapstructure:"-"`
	// Env holds the FOCUSGUARD_* overrides present at load time, keyed by
	// variable name, so they can be handed on to the login agent
	Env map[string]string `mapstructure:"-"`
}

// Keys lists every configuration key
var Keys = []string{
	"home_dir",
	"credential_file",
	"log_file",
	"log_level",
	"monitor_script",
	"lock_path",
	"label",
	"launch_agents_dir",
	"targets_file",
	"check_interval",
	"pause_threshold",
	"pause_duration",
	"metrics_addr",
	"metrics_textfile",
}

// EnvName returns the environment variable that overrides key
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// Load reads configuration from configFile (or ~/.focusguard/config.yaml when
// empty), then the environment, then built-in defaults.
func Load(configFile string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, home)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default are unknown to Unmarshal unless bound explicitly
	for key := range homeRelative {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(defaultHomeDir(home))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Paths under home_dir follow an overridden home_dir unless set explicitly
	homeDir := expandHome(v.GetString("home_dir"), home)
	for key, name := range homeRelative {
		if !v.IsSet(key) {
			v.SetDefault(key, filepath.Join(homeDir, name))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.Env = make(map[string]string)
	for _, key := range Keys {
		if value, ok := os.LookupEnv(EnvName(key)); ok {
			cfg.Env[EnvName(key)] = value
		}
	}

	cfg.HomeDir = homeDir
	for _, p := range []*string{&cfg.CredentialFile, &cfg.LogFile, &cfg.MonitorScript, &cfg.LockPath, &cfg.LaunchAgentsDir, &cfg.TargetsFile, &cfg.MetricsTextfile} {
		*p = expandHome(*p, home)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var homeRelative = map[string]string{
	"credential_file": ".password_hash",
	"log_file":        "focusguard.log",
	"monitor_script":  "monitor.sh",
	"targets_file":    "targets.yaml",
}

func defaultHomeDir(home string) string {
	return filepath.Join(home, ".focusguard")
}

func setDefaults(v *viper.Viper, home string) {
	username := "user"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	lockPath := ""
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		lockPath = exe
	}

	v.SetDefault("home_dir", defaultHomeDir(home))
	v.SetDefault("log_level", "info")
	v.SetDefault("lock_path", lockPath)
	v.SetDefault("label", autostart.DefaultLabel(username))
	v.SetDefault("launch_agents_dir", filepath.Join(home, "Library", "LaunchAgents"))
	v.SetDefault("check_interval", time.Second)
	v.SetDefault("pause_threshold", 1200)
	v.SetDefault("pause_duration", 60*time.Second)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("metrics_textfile", "")
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// EnsureHomeDir creates the state directory, private to the user
func (c *Config) EnsureHomeDir() error {
	if err := os.MkdirAll(c.HomeDir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", c.HomeDir, err)
	}
	return nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.CredentialFile == "" || c.LogFile == "" || c.MonitorScript == "" {
		return errors.New("credential_file, log_file and monitor_script must be set")
	}
	if c.LockPath == "" {
		return errors.New("lock_path must be set")
	}
	if c.Label == "" || c.LaunchAgentsDir == "" {
		return errors.New("label and launch_agents_dir must be set")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive, got %v", c.CheckInterval)
	}
	if c.PauseThreshold <= 0 {
		return fmt.Errorf("pause_threshold must be positive, got %d", c.PauseThreshold)
	}
	if c.PauseDuration <= 0 {
		return fmt.Errorf("pause_duration must be positive, got %v", c.PauseDuration)
	}
	return nil
}
