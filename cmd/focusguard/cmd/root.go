package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psantana5/focusguard/internal/config"
	"github.com/psantana5/focusguard/internal/credential"
	"github.com/psantana5/focusguard/internal/errs"
	"github.com/psantana5/focusguard/internal/guard"
	"github.com/psantana5/focusguard/pkg/logging"
)

var (
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command. Invoked bare it runs first-time
// password setup.
var rootCmd = &cobra.Command{
	Use:   "focusguard",
	Short: "Keep focus applications running",
	Long: `focusguard keeps a set of focus applications running. A login agent runs
a monitor that relaunches them whenever they are closed, pausing for a minute
every twenty minutes.

Run without arguments once to set the password that protects start and stop.`,
	Args:          rootArgs,
	RunE:          runSetup,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.focusguard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
}

// rootArgs rejects anything that is not a known subcommand
func rootArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd.Usage()
	return fmt.Errorf("unknown command %q", args[0])
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// loadRuntime reads configuration and opens the shared log file
func loadRuntime() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureHomeDir(); err != nil {
		return nil, nil, errs.New(errs.KindWrite, "init", cfg.HomeDir, err)
	}
	logger, err := logging.NewFileLogger(cfg.LogFile, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, nil, errs.New(errs.KindWrite, "log", cfg.LogFile, err)
	}
	return cfg, logger, nil
}

// newGuard wires a guard with the real OS collaborators. Passwords are read
// from the command's input.
func newGuard(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger) (*guard.Guard, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return guard.New(cfg, guard.Deps{
		Prompter:   &credential.TerminalPrompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()},
		Logger:     logger,
		Executable: exe,
	}), nil
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	g, err := newGuard(cmd, cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := g.Setup(); err != nil {
		if errors.Is(err, errs.ErrAlreadyConfigured) {
			fmt.Fprintln(out, "A password is already set.")
			fmt.Fprintln(out, "Use 'focusguard start' to activate the guard or 'focusguard stop' to deactivate it.")
		}
		return err
	}

	fmt.Fprintln(out, "Password set. Run 'focusguard start' to activate the guard.")
	return nil
}
