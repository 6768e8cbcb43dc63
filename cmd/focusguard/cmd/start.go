package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Activate the guard (requires the password)",
	Long: `Start asks for the password, installs and loads the login agent that runs
the monitor, then makes the focusguard executable read-only.

Example:
  focusguard start
  focusguard start --config ~/.focusguard/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Deactivate the guard (requires the password)",
	Long: `Stop asks for the password, unloads the login agent and makes the
focusguard executable writable again. The agent descriptor stays installed
but inactive.`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	g, err := newGuard(cmd, cfg, logger)
	if err != nil {
		return err
	}

	if err := g.Start(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Monitor started.")
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	g, err := newGuard(cmd, cfg, logger)
	if err != nil {
		return err
	}

	if err := g.Stop(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Monitor stopped.")
	return nil
}
