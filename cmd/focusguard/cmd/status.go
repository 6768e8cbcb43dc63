package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/focusguard/internal/guard"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the guard is set up, loaded and locked",
	Long: `Status reports the credential, login agent, lock and target state. It does
not require the password and changes nothing.

The lock only stops casual edits: the owner of the file can always make it
writable again.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	g, err := newGuard(cmd, cfg, logger)
	if err != nil {
		return err
	}

	st, err := g.Status(cmd.Context())
	if err != nil {
		return err
	}
	return printStatus(cmd.OutOrStdout(), st)
}

func printStatus(w io.Writer, st *guard.Status) error {
	if IsJSONOutput() {
		output, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")
	table.Append([]string{"Password", yesNo(st.Configured, "set", "not set")})
	table.Append([]string{"Login agent", withError(st.Agent(), st.LoadedError)})
	table.Append([]string{"Descriptor", st.DescriptorPath})
	table.Append([]string{"Lock", withError(yesNo(st.Locked, "read-only", "writable"), st.LockError)})
	table.Append([]string{"Locked file", st.LockPath})
	table.Append([]string{"Log file", st.LogFile})
	table.Render()

	fmt.Fprintln(w)
	targets := tablewriter.NewWriter(w)
	targets.Header("Target", "Strategy", "Running")
	for _, t := range st.Targets {
		targets.Append(t.Name, t.Strategy, withError(yesNo(t.Running, "yes", "no"), t.Error))
	}
	targets.Render()
	return nil
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func withError(value, errMsg string) string {
	if errMsg == "" {
		return value
	}
	return fmt.Sprintf("%s (error: %s)", value, errMsg)
}
