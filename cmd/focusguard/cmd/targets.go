package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/focusguard/internal/config"
)

var printExample bool

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the applications the monitor keeps running",
	Long: `Targets prints the effective target list: the targets file when it exists,
the two built-in focus applications otherwise.

Example:
  focusguard targets
  focusguard targets --example > ~/.focusguard/targets.yaml`,
	Args: cobra.NoArgs,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.Flags().BoolVar(&printExample, "example", false, "print an example targets file and exit")
}

func runTargets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if printExample {
		doc, err := config.ExampleTargets()
		if err != nil {
			return err
		}
		fmt.Fprint(out, doc)
		return nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	specs, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(specs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Name", "Strategy", "Argument")
	for _, s := range specs {
		table.Append(s.Name, s.Strategy, s.Argument())
	}
	table.Render()
	fmt.Fprintf(out, "\nTargets file: %s\n", cfg.TargetsFile)
	return nil
}
