// Package cmd provides command-line interface for SAS timestamp planning.
package cmd

import (
	"fmt"

	"github.com/hansbonini/psutools/pkg/sas"
	"github.com/spf13/cobra"
)

// sasCmd represents the parent command for SAS scheduling operations
var sasCmd = &cobra.Command{
	Use:   "sas",
	Short: "Plan deterministic SAS timestamps",
	Long: `Plan deterministic timestamps for SAS-named save folders.

The SAS naming convention assigns every folder a reproducible creation time
derived from its category prefix and name, so the PS2 browser lists folders
in a stable order.

Examples:
  psutools sas plan OPL
  psutools sas plan APP_NEUTRINO SYS_BOOT APPS
  psutools sas plan --rules sas_rules.yaml EMU_SNES`,
}

// sasPlanCmd prints the planned timestamp for one or more folder names
var sasPlanCmd = &cobra.Command{
	Use:   "plan [name]...",
	Short: "Print the planned timestamp for folder names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rulesFile, err := cmd.Flags().GetString("rules")
		if err != nil {
			return fmt.Errorf("error getting rules flag: %w", err)
		}

		rules := sas.DefaultRules()
		if rulesFile != "" {
			if rules, err = sas.LoadRules(rulesFile); err != nil {
				return err
			}
		}

		for _, name := range args {
			planned, ok := sas.Plan(name, rules)
			if !ok {
				fmt.Printf("%-24s (no category)\n", name)
				continue
			}
			fmt.Printf("%-24s %s\n", name, planned.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// init initializes the sas command with its subcommands and flags
func init() {
	rootCmd.AddCommand(sasCmd)
	sasCmd.AddCommand(sasPlanCmd)

	sasPlanCmd.Flags().String("rules", "", "YAML timestamp rules file (default built-in rules)")
}
