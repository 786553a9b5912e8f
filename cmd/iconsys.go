// Package cmd provides command-line interface for icon.sys inspection.
package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hansbonini/psutools/pkg"
	"github.com/spf13/cobra"
)

// iconsysCmd represents the parent command for icon.sys operations
var iconsysCmd = &cobra.Command{
	Use:   "iconsys",
	Short: "Process icon.sys metadata blocks",
	Long: `Process icon.sys metadata blocks from PS2 save folders.

Commands:
  show      Print the title, save kind, icon filenames and colors

Example:
  psutools iconsys show icon.sys`,
}

// iconsysShowCmd prints a readable summary of an icon.sys block
var iconsysShowCmd = &cobra.Command{
	Use:   "show [input_file]",
	Short: "Print an icon.sys summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		sys, err := pkg.NewIconSysDecoder().Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		return pkg.ExportIconSysSummary(sys, os.Stdout)
	},
}

// init initializes the iconsys command with its subcommands
func init() {
	rootCmd.AddCommand(iconsysCmd)
	iconsysCmd.AddCommand(iconsysShowCmd)
}
