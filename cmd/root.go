// Package cmd provides command-line interface functionality for PSUTools.
// PSUTools is a collection of utilities for authoring and inspecting
// PlayStation 2 memory card save data.
package cmd

import (
	"os"

	"github.com/hansbonini/psutools/pkg/common"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
// It provides the main entry point for the PSUTools application.
var rootCmd = &cobra.Command{
	Use:   "psutools",
	Short: "Tools for PS2 memory card save data",
	Long: `PSUTools - A collection of utilities for authoring and inspecting
PlayStation 2 memory card save data.

Currently supports:
  - PSU archives (pack a folder / unpack an archive)
  - ICN 3-D icons (inspect, export OBJ and PNG)
  - icon.sys metadata blocks (inspect)
  - title.cfg manifests (check/fix mandatory fields)
  - Raw memory card images (list and extract files)
  - SAS deterministic timestamp planning

Examples:
  psutools psu pack ./MYSAVE -o MYSAVE.psu
  psutools psu unpack MYSAVE.psu ./output/
  psutools icn export list.icn ./output/
  psutools iconsys show icon.sys
  psutools mc ls card.mc2 SYS_BOOT
  psutools sas plan OPL

Use 'psutools [command] --help' for more information about a command.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		common.SetVerboseMode(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// init registers the global flags
func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug output")
}
