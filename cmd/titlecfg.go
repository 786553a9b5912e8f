// Package cmd provides command-line interface for title.cfg manifests.
package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hansbonini/psutools/pkg"
	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"
)

// titlecfgCmd represents the parent command for title.cfg operations
var titlecfgCmd = &cobra.Command{
	Use:   "titlecfg",
	Short: "Process title.cfg manifests",
	Long: `Process title.cfg manifests used by homebrew launchers.

Commands:
  check     Report which mandatory keys are present
  fix       Insert missing mandatory keys with empty values

Examples:
  psutools titlecfg check title.cfg
  psutools titlecfg fix title.cfg`,
}

// titlecfgCheckCmd reports the mandatory key coverage of a manifest
var titlecfgCheckCmd = &cobra.Command{
	Use:   "check [input_file]",
	Short: "Report which mandatory keys are present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadTitleCfg(args[0])
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Key", "Status", "Value"})
		for _, key := range pkg.MandatoryTitleCfgKeys(pkg.TitleCfgHelper) {
			value, ok := cfg.Get(key)
			status := "missing"
			if ok {
				status = "present"
			}
			t.AppendRow(table.Row{key, status, value})
		}
		t.Render()

		if !cfg.HasMandatoryFields(pkg.TitleCfgHelper) {
			return fmt.Errorf("mandatory keys missing from %s", args[0])
		}
		return nil
	},
}

// titlecfgFixCmd inserts the missing mandatory keys
var titlecfgFixCmd = &cobra.Command{
	Use:   "fix [input_file]",
	Short: "Insert missing mandatory keys with empty values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadTitleCfg(args[0])
		if err != nil {
			return err
		}

		cfg.AddMissingFields(pkg.TitleCfgHelper)

		var buffer bytes.Buffer
		if err := cfg.Serialize(&buffer); err != nil {
			return err
		}
		if err := os.WriteFile(args[0], buffer.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[0], err)
		}

		fmt.Printf("Updated %s\n", args[0])
		return nil
	},
}

// loadTitleCfg reads and parses one title.cfg file
func loadTitleCfg(filename string) (*pkg.TitleCfg, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	cfg, err := pkg.ParseTitleCfg(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return cfg, nil
}

// init initializes the titlecfg command with its subcommands
func init() {
	rootCmd.AddCommand(titlecfgCmd)
	titlecfgCmd.AddCommand(titlecfgCheckCmd)
	titlecfgCmd.AddCommand(titlecfgFixCmd)
}
