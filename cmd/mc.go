// Package cmd provides command-line interface for memory card images.
// This file contains commands for listing and extracting files from raw
// PS2 memory card images.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hansbonini/psutools/pkg/mc"
	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"
)

// mcCmd represents the parent command for memory card image operations
var mcCmd = &cobra.Command{
	Use:   "mc",
	Short: "Inspect raw PS2 memory card images",
	Long: `Inspect raw PS2 memory card images (read-only).

Commands:
  ls        List the entries of a directory on the card
  extract   Copy a file from the card to the local filesystem

Examples:
  psutools mc ls card.mc2
  psutools mc ls card.mc2 SYS_BOOT
  psutools mc extract card.mc2 SYS_BOOT/icon.sys ./output/`,
}

// mcLsCmd lists a directory of the card
var mcLsCmd = &cobra.Command{
	Use:   "ls [image] [path]",
	Short: "List entries of a directory on the card",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := mc.OpenCardReader(args[0])
		if err != nil {
			return fmt.Errorf("failed to open card image: %w", err)
		}
		defer card.Close()

		path := "/"
		if len(args) == 2 {
			path = args[1]
		}
		dir, err := card.Lookup(path)
		if err != nil {
			return err
		}
		children, err := card.Children(dir)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Type", "Size", "Modified"})
		for i := range children {
			entry := &children[i]
			if !entry.Exists() || entry.IsEmpty() || entry.IsDeleted() {
				continue
			}
			kind := "file"
			size := fmt.Sprintf("%d", entry.Length)
			if entry.IsDirectory() {
				kind = "dir"
				size = fmt.Sprintf("%d entries", entry.Length)
			}
			t.AppendRow(table.Row{entry.Name, kind, size, entry.Modified.Time().Format("2006-01-02 15:04:05")})
		}
		t.Render()
		return nil
	},
}

// mcExtractCmd copies one file off the card
var mcExtractCmd = &cobra.Command{
	Use:   "extract [image] [path] [output_directory]",
	Short: "Copy a file from the card to the local filesystem",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := mc.OpenCardReader(args[0])
		if err != nil {
			return fmt.Errorf("failed to open card image: %w", err)
		}
		defer card.Close()

		entry, err := card.Lookup(args[1])
		if err != nil {
			return err
		}
		data, err := card.ReadFile(entry)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(args[2], 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		output := filepath.Join(args[2], entry.Name)
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}

		fmt.Printf("Extracted %s (%d bytes)\n", output, len(data))
		return nil
	},
}

// init initializes the mc command with its subcommands
func init() {
	rootCmd.AddCommand(mcCmd)
	mcCmd.AddCommand(mcLsCmd)
	mcCmd.AddCommand(mcExtractCmd)
}
