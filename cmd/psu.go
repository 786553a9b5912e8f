// Package cmd provides command-line interface for PSU archive processing.
// This file contains commands for packing a save folder into a PSU archive
// and unpacking an existing archive.
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hansbonini/psutools/pkg"
	"github.com/hansbonini/psutools/pkg/packer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const (
	dimFormat   = "\x1b[2m%s\x1b[0m\n"
	greenFormat = "\x1b[32m%s\x1b[0m\n"
)

// psuCmd represents the parent command for all PSU archive operations
var psuCmd = &cobra.Command{
	Use:   "psu",
	Short: "Process PSU archive files",
	Long: `Process PSU archive files used for PS2 memory card saves.

Commands:
  pack      Assemble a folder into a PSU archive (driven by psu.toml)
  unpack    Extract the entries of a PSU archive into a folder

Examples:
  psutools psu pack ./MYSAVE
  psutools psu pack ./MYSAVE -o MYSAVE.psu
  psutools psu unpack MYSAVE.psu ./output/`,
}

// psuPackCmd assembles a folder into a PSU archive
var psuPackCmd = &cobra.Command{
	Use:   "pack [folder]",
	Short: "Assemble a folder into a PSU archive",
	Long: `Assemble a folder into a PSU archive.

The folder must contain a psu.toml configuration with at least a name field.
Include/exclude sets, a fixed timestamp and icon.sys synthesis are driven by
the same file; psu.toml itself is never packed. Skipped include entries are
reported but do not fail the build.

Example:
  psutools psu pack ./MYSAVE -o MYSAVE.psu`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := args[0]

		config, err := packer.LoadConfig(folder)
		if err != nil {
			return err
		}

		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("error getting output flag: %w", err)
		}
		if output == "" {
			output = config.Name + ".psu"
		}

		var bar *progressbar.ProgressBar
		p := packer.New()
		p.Warnf = func(format string, warnArgs ...interface{}) {
			fmt.Printf(dimFormat, fmt.Sprintf(format, warnArgs...))
		}
		p.Progress = func(done, total int, name string) {
			if bar == nil {
				bar = progressbar.New(total)
			}
			bar.Add(1)
		}

		if err := p.Pack(folder, output, config); err != nil {
			return fmt.Errorf("failed to pack %s: %w", folder, err)
		}
		if bar != nil {
			bar.Finish()
			fmt.Println()
		}

		fmt.Printf(greenFormat, fmt.Sprintf("Packed %s -> %s", folder, output))
		return nil
	},
}

// psuUnpackCmd extracts the entries of a PSU archive
var psuUnpackCmd = &cobra.Command{
	Use:   "unpack [input_file] [output_directory]",
	Short: "Extract the entries of a PSU archive",
	Long: `Extract the entries of a PSU archive into a folder.

File entries are written with their archived names; directory pseudo-entries
are skipped.

Example:
  psutools psu unpack MYSAVE.psu ./output/`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputDir := args[1]

		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", inputFile, err)
		}

		psu, err := pkg.NewPSUDecoder().Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", inputFile, err)
		}

		target := filepath.Join(outputDir, psu.Name())
		if err := os.MkdirAll(target, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for _, file := range psu.Files() {
			if err := os.WriteFile(filepath.Join(target, file.Name), file.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file.Name, err)
			}
		}

		fmt.Printf(greenFormat, fmt.Sprintf("Extracted %d files to %s", len(psu.Files()), target))
		return nil
	},
}

// init initializes the PSU command with its subcommands and flags
func init() {
	rootCmd.AddCommand(psuCmd)
	psuCmd.AddCommand(psuPackCmd)
	psuCmd.AddCommand(psuUnpackCmd)

	psuPackCmd.Flags().StringP("output", "o", "", "Output archive path (default <name>.psu)")
}
