// Package cmd provides command-line interface for ICN icon processing.
// This file contains commands for inspecting ICN 3-D icons and exporting
// their geometry and texture.
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hansbonini/psutools/pkg"
	"github.com/spf13/cobra"
)

// icnCmd represents the parent command for all ICN icon operations
var icnCmd = &cobra.Command{
	Use:   "icn",
	Short: "Process ICN 3-D icon files",
	Long: `Process ICN 3-D icon files used by PS2 memory card saves.

Commands:
  info      Print shape, vertex, animation and texture information
  export    Export geometry as Wavefront OBJ and the texture as PNG

Examples:
  psutools icn info list.icn
  psutools icn export list.icn ./output/`,
}

// icnInfoCmd prints a structural summary of an icon
var icnInfoCmd = &cobra.Command{
	Use:   "info [input_file]",
	Short: "Print ICN structure information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		icn, err := loadICN(args[0])
		if err != nil {
			return err
		}

		texture := "none"
		switch {
		case icn.HasCompressedTexture():
			texture = "RLE compressed"
		case icn.HasTexture():
			texture = "uncompressed"
		}

		fmt.Printf("Shapes:    %d\n", icn.ShapeCount)
		fmt.Printf("Vertices:  %d\n", icn.VertexCount())
		fmt.Printf("Frames:    %d\n", len(icn.Animation.Frames))
		fmt.Printf("Speed:     %f\n", icn.Animation.Speed)
		fmt.Printf("Texture:   %s (type %#x)\n", texture, icn.TextureType)
		return nil
	},
}

// icnExportCmd exports an icon's geometry and texture
var icnExportCmd = &cobra.Command{
	Use:   "export [input_file] [output_directory]",
	Short: "Export ICN geometry as OBJ and texture as PNG",
	Long: `Export an ICN icon to external formats.

This command will:
- Write the shape 0 geometry as icon.obj (Wavefront OBJ)
- Write the 128x128 texture page as texture.png (8-bit RGBA)

Example:
  psutools icn export list.icn ./output/`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir := args[1]

		icn, err := loadICN(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outputDir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exporter := pkg.NewICNExporter()

		objPath := filepath.Join(outputDir, "icon.obj")
		objFile, err := os.Create(objPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", objPath, err)
		}
		if err := exporter.ExportOBJ(icn, objFile); err != nil {
			objFile.Close()
			return fmt.Errorf("failed to export OBJ: %w", err)
		}
		if err := objFile.Close(); err != nil {
			return err
		}

		pngPath := filepath.Join(outputDir, "texture.png")
		pngFile, err := os.Create(pngPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", pngPath, err)
		}
		if err := exporter.ExportPNG(icn, pngFile); err != nil {
			pngFile.Close()
			return fmt.Errorf("failed to export PNG: %w", err)
		}
		if err := pngFile.Close(); err != nil {
			return err
		}

		fmt.Printf("Icon exported to %s\n", outputDir)
		return nil
	},
}

// loadICN reads and decodes one ICN file
func loadICN(filename string) (*pkg.ICNFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	icn, err := pkg.NewICNDecoder().Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return icn, nil
}

// init initializes the ICN command with its subcommands
func init() {
	rootCmd.AddCommand(icnCmd)
	icnCmd.AddCommand(icnInfoCmd)
	icnCmd.AddCommand(icnExportCmd)
}
