// Package pkg provides codecs for PlayStation 2 memory card save data.
// This file contains exporters for converting ICN data to Wavefront OBJ and
// PNG images, and icon.sys data to a readable summary.
package pkg

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/hansbonini/psutools/pkg/common"
)

// ICNFileExporter implements the ICNExporter interface and provides
// functionality to export ICN data to external formats (OBJ, PNG).
type ICNFileExporter struct{}

// NewICNExporter creates a new ICN exporter instance.
// Returns a pointer to an ICNFileExporter ready for use.
func NewICNExporter() *ICNFileExporter {
	return &ICNFileExporter{}
}

// ExportOBJ writes the geometry of shape 0 as a Wavefront OBJ. Coordinates
// are converted from 1/4096 fixed point, with Y and Z negated to match the
// OBJ coordinate system; the v texture coordinate is flipped. Faces group
// consecutive vertex triples.
func (e *ICNFileExporter) ExportOBJ(icn *ICNFile, writer io.Writer) error {
	for i := range icn.Slots {
		slot := &icn.Slots[i]
		if len(slot.Shapes) == 0 {
			return fmt.Errorf("%w: vertex slot %d has no shapes", ErrMalformedICN, i)
		}
		vertex := slot.Shapes[0]
		_, err := fmt.Fprintf(writer, "v %f %f %f\n",
			common.FixedToFloat(vertex.X),
			-common.FixedToFloat(vertex.Y),
			-common.FixedToFloat(vertex.Z))
		if err != nil {
			return fmt.Errorf("failed to write vertex %d: %w", i, err)
		}
	}

	for i := range icn.Slots {
		uv := icn.Slots[i].UV
		_, err := fmt.Fprintf(writer, "vt %f %f\n",
			common.FixedToFloat(uv.U),
			1-common.FixedToFloat(uv.V))
		if err != nil {
			return fmt.Errorf("failed to write texture coordinate %d: %w", i, err)
		}
	}

	for i := 0; i+2 < len(icn.Slots); i += 3 {
		_, err := fmt.Fprintf(writer, "f %d/%d %d/%d %d/%d\n",
			i+1, i+1, i+2, i+2, i+3, i+3)
		if err != nil {
			return fmt.Errorf("failed to write face: %w", err)
		}
	}

	return nil
}

// ExportPNG converts the 128x128 RGBA 5-5-5-1 texture page to an 8-bit RGBA
// PNG image.
func (e *ICNFileExporter) ExportPNG(icn *ICNFile, writer io.Writer) error {
	if len(icn.Texture) != ICNTexturePixels {
		return fmt.Errorf("%w: texture holds %d pixels, expected %d", ErrMalformedICN, len(icn.Texture), ICNTexturePixels)
	}

	img := image.NewRGBA(image.Rect(0, 0, ICNTextureWidth, ICNTextureHeight))
	for y := 0; y < ICNTextureHeight; y++ {
		for x := 0; x < ICNTextureWidth; x++ {
			img.SetRGBA(x, y, rgba5551ToRGBA(icn.Texture[y*ICNTextureWidth+x]))
		}
	}

	if err := png.Encode(writer, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// rgba5551ToRGBA expands one 16-bit 5-5-5-1 pixel to 8-bit RGBA
func rgba5551ToRGBA(pixel uint16) color.RGBA {
	r := uint8(pixel & 0x1F)
	g := uint8((pixel >> 5) & 0x1F)
	b := uint8((pixel >> 10) & 0x1F)
	a := uint8(0)
	if pixel&0x8000 != 0 {
		a = 0xFF
	}
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<3 | g>>2,
		B: b<<3 | b>>2,
		A: a,
	}
}

// ExportIconSysSummary writes a human readable dump of an icon.sys block
func ExportIconSysSummary(sys *IconSys, writer io.Writer) error {
	first, second := sys.TitleLines()
	lines := []string{
		fmt.Sprintf("Title:        %s", first),
		fmt.Sprintf("              %s", second),
		fmt.Sprintf("Save kind:    %s (flags=%d)", sys.SaveKind(), sys.Flags),
		fmt.Sprintf("Icon:         %s", sys.IconFile),
		fmt.Sprintf("Copy icon:    %s", sys.CopyIconFile),
		fmt.Sprintf("Delete icon:  %s", sys.DeleteIconFile),
		fmt.Sprintf("Transparency: %d", sys.BackgroundTransparency),
	}
	for i, c := range sys.BackgroundColors {
		lines = append(lines, fmt.Sprintf("Background %d: #%02X%02X%02X%02X", i, c.R, c.G, c.B, c.A))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return fmt.Errorf("failed to write icon.sys summary: %w", err)
		}
	}
	return nil
}
