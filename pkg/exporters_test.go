package pkg

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestExportOBJ(t *testing.T) {
	var buffer bytes.Buffer
	if err := NewICNExporter().ExportOBJ(sampleICN(), &buffer); err != nil {
		t.Fatalf("ExportOBJ() failed: %v", err)
	}
	output := buffer.String()

	vertices := 0
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "v ") {
			vertices++
		}
	}
	if vertices != 3 {
		t.Errorf("OBJ output holds %d vertex lines, want 3:\n%s", vertices, output)
	}
	if !strings.Contains(output, "v 1.000000 -0.000000 -0.000000\n") &&
		!strings.Contains(output, "v 1.000000 0.000000 0.000000\n") {
		t.Errorf("OBJ output lacks the converted first vertex:\n%s", output)
	}
	if !strings.Contains(output, "vt 0.000000 1.000000\n") {
		t.Errorf("OBJ output lacks the flipped texture coordinate:\n%s", output)
	}
	if !strings.Contains(output, "f 1/1 2/2 3/3\n") {
		t.Errorf("OBJ output lacks the face line:\n%s", output)
	}
}

func TestExportOBJRejectsEmptySlots(t *testing.T) {
	icn := &ICNFile{Slots: []ICNVertexSlot{{}}}
	if err := NewICNExporter().ExportOBJ(icn, &bytes.Buffer{}); err == nil {
		t.Error("ExportOBJ() should reject a slot without shapes")
	}
}

func TestExportPNG(t *testing.T) {
	icn := sampleICN()
	// Opaque pure red in 5-5-5-1: alpha bit plus a full red channel
	for i := range icn.Texture {
		icn.Texture[i] = 0x8000 | 0x001F
	}

	var buffer bytes.Buffer
	if err := NewICNExporter().ExportPNG(icn, &buffer); err != nil {
		t.Fatalf("ExportPNG() failed: %v", err)
	}

	img, err := png.Decode(&buffer)
	if err != nil {
		t.Fatalf("output is not a decodable PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != ICNTextureWidth || bounds.Dy() != ICNTextureHeight {
		t.Errorf("image is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), ICNTextureWidth, ICNTextureHeight)
	}

	r, g, b, a := img.At(0, 0).RGBA()
	expected := color.RGBA{R: 0xFF, G: 0, B: 0, A: 0xFF}
	if uint8(r>>8) != expected.R || uint8(g>>8) != expected.G || uint8(b>>8) != expected.B || uint8(a>>8) != expected.A {
		t.Errorf("pixel (0,0) = %d,%d,%d,%d, want opaque red", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestExportPNGRejectsShortTexture(t *testing.T) {
	icn := sampleICN()
	icn.Texture = icn.Texture[:100]

	if err := NewICNExporter().ExportPNG(icn, &bytes.Buffer{}); err == nil {
		t.Error("ExportPNG() should reject a short texture")
	}
}

func TestRGBA5551Conversion(t *testing.T) {
	testCases := []struct {
		name     string
		pixel    uint16
		expected color.RGBA
	}{
		{"transparent black", 0x0000, color.RGBA{}},
		{"opaque white", 0xFFFF, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}},
		{"opaque red", 0x801F, color.RGBA{R: 0xFF, A: 0xFF}},
		{"opaque green", 0x83E0, color.RGBA{G: 0xFF, A: 0xFF}},
		{"opaque blue", 0xFC00, color.RGBA{B: 0xFF, A: 0xFF}},
		{"transparent white", 0x7FFF, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if result := rgba5551ToRGBA(tc.pixel); result != tc.expected {
				t.Errorf("rgba5551ToRGBA(%#04x) = %+v, want %+v", tc.pixel, result, tc.expected)
			}
		})
	}
}

func TestExportIconSysSummary(t *testing.T) {
	var buffer bytes.Buffer
	if err := ExportIconSysSummary(sampleIconSys(), &buffer); err != nil {
		t.Fatalf("ExportIconSysSummary() failed: %v", err)
	}
	output := buffer.String()

	for _, fragment := range []string{"Title:", "TEST", "save file", "icon.icn", "Background 0: #102030FF"} {
		if !strings.Contains(output, fragment) {
			t.Errorf("summary lacks %q:\n%s", fragment, output)
		}
	}
}
