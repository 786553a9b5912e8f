package pkg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

// sampleICN builds a one-shape triangle icon with an uncompressed texture
func sampleICN() *ICNFile {
	texture := make([]uint16, ICNTexturePixels)
	for i := range texture {
		texture[i] = uint16(i)
	}

	return &ICNFile{
		ShapeCount:  1,
		TextureType: 0x7,
		Slots: []ICNVertexSlot{
			{
				Shapes: []ICNVector{{X: 4096, Y: 0, Z: 0, W: 4096}},
				Normal: ICNVector{X: 0, Y: 0, Z: -4096, W: 4096},
				UV:     ICNUV{U: 0, V: 0},
				Color:  ICNColor{R: 0x10, G: 0x20, B: 0x30, A: 0xFF},
			},
			{
				Shapes: []ICNVector{{X: 0, Y: 4096, Z: 0, W: 4096}},
				Normal: ICNVector{X: 0, Y: 0, Z: -4096, W: 4096},
				UV:     ICNUV{U: 4096, V: 0},
				Color:  ICNColor{R: 0x40, G: 0x50, B: 0x60, A: 0xFF},
			},
			{
				Shapes: []ICNVector{{X: 0, Y: 0, Z: 4096, W: 4096}},
				Normal: ICNVector{X: 0, Y: 0, Z: -4096, W: 4096},
				UV:     ICNUV{U: 0, V: 4096},
				Color:  ICNColor{R: 0x70, G: 0x80, B: 0x90, A: 0xFF},
			},
		},
		Animation: ICNAnimation{
			FrameLength: 60,
			Speed:       1.0,
			PlayOffset:  0,
			Frames: []ICNFrame{
				{ShapeID: 0, Keys: []ICNKey{{Time: 0, Value: 1}}},
			},
		},
		Texture: texture,
	}
}

func TestICNRoundTrip(t *testing.T) {
	original := sampleICN()

	var buffer bytes.Buffer
	if err := NewICNEncoder().Encode(original, &buffer); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	decoded, err := NewICNDecoder().Decode(&buffer)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
	if decoded.VertexCount() != 3 {
		t.Errorf("VertexCount() = %d, want 3", decoded.VertexCount())
	}
}

func TestICNEncodeWithoutTexture(t *testing.T) {
	original := sampleICN()
	original.TextureType = 0x0
	original.Texture = nil

	var buffer bytes.Buffer
	if err := NewICNEncoder().Encode(original, &buffer); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	decoded, err := NewICNDecoder().Decode(&buffer)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if decoded.HasTexture() {
		t.Error("decoded icon should not declare a texture")
	}
	if len(decoded.Texture) != ICNTexturePixels {
		t.Fatalf("decoded texture holds %d pixels, want %d", len(decoded.Texture), ICNTexturePixels)
	}
	for i, pixel := range decoded.Texture {
		if pixel != 0xFFFF {
			t.Fatalf("texture pixel %d = %#04x, want 0xffff", i, pixel)
		}
	}
	if !reflect.DeepEqual(decoded.Slots, original.Slots) {
		t.Error("geometry should survive the round trip")
	}
}

func TestICNEncodeCompressedUnsupported(t *testing.T) {
	icn := sampleICN()
	icn.TextureType = 0xF

	err := NewICNEncoder().Encode(icn, &bytes.Buffer{})
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("Encode() error = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestICNDecodeErrors(t *testing.T) {
	encode := func() []byte {
		var buffer bytes.Buffer
		if err := NewICNEncoder().Encode(sampleICN(), &buffer); err != nil {
			t.Fatalf("Encode() failed: %v", err)
		}
		return buffer.Bytes()
	}

	badMagic := encode()
	badMagic[0] = 0xAA

	// The animation tag follows the 20-byte header and the geometry body:
	// 3 slots of one shape vector, a normal, a texture coordinate and a color.
	tagOffset := 20 + 3*(8+8+4+4)
	badTag := encode()
	badTag[tagOffset] = 0xAA

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty stream", nil},
		{"invalid magic", badMagic},
		{"truncated geometry", encode()[:30]},
		{"invalid animation tag", badTag},
		{"truncated texture", encode()[:tagOffset+20+16+100]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewICNDecoder().Decode(bytes.NewReader(tc.data))
			if err == nil {
				t.Fatal("Decode() should fail")
			}
			if !errors.Is(err, ErrMalformedICN) {
				t.Errorf("Decode() error = %v, want ErrMalformedICN", err)
			}
		})
	}
}

func TestICNDecodeCompressedTexture(t *testing.T) {
	testCases := []struct {
		name     string
		codes    []uint16
		expected []uint16
	}{
		{
			"repeat run",
			[]uint16{0x0003, 0x1234},
			[]uint16{0x1234, 0x1234, 0x1234},
		},
		{
			"single literal",
			[]uint16{0xFFFF, 0xBEEF},
			[]uint16{0xBEEF},
		},
		{
			"literal run of two",
			[]uint16{0xFFFE, 0x1111, 0x2222},
			[]uint16{0x1111, 0x2222},
		},
		{
			"mixed stream",
			[]uint16{0x0002, 0xAAAA, 0xFFFF, 0xBBBB},
			[]uint16{0xAAAA, 0xAAAA, 0xBBBB},
		},
		{
			"empty stream zero pads",
			[]uint16{},
			[]uint16{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buffer bytes.Buffer
			binary.Write(&buffer, binary.LittleEndian, uint32(len(tc.codes)*2))
			binary.Write(&buffer, binary.LittleEndian, tc.codes)

			texture, err := NewICNDecoder().decodeCompressedTexture(&buffer)
			if err != nil {
				t.Fatalf("decodeCompressedTexture() failed: %v", err)
			}
			if len(texture) != ICNTexturePixels {
				t.Fatalf("decoded %d pixels, want %d", len(texture), ICNTexturePixels)
			}
			for i, pixel := range tc.expected {
				if texture[i] != pixel {
					t.Errorf("pixel %d = %#04x, want %#04x", i, texture[i], pixel)
				}
			}
			for i := len(tc.expected); i < ICNTexturePixels; i++ {
				if texture[i] != 0 {
					t.Fatalf("padding pixel %d = %#04x, want 0x0000", i, texture[i])
				}
			}
		})
	}
}

func TestICNDecodeCompressedFullPage(t *testing.T) {
	// One repeat run covering the entire page
	codes := []uint16{0x4000, 0x7C1F}

	var buffer bytes.Buffer
	binary.Write(&buffer, binary.LittleEndian, uint32(len(codes)*2))
	binary.Write(&buffer, binary.LittleEndian, codes)

	texture, err := NewICNDecoder().decodeCompressedTexture(&buffer)
	if err != nil {
		t.Fatalf("decodeCompressedTexture() failed: %v", err)
	}
	for i, pixel := range texture {
		if pixel != 0x7C1F {
			t.Fatalf("pixel %d = %#04x, want 0x7c1f", i, pixel)
		}
	}
}

func TestICNTextureTypeFlags(t *testing.T) {
	testCases := []struct {
		name       string
		kind       uint32
		texture    bool
		compressed bool
	}{
		{"no texture", 0x0, false, false},
		{"uncompressed", 0x7, true, false},
		{"compressed", 0xF, true, true},
		{"compressed bit without texture bit", 0x8, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			icn := &ICNFile{TextureType: tc.kind}
			if icn.HasTexture() != tc.texture {
				t.Errorf("HasTexture() = %v, want %v", icn.HasTexture(), tc.texture)
			}
			if icn.HasCompressedTexture() != tc.compressed {
				t.Errorf("HasCompressedTexture() = %v, want %v", icn.HasCompressedTexture(), tc.compressed)
			}
		})
	}
}
