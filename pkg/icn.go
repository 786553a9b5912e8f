// Package pkg provides codecs for PlayStation 2 memory card save data.
// This file contains the decoder and encoder for ICN 3-D icon files.
package pkg

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hansbonini/psutools/pkg/common"
)

// icnHeader is the fixed five-word ICN file header
type icnHeader struct {
	Magic       uint32
	ShapeCount  uint32
	TextureType uint32
	Reserved    uint32
	VertexCount uint32
}

// icnFrameHeader precedes the keys of one animation frame
type icnFrameHeader struct {
	ShapeID  uint32
	KeyCount uint32
	_        uint32
	_        uint32
}

// ICNFileDecoder implements the ICNDecoder interface
type ICNFileDecoder struct{}

// NewICNDecoder creates a new ICN decoder instance
func NewICNDecoder() *ICNFileDecoder {
	return &ICNFileDecoder{}
}

// Decode reads and parses a complete ICN file
func (d *ICNFileDecoder) Decode(reader io.Reader) (*ICNFile, error) {
	var header icnHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: truncated header: %v", ErrMalformedICN, err)
	}
	if header.Magic != ICNMagic {
		return nil, fmt.Errorf("%w: invalid magic %#08x, expected %#08x", ErrMalformedICN, header.Magic, ICNMagic)
	}

	icn := &ICNFile{
		ShapeCount:  header.ShapeCount,
		TextureType: header.TextureType,
	}

	slots, err := d.decodeVertexSlots(reader, header.ShapeCount, header.VertexCount)
	if err != nil {
		return nil, err
	}
	icn.Slots = slots

	animation, err := d.decodeAnimation(reader)
	if err != nil {
		return nil, err
	}
	icn.Animation = *animation

	texture, err := d.decodeTexture(reader, icn)
	if err != nil {
		return nil, err
	}
	icn.Texture = texture

	return icn, nil
}

// decodeVertexSlots reads the interleaved geometry body: for every vertex
// slot, one position per shape followed by a normal, a texture coordinate
// and a color. The interleaving is mandatory; a per-shape blockwise layout
// would not round-trip.
func (d *ICNFileDecoder) decodeVertexSlots(reader io.Reader, shapes, vertices uint32) ([]ICNVertexSlot, error) {
	slots := make([]ICNVertexSlot, vertices)

	for i := uint32(0); i < vertices; i++ {
		slot := ICNVertexSlot{Shapes: make([]ICNVector, shapes)}

		for j := uint32(0); j < shapes; j++ {
			if err := binary.Read(reader, binary.LittleEndian, &slot.Shapes[j]); err != nil {
				return nil, fmt.Errorf("%w: %s %d of shape %d: %v", ErrMalformedICN, common.ErrFailedToReadVertex, i, j, err)
			}
		}
		if err := binary.Read(reader, binary.LittleEndian, &slot.Normal); err != nil {
			return nil, fmt.Errorf("%w: %s %d: %v", ErrMalformedICN, common.ErrFailedToReadNormal, i, err)
		}
		if err := binary.Read(reader, binary.LittleEndian, &slot.UV); err != nil {
			return nil, fmt.Errorf("%w: %s %d: %v", ErrMalformedICN, common.ErrFailedToReadUV, i, err)
		}
		color, err := common.ReadBytes(reader, 4)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %d: %v", ErrMalformedICN, common.ErrFailedToReadColor, i, err)
		}
		// On-disk byte order is r,b,g,a
		slot.Color = ICNColor{R: color[0], B: color[1], G: color[2], A: color[3]}

		slots[i] = slot
	}

	return slots, nil
}

// decodeAnimation reads the keyframe animation block
func (d *ICNFileDecoder) decodeAnimation(reader io.Reader) (*ICNAnimation, error) {
	tag, err := common.ReadUint32LE(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadAnimation, err)
	}
	if tag != ICNAnimationTag {
		return nil, fmt.Errorf("%w: invalid animation tag %#08x", ErrMalformedICN, tag)
	}

	animation := &ICNAnimation{}
	if animation.FrameLength, err = common.ReadUint32LE(reader); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadAnimation, err)
	}
	if animation.Speed, err = common.ReadFloat32LE(reader); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadAnimation, err)
	}
	if animation.PlayOffset, err = common.ReadUint32LE(reader); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadAnimation, err)
	}
	frameCount, err := common.ReadUint32LE(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadAnimation, err)
	}

	animation.Frames = make([]ICNFrame, frameCount)
	for i := uint32(0); i < frameCount; i++ {
		var frameHeader icnFrameHeader
		if err := binary.Read(reader, binary.LittleEndian, &frameHeader); err != nil {
			return nil, fmt.Errorf("%w: truncated frame %d: %v", ErrMalformedICN, i, err)
		}

		frame := ICNFrame{
			ShapeID: frameHeader.ShapeID,
			Keys:    make([]ICNKey, frameHeader.KeyCount),
		}
		for k := range frame.Keys {
			if err := binary.Read(reader, binary.LittleEndian, &frame.Keys[k]); err != nil {
				return nil, fmt.Errorf("%w: truncated key %d of frame %d: %v", ErrMalformedICN, k, i, err)
			}
		}
		animation.Frames[i] = frame
	}

	return animation, nil
}

// decodeTexture reads the texture page selected by the texture type word.
// Icons without a texture get an all-0xFFFF page so the model invariant of
// a full 128x128 texture always holds.
func (d *ICNFileDecoder) decodeTexture(reader io.Reader, icn *ICNFile) ([]uint16, error) {
	if !icn.HasTexture() {
		texture := make([]uint16, ICNTexturePixels)
		for i := range texture {
			texture[i] = 0xFFFF
		}
		return texture, nil
	}

	if icn.HasCompressedTexture() {
		return d.decodeCompressedTexture(reader)
	}

	texture := make([]uint16, ICNTexturePixels)
	if err := binary.Read(reader, binary.LittleEndian, texture); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadTexture, err)
	}
	return texture, nil
}

// decodeCompressedTexture reads a 32-bit compressed byte length, then that
// many bytes of 16-bit code units, and RLE-decodes them. A code with the
// high bit set announces a literal run of 0x8000-(code^0x8000) units; any
// other code repeats the following unit code times. Decoding stops when the
// page is full or the stream is exhausted; short output is zero padded.
func (d *ICNFileDecoder) decodeCompressedTexture(reader io.Reader) ([]uint16, error) {
	length, err := common.ReadUint32LE(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadTexture, err)
	}

	codes := make([]uint16, length/2)
	if err := binary.Read(reader, binary.LittleEndian, codes); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedICN, common.ErrFailedToReadTexture, err)
	}

	texture := make([]uint16, 0, ICNTexturePixels)
	for i := 0; i < len(codes) && len(texture) < ICNTexturePixels; i++ {
		code := codes[i]
		if code&0x8000 != 0 {
			run := 0x8000 - int(code^0x8000)
			for j := 0; j < run && i+1 < len(codes) && len(texture) < ICNTexturePixels; j++ {
				i++
				texture = append(texture, codes[i])
			}
			continue
		}
		if i+1 >= len(codes) {
			break
		}
		i++
		for j := 0; j < int(code) && len(texture) < ICNTexturePixels; j++ {
			texture = append(texture, codes[i])
		}
	}

	for len(texture) < ICNTexturePixels {
		texture = append(texture, 0)
	}
	return texture, nil
}

// ICNFileEncoder implements the ICNEncoder interface
type ICNFileEncoder struct{}

// NewICNEncoder creates a new ICN encoder instance
func NewICNEncoder() *ICNFileEncoder {
	return &ICNFileEncoder{}
}

// Encode serializes an ICN file. The compressed texture path is not
// implemented; encoding a model whose texture type declares compression
// fails with ErrUnsupportedEncoding.
func (e *ICNFileEncoder) Encode(icn *ICNFile, writer io.Writer) error {
	if icn.HasCompressedTexture() {
		return ErrUnsupportedEncoding
	}

	header := icnHeader{
		Magic:       ICNMagic,
		ShapeCount:  icn.ShapeCount,
		TextureType: icn.TextureType,
		VertexCount: uint32(len(icn.Slots)),
	}
	if err := binary.Write(writer, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := e.encodeVertexSlots(icn, writer); err != nil {
		return err
	}
	if err := e.encodeAnimation(&icn.Animation, writer); err != nil {
		return err
	}
	return e.encodeTexture(icn, writer)
}

// encodeVertexSlots writes the geometry body in the same interleaved order
// the decoder expects.
func (e *ICNFileEncoder) encodeVertexSlots(icn *ICNFile, writer io.Writer) error {
	for i := range icn.Slots {
		slot := &icn.Slots[i]

		for j := range slot.Shapes {
			if err := binary.Write(writer, binary.LittleEndian, slot.Shapes[j]); err != nil {
				return fmt.Errorf("failed to write vertex %d of shape %d: %w", i, j, err)
			}
		}
		if err := binary.Write(writer, binary.LittleEndian, slot.Normal); err != nil {
			return fmt.Errorf("failed to write normal %d: %w", i, err)
		}
		if err := binary.Write(writer, binary.LittleEndian, slot.UV); err != nil {
			return fmt.Errorf("failed to write texture coordinate %d: %w", i, err)
		}
		color := [4]byte{slot.Color.R, slot.Color.B, slot.Color.G, slot.Color.A}
		if _, err := writer.Write(color[:]); err != nil {
			return fmt.Errorf("failed to write color %d: %w", i, err)
		}
	}
	return nil
}

// encodeAnimation writes the keyframe animation block. The emitted key count
// equals the number of keys stored in the model, so decoding the output
// yields an equal model.
func (e *ICNFileEncoder) encodeAnimation(animation *ICNAnimation, writer io.Writer) error {
	words := []uint32{ICNAnimationTag, animation.FrameLength}
	if err := binary.Write(writer, binary.LittleEndian, words); err != nil {
		return fmt.Errorf("failed to write animation block: %w", err)
	}
	if err := binary.Write(writer, binary.LittleEndian, animation.Speed); err != nil {
		return fmt.Errorf("failed to write animation speed: %w", err)
	}
	tail := []uint32{animation.PlayOffset, uint32(len(animation.Frames))}
	if err := binary.Write(writer, binary.LittleEndian, tail); err != nil {
		return fmt.Errorf("failed to write animation block: %w", err)
	}

	for i := range animation.Frames {
		frame := &animation.Frames[i]
		frameHeader := icnFrameHeader{
			ShapeID:  frame.ShapeID,
			KeyCount: uint32(len(frame.Keys)),
		}
		if err := binary.Write(writer, binary.LittleEndian, frameHeader); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", i, err)
		}
		for k := range frame.Keys {
			if err := binary.Write(writer, binary.LittleEndian, frame.Keys[k]); err != nil {
				return fmt.Errorf("failed to write key %d of frame %d: %w", k, i, err)
			}
		}
	}
	return nil
}

// encodeTexture writes the uncompressed texture page, or nothing for icons
// whose texture type declares no texture.
func (e *ICNFileEncoder) encodeTexture(icn *ICNFile, writer io.Writer) error {
	if !icn.HasTexture() {
		return nil
	}

	texture := icn.Texture
	if len(texture) != ICNTexturePixels {
		return fmt.Errorf("%w: texture holds %d pixels, expected %d", ErrMalformedICN, len(texture), ICNTexturePixels)
	}
	if err := binary.Write(writer, binary.LittleEndian, texture); err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToWriteTexture, err)
	}
	return nil
}
