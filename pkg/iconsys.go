// Package pkg provides codecs for PlayStation 2 memory card save data.
// This file contains the decoder and encoder for icon.sys metadata blocks.
package pkg

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hansbonini/psutools/pkg/common"
)

// iconSysLayout is the fixed on-disk layout of an icon.sys block, without
// the 512-byte zero trailer appended on write. Background color components
// are stored as 32-bit little-endian values whose low byte is significant;
// the upper bytes are discarded on read and emitted as zero on write.
type iconSysLayout struct {
	Magic                  [4]byte
	Flags                  uint16
	LineBreak              uint16
	Reserved               [4]byte
	BackgroundTransparency uint32
	BackgroundColors       [4][4]uint32
	LightDirections        [3]IconSysVector
	LightColors            [3]IconSysVector
	AmbientColor           [4]float32
	Title                  [IconSysTitleSize]byte
	IconFile               [IconSysFilenameSize]byte
	CopyIconFile           [IconSysFilenameSize]byte
	DeleteIconFile         [IconSysFilenameSize]byte
}

// IconSysFileDecoder implements the IconSysDecoder interface
type IconSysFileDecoder struct{}

// NewIconSysDecoder creates a new icon.sys decoder instance
func NewIconSysDecoder() *IconSysFileDecoder {
	return &IconSysFileDecoder{}
}

// Decode reads and parses an icon.sys block. The title is decoded from
// Shift-JIS with NFKC normalization applied.
func (d *IconSysFileDecoder) Decode(reader io.Reader) (*IconSys, error) {
	var layout iconSysLayout
	if err := binary.Read(reader, binary.LittleEndian, &layout); err != nil {
		return nil, fmt.Errorf("truncated icon.sys block: %w", err)
	}
	if string(layout.Magic[:]) != IconSysMagic {
		return nil, fmt.Errorf("invalid icon.sys magic: expected %q, got %q", IconSysMagic, string(layout.Magic[:]))
	}

	title, err := common.DecodeSJISNFKC(layout.Title[:])
	if err != nil {
		return nil, fmt.Errorf("%w: icon.sys title: %v", ErrEncoding, err)
	}

	sys := &IconSys{
		Flags:                  layout.Flags,
		LineBreak:              layout.LineBreak,
		BackgroundTransparency: layout.BackgroundTransparency,
		LightDirections:        layout.LightDirections,
		LightColors:            layout.LightColors,
		AmbientColor:           layout.AmbientColor,
		Title:                  title,
		IconFile:               string(common.CString(layout.IconFile[:])),
		CopyIconFile:           string(common.CString(layout.CopyIconFile[:])),
		DeleteIconFile:         string(common.CString(layout.DeleteIconFile[:])),
	}
	for i, color := range layout.BackgroundColors {
		sys.BackgroundColors[i] = IconSysColor{
			R: common.SafeUint32ToUint8(color[0] & 0xFF),
			G: common.SafeUint32ToUint8(color[1] & 0xFF),
			B: common.SafeUint32ToUint8(color[2] & 0xFF),
			A: common.SafeUint32ToUint8(color[3] & 0xFF),
		}
	}

	return sys, nil
}

// IconSysFileEncoder implements the IconSysEncoder interface
type IconSysFileEncoder struct{}

// NewIconSysEncoder creates a new icon.sys encoder instance
func NewIconSysEncoder() *IconSysFileEncoder {
	return &IconSysFileEncoder{}
}

// Encode serializes an icon.sys block followed by the 512-byte zero trailer.
// Titles that do not round-trip through Shift-JIS fail with
// ErrTitleNotEncodable; titles longer than 68 encoded bytes fail with
// ErrTitleTooLong.
func (e *IconSysFileEncoder) Encode(sys *IconSys, writer io.Writer) error {
	if !common.IsRoundTripSJIS(sys.Title) {
		return fmt.Errorf("%w: %q", ErrTitleNotEncodable, sys.Title)
	}
	title, err := common.EncodeSJIS(sys.Title)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrTitleNotEncodable, sys.Title)
	}
	if len(title) > IconSysTitleSize {
		return fmt.Errorf("%w: %d bytes", ErrTitleTooLong, len(title))
	}

	layout := iconSysLayout{
		Flags:                  sys.Flags,
		LineBreak:              sys.LineBreak,
		BackgroundTransparency: sys.BackgroundTransparency,
		LightDirections:        sys.LightDirections,
		LightColors:            sys.LightColors,
		AmbientColor:           sys.AmbientColor,
	}
	copy(layout.Magic[:], IconSysMagic)
	for i, color := range sys.BackgroundColors {
		layout.BackgroundColors[i] = [4]uint32{
			uint32(color.R),
			uint32(color.G),
			uint32(color.B),
			uint32(color.A),
		}
	}
	copy(layout.Title[:], title)
	copy(layout.IconFile[:], sys.IconFile)
	copy(layout.CopyIconFile[:], sys.CopyIconFile)
	copy(layout.DeleteIconFile[:], sys.DeleteIconFile)

	if err := binary.Write(writer, binary.LittleEndian, layout); err != nil {
		return fmt.Errorf("failed to write icon.sys block: %w", err)
	}
	if _, err := writer.Write(make([]byte, IconSysTrailerSize)); err != nil {
		return fmt.Errorf("failed to write icon.sys trailer: %w", err)
	}
	return nil
}
