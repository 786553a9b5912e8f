package pkg

import (
	"io"

	"github.com/hansbonini/psutools/pkg/common"
)

// On-disk constants shared by the PSU codec
const (
	// PSUDirectoryID tags a directory entry
	PSUDirectoryID uint16 = 0x8427
	// PSUFileID tags a file entry
	PSUFileID uint16 = 0x8497
	// PSUHeaderSize is the fixed size of an entry header
	PSUHeaderSize = 512
	// PSUPageSize is the alignment unit for file payloads
	PSUPageSize = 1024
	// PSUNameSize is the size of the name field inside an entry header
	PSUNameSize = 448
)

// PSUEntry is one entry of a PSU archive: a tagged variant of directory and
// file. Data is nil for directories and holds exactly Size bytes for files.
// For the root directory Size is the child count including "." and "..".
type PSUEntry struct {
	Kind     uint16
	Size     uint32
	Created  common.Timestamp
	Modified common.Timestamp
	Name     string
	Data     []byte
}

// IsDirectory reports whether the entry is a directory entry
func (e *PSUEntry) IsDirectory() bool {
	return e.Kind == PSUDirectoryID
}

// IsFile reports whether the entry is a file entry
func (e *PSUEntry) IsFile() bool {
	return e.Kind == PSUFileID
}

// PSUFile represents a parsed PSU archive as an ordered entry sequence
type PSUFile struct {
	Entries []PSUEntry
}

// ICN geometry and texture constants
const (
	// ICNMagic is the fixed magic word of an ICN header
	ICNMagic uint32 = 0x00010000
	// ICNAnimationTag is the fixed tag of the animation block
	ICNAnimationTag uint32 = 0x00000001
	// ICNTextureWidth and ICNTextureHeight are fixed for every icon
	ICNTextureWidth  = 128
	ICNTextureHeight = 128
	// ICNTexturePixels is the pixel count of a full texture page
	ICNTexturePixels = ICNTextureWidth * ICNTextureHeight
	// ICNTextureFlag is set in the texture type word when a texture follows
	ICNTextureFlag uint32 = 0x4
	// ICNCompressedFlag is set when the texture is RLE compressed
	ICNCompressedFlag uint32 = 0x8
)

// ICNVector is a 16-bit signed triplet with a 16-bit w scale, in 1/4096
// fixed point. Used for both vertex positions and normals.
type ICNVector struct {
	X int16
	Y int16
	Z int16
	W int16
}

// ICNUV is a 16-bit signed texture coordinate pair in 1/4096 fixed point
type ICNUV struct {
	U int16
	V int16
}

// ICNColor is a per-vertex color. The on-disk byte order is r,b,g,a.
type ICNColor struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// ICNVertexSlot groups everything stored for one vertex slot: one position
// per animation shape plus a single normal, texture coordinate and color.
type ICNVertexSlot struct {
	Shapes []ICNVector
	Normal ICNVector
	UV     ICNUV
	Color  ICNColor
}

// ICNKey is one keyframe sample
type ICNKey struct {
	Time  float32
	Value float32
}

// ICNFrame is one animation frame: the shape it drives and its keys
type ICNFrame struct {
	ShapeID uint32
	Keys    []ICNKey
}

// ICNAnimation is the keyframe animation block of an icon
type ICNAnimation struct {
	FrameLength uint32
	Speed       float32
	PlayOffset  uint32
	Frames      []ICNFrame
}

// ICNFile represents a parsed ICN 3-D icon. Texture always holds a full
// 128x128 page of RGBA 5-5-5-1 pixels regardless of the on-disk encoding.
type ICNFile struct {
	ShapeCount  uint32
	TextureType uint32
	Slots       []ICNVertexSlot
	Animation   ICNAnimation
	Texture     []uint16
}

// HasTexture reports whether the texture type word declares a texture
func (i *ICNFile) HasTexture() bool {
	return i.TextureType&ICNTextureFlag != 0
}

// HasCompressedTexture reports whether the declared texture is RLE compressed
func (i *ICNFile) HasCompressedTexture() bool {
	return i.HasTexture() && i.TextureType&ICNCompressedFlag != 0
}

// VertexCount returns the number of vertex slots per shape
func (i *ICNFile) VertexCount() int {
	return len(i.Slots)
}

// icon.sys constants
const (
	// IconSysMagic is the fixed magic of an icon.sys block
	IconSysMagic = "PS2D"
	// IconSysTitleSize is the size of the Shift-JIS title buffer
	IconSysTitleSize = 68
	// IconSysFilenameSize is the size of each icon filename buffer
	IconSysFilenameSize = 64
	// IconSysTrailerSize is the zero region appended on write
	IconSysTrailerSize = 512
)

// Save-kind presets encoded in the icon.sys flags word
const (
	IconSysFlagSaveFile      uint16 = 0
	IconSysFlagSoftware      uint16 = 1
	IconSysFlagPocketstation uint16 = 3
	IconSysFlagSettings      uint16 = 4
	IconSysFlagSystemDriver  uint16 = 5
)

// IconSysColor is a background corner color. On disk each component is a
// 32-bit little-endian value whose low byte is significant.
type IconSysColor struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// IconSysVector is a 4-component float vector used for light directions,
// light colors and the ambient color.
type IconSysVector [4]float32

// IconSys represents a parsed icon.sys metadata block
type IconSys struct {
	Flags                  uint16
	LineBreak              uint16
	BackgroundTransparency uint32
	BackgroundColors       [4]IconSysColor
	LightDirections        [3]IconSysVector
	LightColors            [3]IconSysVector
	AmbientColor           IconSysVector
	Title                  string
	IconFile               string
	CopyIconFile           string
	DeleteIconFile         string
}

// SaveKind returns the human readable label of the flags preset
func (s *IconSys) SaveKind() string {
	switch s.Flags {
	case IconSysFlagSaveFile:
		return "save file"
	case IconSysFlagSoftware:
		return "PS2 software"
	case IconSysFlagPocketstation:
		return "Pocketstation software"
	case IconSysFlagSettings:
		return "PS2 settings"
	case IconSysFlagSystemDriver:
		return "system driver"
	default:
		return "custom"
	}
}

// TitleLines splits the title at the line break position. The position is a
// byte offset into the Shift-JIS encoding of the title.
func (s *IconSys) TitleLines() (string, string) {
	encoded, err := common.EncodeSJIS(s.Title)
	if err != nil || int(s.LineBreak) >= len(encoded) {
		return s.Title, ""
	}
	first, err := common.DecodeSJIS(encoded[:s.LineBreak])
	if err != nil {
		return s.Title, ""
	}
	second, err := common.DecodeSJIS(encoded[s.LineBreak:])
	if err != nil {
		return s.Title, ""
	}
	return first, second
}

// PSUDecoder interface defines methods for decoding PSU archives
type PSUDecoder interface {
	Decode(reader io.Reader) (*PSUFile, error)
}

// PSUEncoder interface defines methods for encoding PSU archives
type PSUEncoder interface {
	Encode(psu *PSUFile, writer io.Writer) error
}

// ICNDecoder interface defines methods for decoding ICN icons
type ICNDecoder interface {
	Decode(reader io.Reader) (*ICNFile, error)
}

// ICNEncoder interface defines methods for encoding ICN icons
type ICNEncoder interface {
	Encode(icn *ICNFile, writer io.Writer) error
}

// IconSysDecoder interface defines methods for decoding icon.sys blocks
type IconSysDecoder interface {
	Decode(reader io.Reader) (*IconSys, error)
}

// IconSysEncoder interface defines methods for encoding icon.sys blocks
type IconSysEncoder interface {
	Encode(sys *IconSys, writer io.Writer) error
}

// ICNExporter interface defines methods for exporting ICN data
type ICNExporter interface {
	ExportOBJ(icn *ICNFile, writer io.Writer) error
	ExportPNG(icn *ICNFile, writer io.Writer) error
}
