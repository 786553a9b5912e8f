// Package mc provides read-only access to raw PlayStation 2 memory card
// images: superblock parsing, the two-level indirect FAT, directory
// traversal and file extraction. Spare bytes interleaved after every page
// are skipped transparently.
package mc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hansbonini/psutools/pkg/common"
)

const (
	// SuperblockMagic is the fixed prefix of the superblock magic field
	SuperblockMagic = "Sony PS2 Memory Card Format"
	// DirEntrySize is the fixed size of one directory entry record
	DirEntrySize = 512
	// FATChainEnd terminates a cluster chain once the status bit is masked
	FATChainEnd uint32 = 0x7FFFFFFF
	// FATStatusBit flags a FAT value as in-use; it must be masked off
	// before any comparison.
	FATStatusBit uint32 = 0x80000000
	// IFCTerminator marks unused slots of the indirect FAT cluster list
	IFCTerminator uint32 = 0xFFFFFFFF
)

// Directory entry mode flags
const (
	ModeRead      uint16 = 0x0001
	ModeWrite     uint16 = 0x0002
	ModeExecute   uint16 = 0x0004
	ModeProtected uint16 = 0x0008
	ModeFile      uint16 = 0x0010
	ModeDirectory uint16 = 0x0020
	ModeInternal  uint16 = 0x0400
	ModeHidden    uint16 = 0x2000
	ModeExists    uint16 = 0x8000
)

// Superblock is the fixed card descriptor at offset 0
type Superblock struct {
	Magic           [28]byte
	Version         [12]byte
	PageSize        uint16
	PagesPerCluster uint16
	PagesPerBlock   uint16
	_               uint16
	ClustersPerCard uint32
	AllocOffset     uint32
	AllocEnd        uint32
	RootDirCluster  uint32
	BackupBlock1    uint32
	BackupBlock2    uint32
	_               [8]byte
	IFCList         [32]uint32
	BadBlockList    [32]uint32
	CardType        uint8
	CardFlags       uint8
}

// dirEntryLayout is the on-disk layout of one 512-byte directory entry
type dirEntryLayout struct {
	Mode     uint16
	_        uint16
	Length   uint32
	Created  common.Timestamp
	Cluster  uint32
	DirEntry uint32
	Modified common.Timestamp
	Attr     uint32
	_        [28]byte
	Name     [32]byte
	_        [416]byte
}

// DirEntry is one parsed directory entry. DirIndex is the index of the
// owning entry inside its parent directory; it is a plain index into the
// cluster stream rather than a reference, so entries never own their parent.
type DirEntry struct {
	Mode     uint16
	Length   uint32
	Created  common.Timestamp
	Cluster  uint32
	DirIndex uint32
	Modified common.Timestamp
	Attr     uint32
	Name     string

	rawName0 byte
}

// IsDirectory reports whether the entry describes a directory
func (e *DirEntry) IsDirectory() bool {
	return e.Mode&ModeDirectory != 0
}

// IsFile reports whether the entry describes a regular file
func (e *DirEntry) IsFile() bool {
	return e.Mode&ModeFile != 0
}

// Exists reports whether the entry is live on the card
func (e *DirEntry) Exists() bool {
	return e.Mode&ModeExists != 0
}

// IsEmpty reports whether the slot has never been used
func (e *DirEntry) IsEmpty() bool {
	return e.rawName0 == 0x00
}

// IsDeleted reports whether the slot held an entry that was deleted
func (e *DirEntry) IsDeleted() bool {
	return e.rawName0 == 0xE5
}

// CardReader provides read-only access to a raw memory card image
type CardReader struct {
	reader io.ReaderAt
	file   *os.File

	Superblock Superblock

	spareSize     uint32
	rawPageSize   uint32
	clusterSize   uint32
	fatPerCluster uint32
	fat           [][]uint32
}

// OpenCardReader opens a card image file and parses its superblock and FAT
func OpenCardReader(filename string) (*CardReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	card, err := NewCardReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	card.file = file
	return card, nil
}

// NewCardReader parses the superblock and materializes the FAT matrix from
// the given image.
func NewCardReader(reader io.ReaderAt) (*CardReader, error) {
	card := &CardReader{reader: reader}

	raw := make([]byte, 340)
	if _, err := reader.ReadAt(raw, 0); err != nil {
		return nil, fmt.Errorf("%s: %w", common.ErrFailedToReadSuperblock, err)
	}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &card.Superblock); err != nil {
		return nil, fmt.Errorf("%s: %w", common.ErrFailedToReadSuperblock, err)
	}
	if !strings.HasPrefix(string(card.Superblock.Magic[:]), SuperblockMagic) {
		return nil, fmt.Errorf("invalid superblock magic: %q", string(common.CString(card.Superblock.Magic[:])))
	}

	pageSize := uint32(card.Superblock.PageSize)
	card.spareSize = pageSize / 128 * 4
	card.rawPageSize = pageSize + card.spareSize
	card.clusterSize = pageSize * uint32(card.Superblock.PagesPerCluster)
	card.fatPerCluster = card.clusterSize / 4

	if err := card.buildFAT(); err != nil {
		return nil, err
	}
	return card, nil
}

// Close releases the underlying file when the reader owns one
func (c *CardReader) Close() error {
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

// readPage reads the payload of one page, skipping the spare bytes that
// follow it in the raw image.
func (c *CardReader) readPage(page uint32) ([]byte, error) {
	buffer := make([]byte, c.Superblock.PageSize)
	offset := int64(page) * int64(c.rawPageSize)
	if _, err := c.reader.ReadAt(buffer, offset); err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", page, err)
	}
	return buffer, nil
}

// readCluster reads one absolute cluster (no allocation offset applied)
func (c *CardReader) readCluster(cluster uint32) ([]byte, error) {
	buffer := make([]byte, 0, c.clusterSize)
	firstPage := cluster * uint32(c.Superblock.PagesPerCluster)
	for p := uint32(0); p < uint32(c.Superblock.PagesPerCluster); p++ {
		page, err := c.readPage(firstPage + p)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", common.ErrFailedToReadCluster, cluster, err)
		}
		buffer = append(buffer, page...)
	}
	return buffer, nil
}

// readDataCluster reads one cluster of the allocatable area. Cluster
// indexes used by directory entries and the FAT are relative to the
// allocation offset.
func (c *CardReader) readDataCluster(cluster uint32) ([]byte, error) {
	return c.readCluster(cluster + c.Superblock.AllocOffset)
}

// buildFAT materializes the FAT matrix: every indirect FAT cluster listed in
// the superblock holds cluster numbers of the actual FAT clusters, which are
// read row by row.
func (c *CardReader) buildFAT() error {
	var fatClusters []uint32
	for _, indirect := range c.Superblock.IFCList {
		if indirect == IFCTerminator {
			continue
		}
		data, err := c.readCluster(indirect)
		if err != nil {
			return fmt.Errorf("%s: %w", common.ErrFailedToReadFAT, err)
		}
		entries := make([]uint32, c.fatPerCluster)
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, entries); err != nil {
			return fmt.Errorf("%s: %w", common.ErrFailedToReadFAT, err)
		}
		for _, cluster := range entries {
			if cluster != IFCTerminator {
				fatClusters = append(fatClusters, cluster)
			}
		}
	}

	c.fat = make([][]uint32, 0, len(fatClusters))
	for _, cluster := range fatClusters {
		data, err := c.readCluster(cluster)
		if err != nil {
			return fmt.Errorf("%s: %w", common.ErrFailedToReadFAT, err)
		}
		row := make([]uint32, c.fatPerCluster)
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, row); err != nil {
			return fmt.Errorf("%s: %w", common.ErrFailedToReadFAT, err)
		}
		c.fat = append(c.fat, row)
	}
	return nil
}

// fatEntry returns the raw FAT value of one cluster
func (c *CardReader) fatEntry(cluster uint32) (uint32, error) {
	row := cluster / c.fatPerCluster
	col := cluster % c.fatPerCluster
	if int(row) >= len(c.fat) {
		return 0, fmt.Errorf("cluster %d outside the FAT", cluster)
	}
	return c.fat[row][col], nil
}

// nextCluster follows the FAT chain by one hop. The status bit of a FAT
// value is masked before comparison; FATChainEnd terminates the chain.
func (c *CardReader) nextCluster(cluster uint32) (uint32, bool, error) {
	value, err := c.fatEntry(cluster)
	if err != nil {
		return 0, false, err
	}
	if value&FATStatusBit != 0 {
		value ^= FATStatusBit
	}
	common.LogDebug(common.DebugClusterChain, cluster, value)
	if value == FATChainEnd {
		return 0, false, nil
	}
	return value, true, nil
}

// parseDirEntry decodes one 512-byte directory entry record
func parseDirEntry(raw []byte) (DirEntry, error) {
	var layout dirEntryLayout
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &layout); err != nil {
		return DirEntry{}, fmt.Errorf("failed to parse directory entry: %w", err)
	}
	return DirEntry{
		Mode:     layout.Mode,
		Length:   layout.Length,
		Created:  layout.Created,
		Cluster:  layout.Cluster,
		DirIndex: layout.DirEntry,
		Modified: layout.Modified,
		Attr:     layout.Attr,
		Name:     string(common.CString(layout.Name[:])),
		rawName0: layout.Name[0],
	}, nil
}

// Root returns the root directory entry of the card
func (c *CardReader) Root() (*DirEntry, error) {
	data, err := c.readDataCluster(c.Superblock.RootDirCluster)
	if err != nil {
		return nil, err
	}
	entry, err := parseDirEntry(data[:DirEntrySize])
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Children lists the entries of a directory by chaining through the FAT
// from the directory's start cluster. Only the first Length entries are
// kept; empty and deleted slots are included so callers can inspect them.
func (c *CardReader) Children(dir *DirEntry) ([]DirEntry, error) {
	if !dir.IsDirectory() {
		return nil, fmt.Errorf("%q is not a directory", dir.Name)
	}

	var children []DirEntry
	cluster := dir.Cluster
	for {
		data, err := c.readDataCluster(cluster)
		if err != nil {
			return nil, err
		}
		for offset := 0; offset+DirEntrySize <= len(data); offset += DirEntrySize {
			if len(children) >= int(dir.Length) {
				return children, nil
			}
			entry, err := parseDirEntry(data[offset : offset+DirEntrySize])
			if err != nil {
				return nil, err
			}
			children = append(children, entry)
		}

		next, ok, err := c.nextCluster(cluster)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cluster = next
	}
	return children, nil
}

// ReadFile returns the contents of a file entry by chaining through the FAT
// and copying min(remaining, cluster size) bytes per hop.
func (c *CardReader) ReadFile(entry *DirEntry) ([]byte, error) {
	if !entry.IsFile() {
		return nil, fmt.Errorf("%q is not a file", entry.Name)
	}

	buffer := make([]byte, 0, entry.Length)
	remaining := entry.Length
	cluster := entry.Cluster
	for remaining > 0 {
		data, err := c.readDataCluster(cluster)
		if err != nil {
			return nil, err
		}
		take := remaining
		if take > c.clusterSize {
			take = c.clusterSize
		}
		buffer = append(buffer, data[:take]...)
		remaining -= take

		if remaining == 0 {
			break
		}
		next, ok, err := c.nextCluster(cluster)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("cluster chain of %q ended with %d bytes missing", entry.Name, remaining)
		}
		cluster = next
	}
	return buffer, nil
}

// Lookup resolves a slash-separated path from the root directory
func (c *CardReader) Lookup(path string) (*DirEntry, error) {
	entry, err := c.Root()
	if err != nil {
		return nil, err
	}

	for _, component := range strings.Split(path, "/") {
		if component == "" || component == "." {
			continue
		}
		children, err := c.Children(entry)
		if err != nil {
			return nil, err
		}
		found := false
		for i := range children {
			child := &children[i]
			if child.Exists() && !child.IsEmpty() && !child.IsDeleted() && child.Name == component {
				entry = child
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%q not found on card", path)
		}
	}
	return entry, nil
}
