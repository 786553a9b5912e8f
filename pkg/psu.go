// Package pkg provides codecs for PlayStation 2 memory card save data.
// This file contains the decoder and encoder for PSU archive containers.
package pkg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hansbonini/psutools/pkg/common"
)

// psuHeader is the on-disk layout of one 512-byte entry header.
// Months inside the timestamps are one-based on read and on write, matching
// archives produced by the PS2 browser.
type psuHeader struct {
	ID       uint16
	_        uint16
	Size     uint32
	Created  common.Timestamp
	Sector   uint32
	_        uint32
	Modified common.Timestamp
	_        [32]byte
	Name     [PSUNameSize]byte
}

// psuPadding returns the number of zero bytes that follow a payload of the
// given size so the on-disk entry length is a multiple of the page size.
func psuPadding(size uint32) int {
	return int((PSUPageSize - size%PSUPageSize) % PSUPageSize)
}

// PSUFileDecoder implements the PSUDecoder interface
type PSUFileDecoder struct{}

// NewPSUDecoder creates a new PSU decoder instance
func NewPSUDecoder() *PSUFileDecoder {
	return &PSUFileDecoder{}
}

// Decode reads and parses a complete PSU archive into an ordered entry list
func (d *PSUFileDecoder) Decode(reader io.Reader) (*PSUFile, error) {
	psu := &PSUFile{}

	for {
		raw := make([]byte, PSUHeaderSize)
		if _, err := io.ReadFull(reader, raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: truncated entry header: %v", ErrMalformedArchive, err)
		}

		var header psuHeader
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &header); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedArchive, common.ErrFailedToReadHeader, err)
		}

		entry := PSUEntry{
			Kind:     header.ID,
			Size:     header.Size,
			Created:  header.Created,
			Modified: header.Modified,
			Name:     string(common.CString(header.Name[:])),
		}

		switch header.ID {
		case PSUDirectoryID:
			// Directories carry no payload
		case PSUFileID:
			data, err := common.ReadBytes(reader, int(header.Size))
			if err != nil {
				return nil, fmt.Errorf("%w: %s for %q: %v", ErrMalformedArchive, common.ErrFailedToReadPayload, entry.Name, err)
			}
			if err := common.SkipBytes(reader, psuPadding(header.Size)); err != nil {
				return nil, fmt.Errorf("%w: %s for %q: %v", ErrMalformedArchive, common.ErrFailedToReadPadding, entry.Name, err)
			}
			entry.Data = data
		default:
			return nil, fmt.Errorf("%w: unknown entry id %#04x", ErrMalformedArchive, header.ID)
		}

		common.LogDebug(common.DebugEntryRead, entry.Name, entry.Kind, entry.Size)
		psu.Entries = append(psu.Entries, entry)
	}

	return psu, nil
}

// PSUFileEncoder implements the PSUEncoder interface
type PSUFileEncoder struct{}

// NewPSUEncoder creates a new PSU encoder instance
func NewPSUEncoder() *PSUFileEncoder {
	return &PSUFileEncoder{}
}

// Encode serializes a PSU archive. Decoding the produced stream yields an
// equal entry sequence. Names longer than the 448-byte field are not
// truncated here; the caller is responsible for keeping them in range.
func (e *PSUFileEncoder) Encode(psu *PSUFile, writer io.Writer) error {
	for i := range psu.Entries {
		entry := &psu.Entries[i]

		header := psuHeader{
			ID:       entry.Kind,
			Size:     entry.Size,
			Created:  entry.Created,
			Modified: entry.Modified,
		}
		header.Created.Reserved = 0
		header.Modified.Reserved = 0
		copy(header.Name[:], entry.Name)

		if err := binary.Write(writer, binary.LittleEndian, header); err != nil {
			return fmt.Errorf("%s for %q: %w", common.ErrFailedToWriteHeader, entry.Name, err)
		}

		if !entry.IsFile() {
			continue
		}
		if _, err := writer.Write(entry.Data); err != nil {
			return fmt.Errorf("%s for %q: %w", common.ErrFailedToWritePayload, entry.Name, err)
		}
		if _, err := writer.Write(make([]byte, psuPadding(entry.Size))); err != nil {
			return fmt.Errorf("%s for %q: %w", common.ErrFailedToWritePadding, entry.Name, err)
		}
	}

	return nil
}

// Validate checks the well-formedness rules of an archive: a root directory
// first, "." and ".." immediately after, only file entries from there on,
// and a root size equal to the file count plus two.
func (p *PSUFile) Validate() error {
	if len(p.Entries) < 3 {
		return fmt.Errorf("%w: expected at least 3 entries, got %d", ErrMalformedArchive, len(p.Entries))
	}
	root := &p.Entries[0]
	if !root.IsDirectory() {
		return fmt.Errorf("%w: first entry is not a directory", ErrMalformedArchive)
	}
	if p.Entries[1].Name != "." || !p.Entries[1].IsDirectory() {
		return fmt.Errorf("%w: second entry is not the \".\" directory", ErrMalformedArchive)
	}
	if p.Entries[2].Name != ".." || !p.Entries[2].IsDirectory() {
		return fmt.Errorf("%w: third entry is not the \"..\" directory", ErrMalformedArchive)
	}

	files := 0
	for i := 3; i < len(p.Entries); i++ {
		if !p.Entries[i].IsFile() {
			return fmt.Errorf("%w: unexpected directory entry %q after the root block", ErrMalformedArchive, p.Entries[i].Name)
		}
		files++
	}
	if int(root.Size) != files+2 {
		return fmt.Errorf("%w: root size %d does not match %d files", ErrMalformedArchive, root.Size, files)
	}
	return nil
}

// Files returns the file entries of the archive in order
func (p *PSUFile) Files() []*PSUEntry {
	var files []*PSUEntry
	for i := range p.Entries {
		if p.Entries[i].IsFile() {
			files = append(files, &p.Entries[i])
		}
	}
	return files
}

// Name returns the name of the root directory entry, or an empty string for
// an empty archive.
func (p *PSUFile) Name() string {
	if len(p.Entries) == 0 {
		return ""
	}
	return p.Entries[0].Name
}
