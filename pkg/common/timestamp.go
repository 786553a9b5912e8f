package common

import (
	"encoding/binary"
	"io"
	"time"
)

// Timestamp is the 8-byte packed date format shared by PSU entry headers and
// memory card directory entries. Months are one-based, matching files written
// by the PS2 browser itself. The zero value is a valid "no date" marker.
type Timestamp struct {
	Reserved uint8
	Second   uint8
	Minute   uint8
	Hour     uint8
	Day      uint8
	Month    uint8
	Year     uint16
}

// IsZero reports whether the timestamp carries no date at all.
func (t Timestamp) IsZero() bool {
	return t.Second == 0 && t.Minute == 0 && t.Hour == 0 &&
		t.Day == 0 && t.Month == 0 && t.Year == 0
}

// Time converts the timestamp to a time.Time in the local zone.
// The zero timestamp converts to the zero time.Time.
func (t Timestamp) Time() time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour), int(t.Minute), int(t.Second), 0, time.Local)
}

// NewTimestamp packs a time.Time into the on-disk format. The zero time.Time
// packs to the zero timestamp.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{
		Second: uint8(t.Second()),
		Minute: uint8(t.Minute()),
		Hour:   uint8(t.Hour()),
		Day:    uint8(t.Day()),
		Month:  uint8(t.Month()),
		Year:   uint16(t.Year()),
	}
}

// ReadTimestamp decodes one 8-byte timestamp record
func ReadTimestamp(reader io.Reader) (Timestamp, error) {
	var ts Timestamp
	err := binary.Read(reader, binary.LittleEndian, &ts)
	return ts, err
}

// WriteTimestamp encodes one 8-byte timestamp record. The reserved byte is
// always emitted as zero.
func WriteTimestamp(writer io.Writer, ts Timestamp) error {
	ts.Reserved = 0
	return binary.Write(writer, binary.LittleEndian, ts)
}
