package common

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FixedPointScale is the denominator of the 1/4096 fixed point format used
// by ICN geometry.
const FixedPointScale = 4096.0

// ReadUint16LE reads a uint16 in little-endian format
func ReadUint16LE(reader io.Reader) (uint16, error) {
	var value uint16
	err := binary.Read(reader, binary.LittleEndian, &value)
	return value, err
}

// ReadUint32LE reads a uint32 in little-endian format
func ReadUint32LE(reader io.Reader) (uint32, error) {
	var value uint32
	err := binary.Read(reader, binary.LittleEndian, &value)
	return value, err
}

// ReadInt16LE reads an int16 in little-endian format
func ReadInt16LE(reader io.Reader) (int16, error) {
	var value int16
	err := binary.Read(reader, binary.LittleEndian, &value)
	return value, err
}

// ReadFloat32LE reads a float32 in little-endian format
func ReadFloat32LE(reader io.Reader) (float32, error) {
	var value float32
	err := binary.Read(reader, binary.LittleEndian, &value)
	return value, err
}

// ReadBytes reads a specified number of bytes
func ReadBytes(reader io.Reader, count int) ([]byte, error) {
	buffer := make([]byte, count)
	n, err := io.ReadFull(reader, buffer)
	if err != nil {
		return nil, err
	}
	if n != count {
		return nil, fmt.Errorf("expected to read %d bytes, got %d", count, n)
	}
	return buffer, nil
}

// SkipBytes skips a specified number of bytes in the reader
func SkipBytes(reader io.Reader, count int) error {
	_, err := io.CopyN(io.Discard, reader, int64(count))
	return err
}

// CString returns the portion of a fixed-size buffer up to (not including)
// the first NUL byte. Bytes after the first NUL are discarded.
func CString(buffer []byte) []byte {
	for i, b := range buffer {
		if b == 0 {
			return buffer[:i]
		}
	}
	return buffer
}

// FixedToFloat converts a 1/4096 fixed point value to a float32
func FixedToFloat(value int16) float32 {
	return float32(value) / FixedPointScale
}

// FloatToFixed converts a float32 to a 1/4096 fixed point value
func FloatToFixed(value float32) int16 {
	return int16(value * FixedPointScale)
}
