// Package common provides shared primitives for the PS2 save data codecs:
// little-endian readers, C-string trimming, fixed point conversion, Shift-JIS
// text handling and timestamp encoding.
package common

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/unicode/norm"
)

// ErrUnmappableCharacter is returned when a string contains a character with
// no Shift-JIS representation.
var ErrUnmappableCharacter = errors.New("character cannot be represented in Shift-JIS")

// DecodeSJIS decodes a Shift-JIS byte buffer into a string. The buffer is
// treated as NUL-terminated: the first zero byte and everything after it are
// discarded before decoding.
func DecodeSJIS(data []byte) (string, error) {
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(CString(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode Shift-JIS text: %w", err)
	}
	return string(decoded), nil
}

// DecodeSJISNFKC decodes a Shift-JIS byte buffer and applies NFKC
// normalization, folding full-width forms into their compatibility
// equivalents. Used for icon.sys titles.
func DecodeSJISNFKC(data []byte) (string, error) {
	decoded, err := DecodeSJIS(data)
	if err != nil {
		return "", err
	}
	return norm.NFKC.String(decoded), nil
}

// EncodeSJIS encodes a string as Shift-JIS. Characters without a Shift-JIS
// mapping cause an error.
func EncodeSJIS(text string) ([]byte, error) {
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnmappableCharacter, text)
	}
	return encoded, nil
}

// IsRoundTripSJIS reports whether encoding the string as Shift-JIS and
// decoding the result yields the original string.
func IsRoundTripSJIS(text string) bool {
	encoded, err := EncodeSJIS(text)
	if err != nil {
		return false
	}
	decoded, err := DecodeSJIS(encoded)
	if err != nil {
		return false
	}
	return decoded == text
}
