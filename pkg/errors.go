package pkg

import "errors"

// Error taxonomy shared by all codecs. Codecs surface everything to the
// caller; they never retry, never write partial output and never mutate
// their input buffers. Callers classify failures with errors.Is.
var (
	// ErrMalformedArchive indicates a PSU structural violation: an unknown
	// entry id or a truncated entry.
	ErrMalformedArchive = errors.New("malformed PSU archive")

	// ErrMalformedICN indicates an ICN magic/tag mismatch, a truncated
	// buffer or inconsistent counts.
	ErrMalformedICN = errors.New("malformed ICN file")

	// ErrUnsupportedEncoding is returned when asked to write a compressed
	// ICN texture; only the uncompressed write path exists.
	ErrUnsupportedEncoding = errors.New("compressed ICN textures cannot be written")

	// ErrEncoding indicates a text encoding failure, such as a title.cfg
	// buffer that is not valid UTF-8.
	ErrEncoding = errors.New("encoding error")

	// ErrTitleTooLong is returned when an icon.sys title exceeds 68 bytes
	// once encoded as Shift-JIS.
	ErrTitleTooLong = errors.New("icon.sys title exceeds 68 bytes when encoded")

	// ErrTitleNotEncodable is returned when an icon.sys title contains a
	// character that does not round-trip through Shift-JIS.
	ErrTitleNotEncodable = errors.New("icon.sys title is not Shift-JIS encodable")
)
