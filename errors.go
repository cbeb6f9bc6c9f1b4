package anvil

import "fmt"

// RegionNotFoundError is returned by the provider facade when the
// region file a chunk would live in does not exist. Unlike
// ChunkNotFoundError, region files are never created implicitly by a
// load.
type RegionNotFoundError struct {
	RegionX, RegionZ int32
}

func (e *RegionNotFoundError) Error() string {
	return fmt.Sprintf("anvil: region r.%d.%d.mca not found", e.RegionX, e.RegionZ)
}

// ChunkNotFoundError is returned when a region file exists but the
// requested slot is empty.
type ChunkNotFoundError struct {
	LocalX, LocalZ uint8
}

func (e *ChunkNotFoundError) Error() string {
	return fmt.Sprintf("anvil: chunk at local (%d, %d) not found in region", e.LocalX, e.LocalZ)
}

// LengthExceedsMaximumError signals a chunk payload length the engine
// will not handle. On read, the on-disk length word is zero or exceeds
// its sector reservation or the 1 MiB hard cap, which normally only
// happens when the region file is corrupt. On write, the encoded
// payload exceeds the Region's per-chunk cap or needs more sectors than
// the header's 8-bit count field can record.
type LengthExceedsMaximumError struct {
	Length, MaximumLength uint32
}

func (e *LengthExceedsMaximumError) Error() string {
	return fmt.Sprintf("anvil: chunk length %d exceeds maximum %d", e.Length, e.MaximumLength)
}

// UnsupportedCompressionSchemeError is returned when a chunk payload's
// compression byte is neither gzip (1) nor zlib (2).
type UnsupportedCompressionSchemeError struct {
	Scheme byte
}

func (e *UnsupportedCompressionSchemeError) Error() string {
	return fmt.Sprintf("anvil: unsupported compression scheme %d", e.Scheme)
}

// ReadError wraps an I/O failure encountered while reading a chunk.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("anvil: read error: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// TagDecodeError wraps an NBT decode failure.
type TagDecodeError struct {
	Err error
}

func (e *TagDecodeError) Error() string { return fmt.Sprintf("anvil: tag decode error: %v", e.Err) }
func (e *TagDecodeError) Unwrap() error { return e.Err }

// WriteError wraps an I/O failure encountered while writing a chunk.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("anvil: write error: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
