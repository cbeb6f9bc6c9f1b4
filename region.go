// Package anvil implements the Anvil region file format: the sector-
// allocated, header-indexed container Minecraft-derived servers use to
// persist 32x32 groups of world chunks as compressed NBT payloads.
//
// The core of the package is Region, which maintains a consistent
// mapping between 1024 chunk slots and byte ranges in a backing
// Stream across reads, writes, and relocations. NBT encoding and
// decoding is delegated entirely to the sibling nbt package; Region
// only ever hands it compressed bytes and gets a nbt.CompoundTag back.
package anvil

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/Badel2/anvil-region/internal/config"
	"github.com/Badel2/anvil-region/internal/logging"
	"github.com/Badel2/anvil-region/nbt"
)

// Region is a single open region file: the in-memory metadata table,
// the sector occupancy bitmap, and the backing stream, kept in
// lockstep across every mutation. A Region is not safe for concurrent
// use; callers serialize access to a given region file themselves.
type Region struct {
	stream Stream
	closer func() error

	meta         [slotsPerRegion]ChunkMetadata
	bitmap       *SectorBitmap
	totalSectors uint32

	log      *logging.Logger
	chunkCap uint32
}

// Option configures a Region at construction time.
type Option func(*Region)

// WithLogger attaches a diagnostic logger that reports allocation and
// corruption events. The default is a nil logger, which is a no-op.
func WithLogger(l *logging.Logger) Option {
	return func(r *Region) { r.log = l }
}

// WithConfig applies ambient settings loaded via internal/config.Load:
// it tightens the per-chunk size cap WriteChunk enforces down to
// Limits.MaxChunkBytes (never loosening it past the format's own
// maxPayloadBytes ceiling) and, in place of a separately constructed
// WithLogger, builds the Region's logger from cfg's logging section.
func WithConfig(cfg *config.Config) Option {
	return func(r *Region) {
		if cfg == nil {
			return
		}
		if cap := uint32(cfg.Limits.MaxChunkBytes); cap > 0 && cap < r.chunkCap {
			r.chunkCap = cap
		}
		r.log = logging.NewWithConfig(logging.Config{
			Enabled:    cfg.Logging.Enabled,
			FilePath:   cfg.Logging.FilePath,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		})
	}
}

// Open constructs a Region over an arbitrary Stream. The stream is
// zero-extended to the 8 KiB header size if shorter, then its header
// is parsed into the metadata table and the sector bitmap is rebuilt
// from that table. Tests use this entry point with a MemoryStream for
// determinism; OpenFile is the disk-backed convenience wrapper.
func Open(stream Stream, opts ...Option) (*Region, error) {
	size, err := stream.Size()
	if err != nil {
		return nil, fmt.Errorf("anvil: querying region size: %w", err)
	}

	if size < headerBytes {
		if err := stream.Truncate(headerBytes); err != nil {
			return nil, fmt.Errorf("anvil: extending region to header size: %w", err)
		}
		size = headerBytes
	}

	meta, err := readHeader(stream)
	if err != nil {
		return nil, err
	}

	totalSectors := uint32(size / sectorSize)
	bitmap := buildBitmap(totalSectors, meta)

	r := &Region{
		stream:       stream,
		meta:         meta,
		bitmap:       bitmap,
		totalSectors: totalSectors,
		chunkCap:     maxPayloadBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// OpenFile opens, creating if necessary, a region file on disk and
// constructs a Region over it.
func OpenFile(path string, opts ...Option) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("anvil: opening region file %s: %w", path, err)
	}

	r, err := Open(NewFileStream(f), opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f.Close
	return r, nil
}

// Close releases the region's backing file handle if OpenFile created
// one. Regions opened directly over a caller-supplied Stream leave
// that stream open for the caller to manage.
func (r *Region) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// Metadata returns the header entry for local chunk position (lx, lz).
func (r *Region) Metadata(lx, lz uint8) ChunkMetadata {
	return r.meta[SlotIndex(lx, lz)]
}

// TotalSectors reports the region file's current length in sectors.
func (r *Region) TotalSectors() uint32 { return r.totalSectors }

// ReadChunk reads and decodes the chunk stored at local position
// (lx, lz). It returns a *ChunkNotFoundError if the slot is empty.
func (r *Region) ReadChunk(lx, lz uint8) (nbt.CompoundTag, error) {
	slot := SlotIndex(lx, lz)
	meta := r.meta[slot]

	if meta.empty() {
		return nil, &ChunkNotFoundError{LocalX: lx, LocalZ: lz}
	}

	offset := int64(meta.SectorIndex) * sectorSize
	capacity := uint32(meta.SectorCount) * sectorSize
	if capacity > maxPayloadBytes {
		capacity = maxPayloadBytes
	}

	var lengthWord [4]byte
	if _, err := r.stream.ReadAt(lengthWord[:], offset); err != nil {
		return nil, &ReadError{Err: err}
	}
	length := binary.BigEndian.Uint32(lengthWord[:])

	if length == 0 || length > capacity {
		r.log.Warn("corrupt chunk slot=%d length=%d capacity=%d", slot, length, capacity)
		return nil, &LengthExceedsMaximumError{Length: length, MaximumLength: capacity}
	}

	var schemeByte [1]byte
	if _, err := r.stream.ReadAt(schemeByte[:], offset+4); err != nil {
		return nil, &ReadError{Err: err}
	}
	scheme := schemeByte[0]

	compressed := make([]byte, length-1)
	if len(compressed) > 0 {
		if _, err := r.stream.ReadAt(compressed, offset+5); err != nil {
			return nil, &ReadError{Err: err}
		}
	}

	var tag nbt.CompoundTag
	var err error
	switch scheme {
	case nbt.CompressionGzip:
		tag, err = nbt.DecodeGzip(compressed)
	case nbt.CompressionZlib:
		tag, err = nbt.DecodeZlib(compressed)
	default:
		r.log.Warn("unsupported compression scheme slot=%d scheme=%d", slot, scheme)
		return nil, &UnsupportedCompressionSchemeError{Scheme: scheme}
	}
	if err != nil {
		return nil, &TagDecodeError{Err: err}
	}

	r.log.Info("read chunk slot=%d sector=%d sectors=%d scheme=%d", slot, meta.SectorIndex, meta.SectorCount, scheme)

	return tag, nil
}

// WriteChunk zlib-compresses tag's NBT encoding and writes it to local
// position (lx, lz), allocating or reusing sectors as needed and
// updating the header and bitmap in lockstep. The payload placement is
// computed and the bytes written to disk before the in-memory bitmap
// and metadata are mutated, so a failed payload write leaves both
// untouched. The header entry is written last, after the in-memory
// table is updated; if that write fails, the in-memory state is ahead
// of the on-disk header.
func (r *Region) WriteChunk(lx, lz uint8, tag nbt.CompoundTag) error {
	slot := SlotIndex(lx, lz)

	compressed, err := nbt.EncodeZlib(tag)
	if err != nil {
		return &WriteError{Err: err}
	}

	// +1 for the compression scheme byte prepended to the compressed
	// NBT; +4 for the length prefix itself, which counts toward the
	// sector reservation but not toward its own value.
	payloadLen := uint32(len(compressed)) + 1
	storedLen := payloadLen + 4

	if storedLen > r.chunkCap {
		return &LengthExceedsMaximumError{Length: storedLen, MaximumLength: r.chunkCap}
	}

	// Compute the sector count in a wide type first: at storedLen's
	// upper bound the naive (storedLen/sectorSize)+1 formula produces
	// 257, which silently wraps to 1 if cast straight to uint8.
	sectorsNeeded := storedLen/sectorSize + 1
	if sectorsNeeded > 0xFF {
		return &LengthExceedsMaximumError{Length: storedLen, MaximumLength: maxPayloadBytes}
	}
	sectorsRequired := uint8(sectorsNeeded)

	existing := r.meta[slot]
	reused := !existing.empty() && existing.SectorCount == sectorsRequired

	sectorIndex, err := r.planPlacement(existing, sectorsRequired, reused)
	if err != nil {
		return &WriteError{Err: err}
	}

	offset := int64(sectorIndex) * sectorSize
	padded := int(sectorsRequired) * sectorSize

	buf := make([]byte, padded)
	binary.BigEndian.PutUint32(buf[0:4], payloadLen)
	buf[4] = nbt.CompressionZlib
	copy(buf[5:], compressed)

	if _, err := r.stream.WriteAt(buf, offset); err != nil {
		return &WriteError{Err: err}
	}

	if !reused {
		if !existing.empty() {
			r.bitmap.release(existing.SectorIndex, existing.SectorCount)
		}
		r.bitmap.acquire(sectorIndex, sectorsRequired)
	}

	meta := ChunkMetadata{
		SectorIndex: sectorIndex,
		SectorCount: sectorsRequired,
		MTime:       uint32(time.Now().Unix()),
	}
	r.meta[slot] = meta

	if err := writeHeaderEntry(r.stream, slot, meta); err != nil {
		return &WriteError{Err: err}
	}

	r.log.Info("wrote chunk slot=%d sector=%d sectors=%d bytes=%d reused=%v", slot, sectorIndex, sectorsRequired, storedLen, reused)

	return nil
}

// planPlacement implements the §4.5 allocator: reuse the existing run
// verbatim when it already has exactly the right size; otherwise treat
// it as free for the duration of the search (so the slot may relocate
// into its own vacated sectors), first-fit ascending from the first
// data sector, and extend the file at EOF if no run is large enough.
//
// Only the growth path (extending file length and bitmap length) is
// committed here. The caller commits the actual release-of-old /
// acquire-of-new bitmap bits only after the payload write has
// succeeded, so an I/O failure here or in the caller never leaves the
// bitmap claiming a run whose bytes were never written.
func (r *Region) planPlacement(existing ChunkMetadata, sectorsRequired uint8, reused bool) (uint32, error) {
	if reused {
		return existing.SectorIndex, nil
	}

	if !existing.empty() {
		r.bitmap.release(existing.SectorIndex, existing.SectorCount)
		defer r.bitmap.acquire(existing.SectorIndex, existing.SectorCount)
	}

	if start, ok := r.bitmap.firstFit(sectorsRequired); ok {
		return start, nil
	}

	gapTail := r.bitmap.trailingFree()
	growBy := uint32(sectorsRequired) - gapTail
	start := r.totalSectors - gapTail
	newTotal := r.totalSectors + growBy

	if err := r.stream.Truncate(int64(newTotal) * sectorSize); err != nil {
		return 0, fmt.Errorf("anvil: extending region file: %w", err)
	}

	r.bitmap.extend(growBy, false)
	r.totalSectors = newTotal

	if r.log != nil {
		r.log.Info("grew region by %d sectors to %d", growBy, newTotal)
	}

	return start, nil
}
