package anvil

import (
	"encoding/binary"
	"fmt"
)

const (
	slotsPerRegion = regionDim * regionDim // 1024
	sectorSize     = 4096
	headerSectors  = 2
	headerBytes    = headerSectors * sectorSize // 8192

	// maxSectors is the 1 MiB per-chunk cap expressed in sectors. The
	// offset word's 8-bit count field holds at most 255 sectors, so
	// WriteChunk rejects a payload that would need 256.
	maxSectors      = 256
	maxPayloadBytes = maxSectors * sectorSize
)

// ChunkMetadata is the in-memory mirror of one region header entry.
// SectorCount == 0 marks the slot empty.
type ChunkMetadata struct {
	SectorIndex uint32
	SectorCount uint8
	MTime       uint32
}

func (m ChunkMetadata) empty() bool { return m.SectorCount == 0 }

// readHeader decodes the 8 KiB region header (1024 big-endian offset
// words followed by 1024 big-endian timestamp words) into per-slot
// metadata. It does not validate sector ranges against file length;
// that happens at use sites, where the total sector count is known.
func readHeader(stream Stream) ([slotsPerRegion]ChunkMetadata, error) {
	var meta [slotsPerRegion]ChunkMetadata

	var raw [headerBytes]byte
	if _, err := stream.ReadAt(raw[:], 0); err != nil {
		return meta, fmt.Errorf("anvil: reading region header: %w", err)
	}

	for i := 0; i < slotsPerRegion; i++ {
		offset := binary.BigEndian.Uint32(raw[i*4 : i*4+4])
		mtime := binary.BigEndian.Uint32(raw[sectorSize+i*4 : sectorSize+i*4+4])
		meta[i] = ChunkMetadata{
			SectorIndex: offset >> 8,
			SectorCount: uint8(offset & 0xFF),
			MTime:       mtime,
		}
	}

	return meta, nil
}

// writeHeaderEntry persists a single slot's offset and timestamp words
// at their absolute header positions, leaving every other header entry
// untouched. Full-header rewrites on every mutation would dominate
// write cost, so mutations only ever touch the two words that changed.
func writeHeaderEntry(stream Stream, slot int, meta ChunkMetadata) error {
	var offsetWord [4]byte
	binary.BigEndian.PutUint32(offsetWord[:], (meta.SectorIndex<<8)|uint32(meta.SectorCount))
	if _, err := stream.WriteAt(offsetWord[:], int64(slot*4)); err != nil {
		return fmt.Errorf("anvil: writing offset word for slot %d: %w", slot, err)
	}

	var timeWord [4]byte
	binary.BigEndian.PutUint32(timeWord[:], meta.MTime)
	if _, err := stream.WriteAt(timeWord[:], int64(sectorSize+slot*4)); err != nil {
		return fmt.Errorf("anvil: writing timestamp word for slot %d: %w", slot, err)
	}

	return nil
}
