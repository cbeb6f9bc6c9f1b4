package anvil

import (
	"encoding/binary"
	"testing"

	"github.com/Badel2/anvil-region/nbt"
)

// TestFreshRegionHeaderSize covers scenario 1: a brand-new region is
// exactly one header's worth of zero bytes.
func TestFreshRegionHeaderSize(t *testing.T) {
	ms := NewMemoryStream()
	if _, err := Open(ms); err != nil {
		t.Fatalf("Open: %v", err)
	}

	raw := ms.Bytes()
	if len(raw) != headerBytes {
		t.Fatalf("fresh region length = %d, want %d", len(raw), headerBytes)
	}
	for i, b := range raw {
		if b != 0 {
			t.Fatalf("fresh region byte %d = %#x, want 0", i, b)
		}
	}
}

// TestKnownFixtureRead covers scenario 2: a hand-built header entry at
// slot 256 is decoded into the expected metadata, independent of any
// read_chunk call.
func TestKnownFixtureRead(t *testing.T) {
	ms := NewMemoryStream()
	raw := make([]byte, headerBytes)

	const slot = 256
	const sectorIndex = 61
	const sectorCount = 2
	const mtime = 1570215508

	binary.BigEndian.PutUint32(raw[slot*4:slot*4+4], uint32(sectorIndex<<8|sectorCount))
	binary.BigEndian.PutUint32(raw[sectorSize+slot*4:sectorSize+slot*4+4], uint32(mtime))

	if _, err := ms.WriteAt(raw, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := ms.Truncate(int64((sectorIndex + sectorCount) * sectorSize)); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	r, err := Open(ms)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	lx := uint8(slot % regionDim)
	lz := uint8(slot / regionDim)

	meta := r.Metadata(lx, lz)
	if meta.SectorIndex != sectorIndex || meta.SectorCount != sectorCount || meta.MTime != mtime {
		t.Fatalf("Metadata(%d, %d) = %+v, want {SectorIndex:%d SectorCount:%d MTime:%d}",
			lx, lz, meta, sectorIndex, sectorCount, mtime)
	}
}

// TestWriteThenReadFileLength covers scenario 3: writing the first
// chunk to a fresh region grows it by exactly one sector.
func TestWriteThenReadFileLength(t *testing.T) {
	ms := NewMemoryStream()
	r, err := Open(ms)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tag := nbt.CompoundTag{}
	tag.SetByte("test_bool", 1)
	tag.SetString("test_str", "test")

	if err := r.WriteChunk(15, 15, tag); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	got, err := r.ReadChunk(15, 15)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if v, ok := got.GetByte("test_bool"); !ok || v != 1 {
		t.Fatalf("test_bool = (%d, %v), want (1, true)", v, ok)
	}
	if v, ok := got.GetString("test_str"); !ok || v != "test" {
		t.Fatalf("test_str = (%q, %v), want (\"test\", true)", v, ok)
	}

	size, err := ms.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != headerBytes+sectorSize {
		t.Fatalf("region size = %d, want %d", size, headerBytes+sectorSize)
	}
}
