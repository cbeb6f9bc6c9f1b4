package anvil

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/Badel2/anvil-region/internal/config"
	"github.com/Badel2/anvil-region/nbt"
)

func sampleTag(value int32) nbt.CompoundTag {
	c := nbt.CompoundTag{}
	c.SetInt("value", value)
	c.SetString("name", "chunk")
	return c
}

func mustOpen(t *testing.T) (*Region, *MemoryStream) {
	t.Helper()
	ms := NewMemoryStream()
	r, err := Open(ms)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r, ms
}

func TestOpenEmptyStreamZeroExtends(t *testing.T) {
	r, ms := mustOpen(t)
	size, err := ms.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != headerBytes {
		t.Fatalf("stream size = %d, want %d", size, headerBytes)
	}
	if r.TotalSectors() != headerSectors {
		t.Fatalf("TotalSectors() = %d, want %d", r.TotalSectors(), headerSectors)
	}
}

func TestReadChunkNotFound(t *testing.T) {
	r, _ := mustOpen(t)

	_, err := r.ReadChunk(5, 5)
	var cnf *ChunkNotFoundError
	if !errors.As(err, &cnf) {
		t.Fatalf("ReadChunk on empty slot: got %v, want *ChunkNotFoundError", err)
	}
}

func TestWriteThenReadChunkRoundTrip(t *testing.T) {
	r, _ := mustOpen(t)

	tag := sampleTag(42)
	if err := r.WriteChunk(3, 4, tag); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	got, err := r.ReadChunk(3, 4)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}

	v, ok := got.GetInt("value")
	if !ok || v != 42 {
		t.Fatalf("round-tripped value = (%d, %v), want (42, true)", v, ok)
	}
	name, ok := got.GetString("name")
	if !ok || name != "chunk" {
		t.Fatalf("round-tripped name = (%q, %v), want (\"chunk\", true)", name, ok)
	}
}

func TestWriteChunkAllocatesAfterHeader(t *testing.T) {
	r, _ := mustOpen(t)

	if err := r.WriteChunk(0, 0, sampleTag(1)); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	meta := r.Metadata(0, 0)
	if meta.SectorIndex != headerSectors {
		t.Fatalf("SectorIndex = %d, want %d", meta.SectorIndex, headerSectors)
	}
	if meta.SectorCount != 1 {
		t.Fatalf("SectorCount = %d, want 1", meta.SectorCount)
	}
}

func TestOverwriteSameSizeReusesSectors(t *testing.T) {
	r, _ := mustOpen(t)

	if err := r.WriteChunk(1, 1, sampleTag(1)); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	before := r.Metadata(1, 1)
	totalBefore := r.TotalSectors()

	// Same payload shape -> same compressed size -> same sector count,
	// so the write must reuse the exact same run rather than relocate.
	if err := r.WriteChunk(1, 1, sampleTag(1)); err != nil {
		t.Fatalf("WriteChunk (overwrite): %v", err)
	}
	after := r.Metadata(1, 1)

	if after.SectorIndex != before.SectorIndex || after.SectorCount != before.SectorCount {
		t.Fatalf("overwrite relocated: before=%+v after=%+v", before, after)
	}
	if r.TotalSectors() != totalBefore {
		t.Fatalf("TotalSectors grew on a same-size overwrite: %d -> %d", totalBefore, r.TotalSectors())
	}
}

func TestGrowingChunkRelocatesToEOF(t *testing.T) {
	r, _ := mustOpen(t)

	small := nbt.CompoundTag{}
	small.SetByte("b", 1)
	if err := r.WriteChunk(15, 15, small); err != nil {
		t.Fatalf("WriteChunk (small): %v", err)
	}
	if err := r.WriteChunk(0, 0, small); err != nil {
		t.Fatalf("WriteChunk (0,0): %v", err)
	}

	firstMeta := r.Metadata(15, 15)
	if firstMeta.SectorCount != 1 {
		t.Fatalf("expected a 1-sector initial write, got %+v", firstMeta)
	}

	// Incompressible random data, large enough that its zlib-compressed
	// form alone exceeds one sector.
	bigData := make([]byte, 5000)
	if _, err := rand.Read(bigData); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	big := nbt.CompoundTag{}
	big.SetByteArray("data", bigData)
	if err := r.WriteChunk(15, 15, big); err != nil {
		t.Fatalf("WriteChunk (big): %v", err)
	}

	grown := r.Metadata(15, 15)
	if grown.SectorCount < 2 {
		t.Fatalf("expected the larger payload to need >= 2 sectors, got %d", grown.SectorCount)
	}
	if grown.SectorIndex == firstMeta.SectorIndex {
		t.Fatalf("expected relocation away from the original single-sector run")
	}

	// The vacated single sector is never reused by this sequence since
	// (0,0)'s run blocks a same-sized gap; the file must have grown.
	if r.TotalSectors() <= headerSectors+2 {
		t.Fatalf("expected the region to have grown past the two original data sectors, got %d total sectors", r.TotalSectors())
	}

	got, err := r.ReadChunk(15, 15)
	if err != nil {
		t.Fatalf("ReadChunk after grow: %v", err)
	}
	data, ok := got.GetByteArray("data")
	if !ok || len(data) != len(bigData) {
		t.Fatalf("round-tripped byte array len = %d, ok=%v, want %d", len(data), ok, len(bigData))
	}
}

func TestWriteChunkRejectsOversizedPayload(t *testing.T) {
	r, _ := mustOpen(t)

	// Random bytes are incompressible, so the zlib-compressed payload
	// stays close to its input size and safely exceeds the cap.
	raw := make([]byte, maxPayloadBytes+4096)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	huge := nbt.CompoundTag{}
	huge.SetByteArray("data", raw)

	err := r.WriteChunk(0, 0, huge)
	var lem *LengthExceedsMaximumError
	if !errors.As(err, &lem) {
		t.Fatalf("WriteChunk with oversized payload: got %v, want *LengthExceedsMaximumError", err)
	}
}

func TestWithConfigTightensChunkCap(t *testing.T) {
	ms := NewMemoryStream()
	cfg := &config.Config{Limits: config.LimitsConfig{MaxChunkBytes: 64}}

	r, err := Open(ms, WithConfig(cfg))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	raw := make([]byte, 256)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	tag := nbt.CompoundTag{}
	tag.SetByteArray("data", raw)

	err = r.WriteChunk(0, 0, tag)
	var lem *LengthExceedsMaximumError
	if !errors.As(err, &lem) {
		t.Fatalf("WriteChunk past a configured 64-byte cap: got %v, want *LengthExceedsMaximumError", err)
	}
	if lem.MaximumLength != 64 {
		t.Fatalf("MaximumLength = %d, want 64 (the configured cap, not the format ceiling)", lem.MaximumLength)
	}
}

func TestWithConfigNilCapLeavesFormatCeiling(t *testing.T) {
	r, err := Open(NewMemoryStream(), WithConfig(nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.chunkCap != maxPayloadBytes {
		t.Fatalf("chunkCap = %d, want %d (nil config must not change it)", r.chunkCap, maxPayloadBytes)
	}
}

func TestReopenPreservesMetadata(t *testing.T) {
	ms := NewMemoryStream()
	r, err := Open(ms)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.WriteChunk(7, 8, sampleTag(99)); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	reopened, err := Open(ms)
	if err != nil {
		t.Fatalf("Open (reopen): %v", err)
	}

	got, err := reopened.ReadChunk(7, 8)
	if err != nil {
		t.Fatalf("ReadChunk after reopen: %v", err)
	}
	v, ok := got.GetInt("value")
	if !ok || v != 99 {
		t.Fatalf("reopened value = (%d, %v), want (99, true)", v, ok)
	}
}
