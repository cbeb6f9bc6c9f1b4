package anvil

import "fmt"

// regionDim is the number of chunks along one side of a region (32x32).
const regionDim = 32

// RegionAndOffset is the decomposition of a world chunk coordinate into
// the region that holds it and the chunk's local position within that
// region.
type RegionAndOffset struct {
	RegionX int32
	RegionZ int32
	LocalX  uint8
	LocalZ  uint8
}

// SplitChunkCoord maps world chunk coordinates to their containing
// region and local offset. The shift is arithmetic (Go's >> on a signed
// integer already floors toward negative infinity), so
// SplitChunkCoord(0, -1) yields region (0, -1) at local (0, 31) rather
// than wrapping toward zero.
func SplitChunkCoord(cx, cz int32) RegionAndOffset {
	rx, rz := ChunkToRegion(cx, cz)
	lx, lz := ChunkLocal(cx, cz)
	return RegionAndOffset{RegionX: rx, RegionZ: rz, LocalX: lx, LocalZ: lz}
}

// ChunkToRegion returns the region coordinates containing chunk (cx, cz).
func ChunkToRegion(cx, cz int32) (int32, int32) {
	return cx >> 5, cz >> 5
}

// ChunkLocal returns chunk (cx, cz)'s position within its region, each
// component in [0, 32).
func ChunkLocal(cx, cz int32) (uint8, uint8) {
	return uint8(cx & 0x1F), uint8(cz & 0x1F)
}

// SlotIndex returns the linear metadata slot for a local chunk
// position. lx and lz must each be below regionDim; violating this is
// a programmer error and panics rather than returning a usable but
// out-of-range index.
func SlotIndex(lx, lz uint8) int {
	if lx >= regionDim || lz >= regionDim {
		panic(fmt.Sprintf("anvil: local chunk coordinate out of bounds: (%d, %d)", lx, lz))
	}
	return int(lx) + int(lz)*regionDim
}
