package nbt

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
)

// Compression scheme identifiers as stored in a region chunk payload's
// compression byte.
const (
	CompressionGzip byte = 1
	CompressionZlib byte = 2
)

// DecodeGzip reads a single compound tag from gzip-compressed NBT data.
func DecodeGzip(data []byte) (CompoundTag, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("nbt: creating gzip reader: %w", err)
	}
	defer zr.Close()
	return decodeCompound(newReader(zr))
}

// DecodeZlib reads a single compound tag from zlib-compressed NBT data.
func DecodeZlib(data []byte) (CompoundTag, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("nbt: creating zlib reader: %w", err)
	}
	defer zr.Close()
	return decodeCompound(newReader(zr))
}

func decodeCompound(r *reader) (CompoundTag, error) {
	tag, err := r.readTag()
	if err != nil {
		return nil, err
	}
	if tag.Type != TagCompound {
		return nil, fmt.Errorf("%w: expected root compound, got type %d", ErrInvalidTag, tag.Type)
	}
	compound, ok := tag.Value.(Compound)
	if !ok {
		return nil, fmt.Errorf("%w: root tag value is not a compound", ErrInvalidTag)
	}
	return compound, nil
}

// EncodeZlib serializes a compound tag under the empty root name and
// zlib-compresses it; this is the only encoding the region engine emits.
func EncodeZlib(tag CompoundTag) ([]byte, error) {
	var raw bytes.Buffer
	root := &Tag{Type: TagCompound, Name: "", Value: Compound(tag)}
	if err := newWriter(&raw).writeTag(root); err != nil {
		return nil, fmt.Errorf("nbt: encoding compound: %w", err)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		zw.Close()
		return nil, fmt.Errorf("nbt: compressing compound: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("nbt: closing zlib writer: %w", err)
	}

	return compressed.Bytes(), nil
}
