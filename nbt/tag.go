// Package nbt implements the named-binary-tag format used by Minecraft
// save data. It is the external tag codec the anvil region engine reads
// chunk payloads into and writes chunk payloads out of; the region
// engine itself never inspects tag contents beyond handing bytes to and
// from this package.
package nbt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Tag type IDs as defined by the NBT specification.
const (
	TagEnd       byte = 0
	TagByte      byte = 1
	TagShort     byte = 2
	TagInt       byte = 3
	TagLong      byte = 4
	TagFloat     byte = 5
	TagDouble    byte = 6
	TagByteArray byte = 7
	TagString    byte = 8
	TagList      byte = 9
	TagCompound  byte = 10
	TagIntArray  byte = 11
	TagLongArray byte = 12
)

var (
	ErrInvalidTag    = errors.New("nbt: invalid tag")
	ErrUnexpectedEOF = errors.New("nbt: unexpected end of data")
)

// Tag is a single named NBT value.
type Tag struct {
	Type  byte
	Name  string
	Value interface{}
}

// Compound is a mapping from tag name to tag, the root value of every
// chunk payload.
type Compound map[string]*Tag

// CompoundTag is the root NBT value exchanged with region engine
// callers: the canonical on-disk representation of a single chunk.
type CompoundTag = Compound

// List is a homogeneous sequence of tag values.
type List struct {
	Type   byte
	Values []interface{}
}

// reader decodes the uncompressed NBT binary stream.
type reader struct {
	r   io.Reader
	buf [8]byte
}

func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

// readTag reads one fully named tag, including its type byte and name.
func (r *reader) readTag() (*Tag, error) {
	tagType, err := r.readByte()
	if err != nil {
		return nil, err
	}

	if tagType == TagEnd {
		return &Tag{Type: TagEnd}, nil
	}

	name, err := r.readString()
	if err != nil {
		return nil, fmt.Errorf("nbt: reading tag name: %w", err)
	}

	value, err := r.readPayload(tagType)
	if err != nil {
		return nil, fmt.Errorf("nbt: reading payload for %q: %w", name, err)
	}

	return &Tag{Type: tagType, Name: name, Value: value}, nil
}

func (r *reader) readCompound() (Compound, error) {
	compound := make(Compound)

	for {
		tag, err := r.readTag()
		if err != nil {
			return nil, err
		}
		if tag.Type == TagEnd {
			break
		}
		compound[tag.Name] = tag
	}

	return compound, nil
}

func (r *reader) readPayload(tagType byte) (interface{}, error) {
	switch tagType {
	case TagByte:
		return r.readByte()
	case TagShort:
		return r.readShort()
	case TagInt:
		return r.readInt()
	case TagLong:
		return r.readLong()
	case TagFloat:
		return r.readFloat()
	case TagDouble:
		return r.readDouble()
	case TagByteArray:
		return r.readByteArray()
	case TagString:
		return r.readString()
	case TagList:
		return r.readList()
	case TagCompound:
		return r.readCompound()
	case TagIntArray:
		return r.readIntArray()
	case TagLongArray:
		return r.readLongArray()
	default:
		return nil, fmt.Errorf("%w: unknown type %d", ErrInvalidTag, tagType)
	}
}

func (r *reader) readByte() (byte, error) {
	if _, err := io.ReadFull(r.r, r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *reader) readShort() (int16, error) {
	if _, err := io.ReadFull(r.r, r.buf[:2]); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(r.buf[:2])), nil
}

func (r *reader) readInt() (int32, error) {
	if _, err := io.ReadFull(r.r, r.buf[:4]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(r.buf[:4])), nil
}

func (r *reader) readLong() (int64, error) {
	if _, err := io.ReadFull(r.r, r.buf[:8]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(r.buf[:8])), nil
}

func (r *reader) readFloat() (float32, error) {
	if _, err := io.ReadFull(r.r, r.buf[:4]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(r.buf[:4])), nil
}

func (r *reader) readDouble() (float64, error) {
	if _, err := io.ReadFull(r.r, r.buf[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(r.buf[:8])), nil
}

func (r *reader) readString() (string, error) {
	length, err := r.readShort()
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("%w: negative string length", ErrInvalidTag)
	}
	if length == 0 {
		return "", nil
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *reader) readByteArray() ([]byte, error) {
	length, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative array length", ErrInvalidTag)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *reader) readIntArray() ([]int32, error) {
	length, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative array length", ErrInvalidTag)
	}
	data := make([]int32, length)
	for i := range data {
		if data[i], err = r.readInt(); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (r *reader) readLongArray() ([]int64, error) {
	length, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative array length", ErrInvalidTag)
	}
	data := make([]int64, length)
	for i := range data {
		if data[i], err = r.readLong(); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (r *reader) readList() (*List, error) {
	elemType, err := r.readByte()
	if err != nil {
		return nil, err
	}
	length, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative list length", ErrInvalidTag)
	}

	list := &List{Type: elemType, Values: make([]interface{}, length)}
	for i := range list.Values {
		if list.Values[i], err = r.readPayload(elemType); err != nil {
			return nil, fmt.Errorf("nbt: reading list element %d: %w", i, err)
		}
	}
	return list, nil
}

// writer encodes the uncompressed NBT binary stream.
type writer struct {
	w   io.Writer
	buf [8]byte
}

func newWriter(w io.Writer) *writer {
	return &writer{w: w}
}

func (w *writer) writeTag(tag *Tag) error {
	if err := w.writeByte(tag.Type); err != nil {
		return err
	}
	if tag.Type == TagEnd {
		return nil
	}
	if err := w.writeString(tag.Name); err != nil {
		return err
	}
	return w.writePayload(tag.Type, tag.Value)
}

func (w *writer) writeCompound(compound Compound) error {
	for name, tag := range compound {
		tag.Name = name
		if err := w.writeTag(tag); err != nil {
			return err
		}
	}
	return w.writeByte(TagEnd)
}

func (w *writer) writePayload(tagType byte, value interface{}) error {
	switch tagType {
	case TagByte:
		return w.writeByte(value.(byte))
	case TagShort:
		return w.writeShort(value.(int16))
	case TagInt:
		return w.writeInt(value.(int32))
	case TagLong:
		return w.writeLong(value.(int64))
	case TagFloat:
		return w.writeFloat(value.(float32))
	case TagDouble:
		return w.writeDouble(value.(float64))
	case TagByteArray:
		return w.writeByteArray(value.([]byte))
	case TagString:
		return w.writeString(value.(string))
	case TagList:
		return w.writeList(value.(*List))
	case TagCompound:
		return w.writeCompound(value.(Compound))
	case TagIntArray:
		return w.writeIntArray(value.([]int32))
	case TagLongArray:
		return w.writeLongArray(value.([]int64))
	default:
		return fmt.Errorf("%w: unknown type %d", ErrInvalidTag, tagType)
	}
}

func (w *writer) writeByte(v byte) error {
	w.buf[0] = v
	_, err := w.w.Write(w.buf[:1])
	return err
}

func (w *writer) writeShort(v int16) error {
	binary.BigEndian.PutUint16(w.buf[:2], uint16(v))
	_, err := w.w.Write(w.buf[:2])
	return err
}

func (w *writer) writeInt(v int32) error {
	binary.BigEndian.PutUint32(w.buf[:4], uint32(v))
	_, err := w.w.Write(w.buf[:4])
	return err
}

func (w *writer) writeLong(v int64) error {
	binary.BigEndian.PutUint64(w.buf[:8], uint64(v))
	_, err := w.w.Write(w.buf[:8])
	return err
}

func (w *writer) writeFloat(v float32) error {
	binary.BigEndian.PutUint32(w.buf[:4], math.Float32bits(v))
	_, err := w.w.Write(w.buf[:4])
	return err
}

func (w *writer) writeDouble(v float64) error {
	binary.BigEndian.PutUint64(w.buf[:8], math.Float64bits(v))
	_, err := w.w.Write(w.buf[:8])
	return err
}

func (w *writer) writeString(v string) error {
	if len(v) > 32767 {
		return fmt.Errorf("%w: string too long", ErrInvalidTag)
	}
	if err := w.writeShort(int16(len(v))); err != nil {
		return err
	}
	_, err := w.w.Write([]byte(v))
	return err
}

func (w *writer) writeByteArray(v []byte) error {
	if err := w.writeInt(int32(len(v))); err != nil {
		return err
	}
	_, err := w.w.Write(v)
	return err
}

func (w *writer) writeIntArray(v []int32) error {
	if err := w.writeInt(int32(len(v))); err != nil {
		return err
	}
	for _, val := range v {
		if err := w.writeInt(val); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) writeLongArray(v []int64) error {
	if err := w.writeInt(int32(len(v))); err != nil {
		return err
	}
	for _, val := range v {
		if err := w.writeLong(val); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) writeList(list *List) error {
	if err := w.writeByte(list.Type); err != nil {
		return err
	}
	if err := w.writeInt(int32(len(list.Values))); err != nil {
		return err
	}
	for _, val := range list.Values {
		if err := w.writePayload(list.Type, val); err != nil {
			return err
		}
	}
	return nil
}

// Get/Set helpers on Compound.

func (c Compound) Set(name string, tagType byte, value interface{}) {
	c[name] = &Tag{Type: tagType, Name: name, Value: value}
}

func (c Compound) SetByte(name string, value byte)          { c.Set(name, TagByte, value) }
func (c Compound) SetShort(name string, value int16)        { c.Set(name, TagShort, value) }
func (c Compound) SetInt(name string, value int32)          { c.Set(name, TagInt, value) }
func (c Compound) SetLong(name string, value int64)         { c.Set(name, TagLong, value) }
func (c Compound) SetFloat(name string, value float32)      { c.Set(name, TagFloat, value) }
func (c Compound) SetDouble(name string, value float64)     { c.Set(name, TagDouble, value) }
func (c Compound) SetString(name string, value string)      { c.Set(name, TagString, value) }
func (c Compound) SetByteArray(name string, value []byte)   { c.Set(name, TagByteArray, value) }
func (c Compound) SetIntArray(name string, value []int32)   { c.Set(name, TagIntArray, value) }
func (c Compound) SetLongArray(name string, value []int64)  { c.Set(name, TagLongArray, value) }
func (c Compound) SetList(name string, value *List)         { c.Set(name, TagList, value) }
func (c Compound) SetCompound(name string, value Compound)  { c.Set(name, TagCompound, value) }

func (c Compound) GetByte(name string) (byte, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagByte {
		return 0, false
	}
	return tag.Value.(byte), true
}

func (c Compound) GetInt(name string) (int32, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagInt {
		return 0, false
	}
	return tag.Value.(int32), true
}

func (c Compound) GetLong(name string) (int64, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagLong {
		return 0, false
	}
	return tag.Value.(int64), true
}

func (c Compound) GetString(name string) (string, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagString {
		return "", false
	}
	return tag.Value.(string), true
}

func (c Compound) GetByteArray(name string) ([]byte, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagByteArray {
		return nil, false
	}
	return tag.Value.([]byte), true
}

func (c Compound) GetIntArray(name string) ([]int32, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagIntArray {
		return nil, false
	}
	return tag.Value.([]int32), true
}

func (c Compound) GetCompound(name string) (Compound, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagCompound {
		return nil, false
	}
	return tag.Value.(Compound), true
}

func (c Compound) GetList(name string) (*List, bool) {
	tag, ok := c[name]
	if !ok || tag.Type != TagList {
		return nil, false
	}
	return tag.Value.(*List), true
}
