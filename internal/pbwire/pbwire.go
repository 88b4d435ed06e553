// Package pbwire implements a minimal, deterministic protobuf wire
// encoder for the handful of message shapes this repository needs to
// content-address (castorev1.Directory, and nothing else — blobs are
// addressed by their raw bytes, not a protobuf encoding of them).
//
// A real protoc-gen-go pipeline would give Directory a ProtoReflect()
// implementation and let proto.MarshalOptions{Deterministic: true}
// handle this; see DESIGN.md for why that isn't available here. This
// encoder reproduces the same guarantee that matters for content
// addressing: encoding a message writes its fields in a fixed,
// ascending field-number order taken directly from the struct, so the
// resulting bytes (and therefore BLAKE3 digest) never depend on the
// order fields were set in constructing code.
package pbwire

import "encoding/binary"

// WireType mirrors the protobuf wire types used by this package.
type WireType byte

const (
	WireVarint WireType = 0
	WireLen    WireType = 2
)

// Builder accumulates a deterministic protobuf-wire encoding.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Bytes returns the accumulated encoding.
func (b *Builder) Bytes() []byte {
	return b.buf
}

func (b *Builder) tag(fieldNum int, wt WireType) {
	b.appendVarint(uint64(fieldNum)<<3 | uint64(wt))
}

func (b *Builder) appendVarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	b.buf = append(b.buf, tmp[:n]...)
}

// BytesField appends a length-delimited bytes field. Per proto3 semantics, a
// nil/empty slice field is the default value and is omitted entirely.
func (b *Builder) BytesField(fieldNum int, v []byte) {
	if len(v) == 0 {
		return
	}
	b.tag(fieldNum, WireLen)
	b.appendVarint(uint64(len(v)))
	b.buf = append(b.buf, v...)
}

// Message appends a nested, length-delimited submessage field. A nil
// submessage is the default value and is omitted.
func (b *Builder) Message(fieldNum int, m *Builder) {
	if m == nil {
		return
	}
	b.tag(fieldNum, WireLen)
	b.appendVarint(uint64(len(m.buf)))
	b.buf = append(b.buf, m.buf...)
}

// Uint32Field appends a varint-encoded uint32 field. The proto3 default
// value (0) is omitted.
func (b *Builder) Uint32Field(fieldNum int, v uint32) {
	if v == 0 {
		return
	}
	b.tag(fieldNum, WireVarint)
	b.appendVarint(uint64(v))
}

// Uint64Field appends a varint-encoded uint64 field. The proto3 default
// value (0) is omitted.
func (b *Builder) Uint64Field(fieldNum int, v uint64) {
	if v == 0 {
		return
	}
	b.tag(fieldNum, WireVarint)
	b.appendVarint(v)
}

// BoolField appends a varint-encoded bool field. The proto3 default value
// (false) is omitted.
func (b *Builder) BoolField(fieldNum int, v bool) {
	if !v {
		return
	}
	b.tag(fieldNum, WireVarint)
	b.appendVarint(1)
}
