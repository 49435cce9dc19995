package hash

import (
	"encoding/binary"

	"github.com/chazu/kkipple/compiler"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a parsed program.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Integers: big-endian int64 (8B)
//   - Lengths and counts: big-endian uint32 (4B)
//   - Strings: uint32 length + bytes
//   - Child nodes: serialized inline (flat)
//
// Source positions, whitespace, comments and alias spellings never reach
// the stream, so reformatting a program keeps its hash.
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of ops.
// The returned bytes are suitable for hashing with SHA-256.
func Serialize(ops []compiler.Op) []byte {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	s.serializeOps(ops)
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) serializeOps(ops []compiler.Op) {
	s.writeUint32(uint32(len(ops)))
	for _, op := range ops {
		s.serializeOp(op)
	}
}

func (s *serializer) serializeOp(op compiler.Op) {
	switch o := op.(type) {
	case *compiler.BinaryOp:
		s.writeByte(TagBinaryOp)
		s.writeByte(binaryTag(o.Kind))
		s.serializeArg(o.Left)
		s.serializeArg(o.Right)

	case *compiler.UnaryOp:
		s.writeByte(TagUnaryOp)
		s.writeByte(unaryTag(o.Kind))
		s.serializeArg(o.Target)

	case *compiler.LoopOp:
		s.writeByte(TagLoopOp)
		s.serializeArg(o.Target)
		s.serializeOps(o.Body)
	}
}

func (s *serializer) serializeArg(arg compiler.Arg) {
	switch a := arg.(type) {
	case *compiler.StackRef:
		s.writeByte(TagStackRef)
		s.writeString(a.Name)

	case *compiler.IntLiteral:
		s.writeByte(TagIntLiteral)
		s.writeInt64(a.Value)

	case *compiler.ArrayLiteral:
		s.writeByte(TagArrayLiteral)
		s.writeUint32(uint32(len(a.Codes)))
		for _, c := range a.Codes {
			s.writeInt64(c)
		}
	}
}

func binaryTag(k compiler.BinaryKind) byte {
	switch k {
	case compiler.CopyFrom:
		return TagCopyFrom
	case compiler.Add:
		return TagAdd
	case compiler.Sub:
		return TagSub
	}
	return TagCopyInto
}

func unaryTag(k compiler.UnaryKind) byte {
	if k == compiler.Trigger {
		return TagTrigger
	}
	return TagTest
}
