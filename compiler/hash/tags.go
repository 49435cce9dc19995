package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the program serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously recorded program hashes.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing program hashes.
const HashVersion byte = 1

// Node tags.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Arguments
	TagIntLiteral   byte = 0x01
	TagArrayLiteral byte = 0x02
	TagStackRef     byte = 0x03

	// Operations
	TagBinaryOp byte = 0x10
	TagUnaryOp  byte = 0x11
	TagLoopOp   byte = 0x12

	// Operator kinds, written after TagBinaryOp / TagUnaryOp
	TagCopyInto byte = 0x20
	TagCopyFrom byte = 0x21
	TagAdd      byte = 0x22
	TagSub      byte = 0x23
	TagTest     byte = 0x24
	TagTrigger  byte = 0x25
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagIntLiteral, TagArrayLiteral, TagStackRef,
	TagBinaryOp, TagUnaryOp, TagLoopOp,
	TagCopyInto, TagCopyFrom, TagAdd, TagSub, TagTest, TagTrigger,
}
