package gbx

import (
	"fmt"
	"strconv"
)

// ClassID identifies a node class or a chunk. The top 20 bits are the class
// family, and the low 12 bits are the chunk index within the family.
type ClassID uint32

// Stream markers.
const (
	// Sentinel ends the chunk stream of a node.
	Sentinel ClassID = 0xFACADE01

	// SkipMagic precedes the length of a skippable chunk ("PIKS" on disk).
	SkipMagic uint32 = 0x534B4950

	// NullNode is the node index of an absent node reference.
	NullNode int32 = -1
)

// Family returns the class family of c (i.e., the class id owning a chunk id).
func (c ClassID) Family() ClassID {
	return c &^ 0xFFF
}

// Index returns the per-family chunk index of c.
func (c ClassID) Index() uint32 {
	return uint32(c & 0xFFF)
}

// IsClass checks if c is a class id rather than a chunk id.
func (c ClassID) IsClass() bool {
	return c.Index() == 0
}

func (c ClassID) String() string {
	return fmt.Sprintf("%08X", uint32(c))
}

func (c ClassID) GoString() string {
	switch c {
	case Sentinel:
		return "gbx.Sentinel"
	default:
		return "gbx.ClassID(0x" + strconv.FormatUint(uint64(c), 16) + ")"
	}
}
