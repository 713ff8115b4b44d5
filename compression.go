package gbx

import (
	"fmt"
	"slices"
)

// Codec compresses and decompresses the body (and, rarely, the reference
// table) of a file. The engine doesn't implement any compression algorithm
// itself; see the compress package for implementations.
type Codec interface {
	// Decompress decompresses src, which must expand to exactly size bytes.
	Decompress(src []byte, size int) ([]byte, error)

	// Compress compresses src.
	Compress(src []byte) ([]byte, error)
}

// IdentityCodec is a Codec which stores data as-is. It is mostly useful for
// testing.
var IdentityCodec Codec = identityCodec{}

type identityCodec struct{}

func (identityCodec) Decompress(src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return nil, fmt.Errorf("identity: size mismatch: have %d bytes, expected %d", len(src), size)
	}
	return slices.Clone(src), nil
}

func (identityCodec) Compress(src []byte) ([]byte, error) {
	return slices.Clone(src), nil
}

func decompress(c Codec, what string, src []byte, size uint32) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("decompress %s: %w: no codec configured (%d compressed bytes)", what, ErrCompressionUnavailable, len(src))
	}
	b, err := c.Decompress(src, int(size))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", what, err)
	}
	if len(b) != int(size) {
		return nil, fmt.Errorf("decompress %s: expected %d bytes, got %d", what, size, len(b))
	}
	return b, nil
}

func compress(c Codec, what string, src []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("compress %s: %w: no codec configured", what, ErrCompressionUnavailable)
	}
	b, err := c.Compress(src)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", what, err)
	}
	return b, nil
}
