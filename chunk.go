package gbx

import (
	"bytes"
	"fmt"
)

// SkippableChunk is a length-prefixed chunk. It is either opaque (holding the
// raw payload, which is written back verbatim) or decoded (holding a typed
// chunk, which is re-encoded on write). Discover moves it from the first state
// to the second.
type SkippableChunk struct {
	id    ClassID
	data  []byte
	typed Chunk
	newFn func() Chunk
	s     *session // read pass the payload came from, if any

	// Heavy is the header heaviness flag. It is only meaningful for header
	// chunks.
	Heavy bool
}

// NewSkippableChunk wraps a typed chunk as a decoded skippable chunk.
func NewSkippableChunk(c Chunk) *SkippableChunk {
	return &SkippableChunk{id: c.ID(), typed: c}
}

// NewOpaqueChunk creates an opaque skippable chunk. If newFn is nil, the chunk
// can never be discovered.
func NewOpaqueChunk(id ClassID, data []byte, newFn func() Chunk) *SkippableChunk {
	return &SkippableChunk{id: id, data: data, newFn: newFn}
}

// ID implements Chunk.
func (c *SkippableChunk) ID() ClassID {
	return c.id
}

// Opaque checks if the chunk has not been decoded.
func (c *SkippableChunk) Opaque() bool {
	return c.typed == nil
}

// Known checks if the chunk type is registered (i.e., it can be discovered).
func (c *SkippableChunk) Known() bool {
	return c.typed != nil || c.newFn != nil
}

// Data returns the raw payload of an opaque chunk, or nil if it was decoded.
func (c *SkippableChunk) Data() []byte {
	return c.data
}

// Chunk returns the typed chunk, or nil if it is still opaque.
func (c *SkippableChunk) Chunk() Chunk {
	return c.typed
}

// Discover decodes the payload into n. On success, the chunk is no longer
// opaque. On failure, it is left unchanged (n may be partially updated).
//
// A chunk read from a file is decoded in the context of that file, so node
// references resolve to the nodes and external files read before it. If opts
// is nil, the options the file was read with are used.
func (c *SkippableChunk) Discover(n Node, opts *Options) error {
	if c.s != nil {
		return c.discover(n, newReader(bytes.NewReader(c.data), c.s.resume(opts)))
	}
	return c.discover(n, NewReader(bytes.NewReader(c.data), opts))
}

func (c *SkippableChunk) discover(n Node, r *Reader) error {
	if c.typed != nil {
		return nil
	}
	if c.newFn == nil {
		return fmt.Errorf("discover chunk %s: %w: unknown chunk", c.id, ErrChunkRead)
	}
	x := c.newFn()
	d, ok := x.(Decoder)
	if !ok {
		return fmt.Errorf("discover chunk %s: %w: no decoder", c.id, ErrChunkRead)
	}
	if err := d.Decode(r, n); err != nil {
		return fmt.Errorf("discover chunk %s: %w", c.id, err)
	}
	if rem, _ := r.Remaining(); rem != 0 {
		return fmt.Errorf("discover chunk %s: %d unread bytes", c.id, rem)
	}
	c.typed, c.data, c.s = x, nil, nil
	return nil
}

// payload returns the bytes to write for the chunk.
func (c *SkippableChunk) payload(w *Writer, n Node) ([]byte, error) {
	if c.typed == nil {
		return c.data, nil
	}
	e, ok := c.typed.(Encoder)
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w: no encoder", c.id, ErrWriteUnsupported)
	}
	var b bytes.Buffer
	if err := e.Encode(w.sub(&b), n); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", c.id, err)
	}
	return b.Bytes(), nil
}
