package gbx

import (
	"cmp"
	"slices"
)

// Node is an instance of a registered class.
type Node interface {
	ClassID() ClassID
	Chunks() *ChunkSet
	HeaderChunks() *ChunkSet
}

// NodeBase implements the chunk storage of Node. Embed it in node types.
type NodeBase struct {
	chunks ChunkSet
	header ChunkSet
}

// Chunks returns the body chunks of the node.
func (b *NodeBase) Chunks() *ChunkSet {
	return &b.chunks
}

// HeaderChunks returns the header chunks of the node. Only the main node of a
// file has header chunks.
func (b *NodeBase) HeaderChunks() *ChunkSet {
	return &b.header
}

// NodeRef is a reference from a chunk to another node. At most one of Node
// and File is set; both are nil for a null reference.
type NodeRef struct {
	Node Node          // node embedded in the same stream
	File *RefTableFile // node in an external file, or resource
}

// IsNull checks if the reference is absent.
func (n NodeRef) IsNull() bool {
	return n.Node == nil && n.File == nil
}

// Resolve returns the referenced node, loading it with r if it is external.
func (n NodeRef) Resolve(r *Resolver) (Node, error) {
	if n.File != nil {
		return r.Resolve(n.File)
	}
	return n.Node, nil
}

// Chunk is a versioned unit of the binary layout of a node.
type Chunk interface {
	ID() ClassID
}

// Decoder is a chunk which can be read. Decode must consume exactly the bytes
// of the chunk, storing the values in the chunk or in n.
type Decoder interface {
	Chunk
	Decode(r *Reader, n Node) error
}

// Encoder is a chunk which can be written.
type Encoder interface {
	Chunk
	Encode(w *Writer, n Node) error
}

// ChunkSet is a set of chunks unique by id, ordered by id.
type ChunkSet struct {
	chunks []Chunk
}

func (s *ChunkSet) search(id ClassID) (int, bool) {
	return slices.BinarySearchFunc(s.chunks, id, func(c Chunk, id ClassID) int {
		return cmp.Compare(c.ID(), id)
	})
}

// Get returns the chunk with the provided id, or nil.
func (s *ChunkSet) Get(id ClassID) Chunk {
	if i, ok := s.search(id); ok {
		return s.chunks[i]
	}
	return nil
}

// Has checks if a chunk with the provided id is in the set.
func (s *ChunkSet) Has(id ClassID) bool {
	_, ok := s.search(id)
	return ok
}

// Add inserts c, replacing any chunk with the same id. It returns true if a
// chunk was replaced.
func (s *ChunkSet) Add(c Chunk) bool {
	i, ok := s.search(c.ID())
	if ok {
		s.chunks[i] = c
	} else {
		s.chunks = slices.Insert(s.chunks, i, c)
	}
	return ok
}

// Remove deletes the chunk with the provided id. It returns true if it was
// present.
func (s *ChunkSet) Remove(id ClassID) bool {
	i, ok := s.search(id)
	if ok {
		s.chunks = slices.Delete(s.chunks, i, i+1)
	}
	return ok
}

// Len returns the number of chunks.
func (s *ChunkSet) Len() int {
	return len(s.chunks)
}

// All returns the chunks in id order.
func (s *ChunkSet) All() []Chunk {
	return slices.Clone(s.chunks)
}

// Typed returns the first chunk of type T in the set, looking inside
// discovered skippable chunks.
func Typed[T Chunk](s *ChunkSet) (T, bool) {
	for _, c := range s.chunks {
		if sc, ok := c.(*SkippableChunk); ok {
			c = sc.Chunk()
		}
		if x, ok := c.(T); ok {
			return x, true
		}
	}
	var zero T
	return zero, false
}
