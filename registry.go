package gbx

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// ClassDesc declares a node class.
type ClassDesc struct {
	ID     ClassID
	Name   string
	Parent ClassID // zero if none
	New    func() Node
	Chunks []ChunkDesc

	// WriteUnsupported makes Write fail for files whose main node is of this
	// class instead of producing a stream the game may not accept.
	WriteUnsupported bool
}

// ChunkDesc declares a chunk belonging to the class family of its id.
type ChunkDesc struct {
	ID   ClassID
	Name string
	New  func() Chunk

	// Skippable chunks are length-prefixed, and are stored undecoded unless
	// Eager is set or they are discovered later.
	Skippable bool
	Eager     bool

	// Header chunks are only resolved in the header section. Heavy is the
	// default heaviness for new header chunks (the game only validates heavy
	// chunks when it needs them).
	Header bool
	Heavy  bool
}

// Registry maps class and chunk ids to their constructors. It is immutable
// once built, and safe for concurrent use.
type Registry struct {
	classes map[ClassID]*classEntry
	aliases map[ClassID]ClassID
}

type classEntry struct {
	desc     ClassDesc
	families map[ClassID]struct{}
	chunks   map[ClassID]ChunkDesc
	header   map[ClassID]ChunkDesc
}

// NewRegistry builds a registry from the provided class descriptions and
// alias table (mapping old or alternate class ids to the current ones).
func NewRegistry(classes []ClassDesc, aliases map[ClassID]ClassID) (*Registry, error) {
	reg := &Registry{
		classes: make(map[ClassID]*classEntry, len(classes)),
		aliases: make(map[ClassID]ClassID, len(aliases)),
	}
	for _, c := range classes {
		if !c.ID.IsClass() {
			return nil, fmt.Errorf("class %s: not a class id", c.ID)
		}
		if _, dup := reg.classes[c.ID]; dup {
			return nil, fmt.Errorf("class %s: duplicate definition", c.ID)
		}
		if c.New == nil {
			return nil, fmt.Errorf("class %s (%s): no constructor", c.ID, c.Name)
		}
		if x := c.New().ClassID(); x != c.ID {
			return nil, fmt.Errorf("class %s (%s): constructor returned node of class %s", c.ID, c.Name, x)
		}
		e := &classEntry{
			desc:   c,
			chunks: map[ClassID]ChunkDesc{},
			header: map[ClassID]ChunkDesc{},
		}
		for _, k := range c.Chunks {
			if k.ID.Family() != c.ID {
				return nil, fmt.Errorf("class %s: chunk %s belongs to another family", c.ID, k.ID)
			}
			if k.New == nil {
				return nil, fmt.Errorf("class %s: chunk %s: no constructor", c.ID, k.ID)
			}
			if x := k.New().ID(); x != k.ID {
				return nil, fmt.Errorf("class %s: chunk %s: constructor returned chunk %s", c.ID, k.ID, x)
			}
			m := e.chunks
			if k.Header {
				m = e.header
			}
			if _, dup := m[k.ID]; dup {
				return nil, fmt.Errorf("class %s: chunk %s: duplicate definition", c.ID, k.ID)
			}
			m[k.ID] = k
		}
		reg.classes[c.ID] = e
	}

	for _, e := range reg.classes {
		e.families = map[ClassID]struct{}{}
		for id := e.desc.ID; id != 0; {
			if _, seen := e.families[id]; seen {
				return nil, fmt.Errorf("class %s: inheritance cycle at %s", e.desc.ID, id)
			}
			e.families[id] = struct{}{}
			p, ok := reg.classes[id]
			if !ok {
				return nil, fmt.Errorf("class %s: unknown ancestor %s", e.desc.ID, id)
			}
			id = p.desc.Parent
		}
	}

	for from, to := range aliases {
		if !from.IsClass() || !to.IsClass() {
			return nil, fmt.Errorf("alias %s -> %s: not a class id", from, to)
		}
		if _, ok := reg.classes[from]; ok {
			return nil, fmt.Errorf("alias %s -> %s: source is a registered class", from, to)
		}
		seen := map[ClassID]struct{}{from: {}}
		for {
			next, ok := aliases[to]
			if !ok {
				break
			}
			if _, cyc := seen[to]; cyc {
				return nil, fmt.Errorf("alias %s: cycle at %s", from, to)
			}
			seen[to] = struct{}{}
			to = next
		}
		reg.aliases[from] = to
	}
	return reg, nil
}

// Remap replaces old class or chunk ids with their current equivalents. It is
// idempotent.
func (reg *Registry) Remap(id ClassID) ClassID {
	if to, ok := reg.aliases[id.Family()]; ok {
		return to | ClassID(id.Index())
	}
	return id
}

// ResolveNode returns the description of a class after remapping its id.
func (reg *Registry) ResolveNode(id ClassID) (ClassDesc, error) {
	e, ok := reg.classes[reg.Remap(id).Family()]
	if !ok || !id.IsClass() {
		return ClassDesc{}, fmt.Errorf("%w: %s", ErrClassNotImplemented, id)
	}
	return e.desc, nil
}

// ResolveChunk returns the description of a body chunk of the owner class.
// The chunk must be in the family of the owner or of one of its ancestors.
func (reg *Registry) ResolveChunk(owner, chunk ClassID) (ChunkDesc, bool) {
	return reg.resolveChunk(owner, chunk, false)
}

// ResolveHeaderChunk is like ResolveChunk, but for header chunks.
func (reg *Registry) ResolveHeaderChunk(owner, chunk ClassID) (ChunkDesc, bool) {
	return reg.resolveChunk(owner, chunk, true)
}

func (reg *Registry) resolveChunk(owner, chunk ClassID, header bool) (ChunkDesc, bool) {
	e, ok := reg.classes[reg.Remap(owner)]
	if !ok {
		return ChunkDesc{}, false
	}
	chunk = reg.Remap(chunk)
	if _, ok := e.families[chunk.Family()]; !ok {
		return ChunkDesc{}, false
	}
	f := reg.classes[chunk.Family()]
	m := f.chunks
	if header {
		m = f.header
	}
	d, ok := m[chunk]
	return d, ok
}

// Class returns the description of a registered class.
func (reg *Registry) Class(id ClassID) (ClassDesc, bool) {
	e, ok := reg.classes[reg.Remap(id)]
	if !ok {
		return ClassDesc{}, false
	}
	return e.desc, true
}

// Ancestors returns the class families the chunks of id may belong to
// (including its own), sorted.
func (reg *Registry) Ancestors(id ClassID) []ClassID {
	e, ok := reg.classes[reg.Remap(id)]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(e.families))
}

// Classes returns all registered classes sorted by id.
func (reg *Registry) Classes() []ClassDesc {
	cs := make([]ClassDesc, 0, len(reg.classes))
	for _, e := range reg.classes {
		cs = append(cs, e.desc)
	}
	slices.SortFunc(cs, func(a, b ClassDesc) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return cs
}

// Aliases returns a copy of the resolved alias table.
func (reg *Registry) Aliases() map[ClassID]ClassID {
	return maps.Clone(reg.aliases)
}
