// Package game describes a subset of the classes of the Nadeo racing games.
package game

import (
	"fmt"
	"sync"

	"github.com/pg9182/gbx"
)

// Class ids.
const (
	ClassNod                 gbx.ClassID = 0x01001000
	ClassChallenge           gbx.ClassID = 0x03043000
	ClassBlockSkin           gbx.ClassID = 0x03059000
	ClassChallengeParameters gbx.ClassID = 0x0305B000
	ClassGhost               gbx.ClassID = 0x03092000
	ClassReplayRecord        gbx.ClassID = 0x03093000
	ClassAnchoredObject      gbx.ClassID = 0x03101000
	ClassStaticObjectModel   gbx.ClassID = 0x09145000
	ClassCollector           gbx.ClassID = 0x2E001000
	ClassItemModel           gbx.ClassID = 0x2E002000
)

// Aliases maps class ids used by older games to the current ones.
var Aliases = map[gbx.ClassID]gbx.ClassID{
	0x24003000: ClassChallenge,
	0x2403F000: ClassReplayRecord,
}

// Classes lists the known classes.
var Classes = []gbx.ClassDesc{
	{ID: ClassNod, Name: "CMwNod", New: func() gbx.Node { return new(Nod) }},
	challengeClass,
	blockSkinClass,
	challengeParametersClass,
	ghostClass,
	replayRecordClass,
	anchoredObjectClass,
	staticObjectModelClass,
	collectorClass,
	itemModelClass,
}

// Registry returns the registry for Classes and Aliases. It is built once.
var Registry = sync.OnceValues(func() (*gbx.Registry, error) {
	return gbx.NewRegistry(Classes, Aliases)
})

// MustRegistry is like Registry, but panics on error.
func MustRegistry() *gbx.Registry {
	reg, err := Registry()
	if err != nil {
		panic(fmt.Errorf("build game registry: %w", err))
	}
	return reg
}

// Nod is the base class of every node.
type Nod struct{ gbx.NodeBase }

func (*Nod) ClassID() gbx.ClassID { return ClassNod }

// chunk constructor helper
func mk[T any, P interface {
	*T
	gbx.Chunk
}]() func() gbx.Chunk {
	return func() gbx.Chunk { return P(new(T)) }
}

// count reads an element count, checking that the stream has room for at
// least min bytes per element.
func count(r *gbx.Reader, min int) (int, error) {
	n, err := r.Uint32()
	if err != nil {
		return 0, fmt.Errorf("read count: %w", err)
	}
	if rem, ok := r.Remaining(); ok && int64(n)*int64(min) > rem {
		return 0, fmt.Errorf("read count: %w: %d elements of at least %d bytes, but only %d bytes remaining", gbx.ErrTruncated, n, min, rem)
	}
	return int(n), nil
}
