package gbx

import (
	"context"
	"io"
	"log/slog"
)

// Options configures reading and writing. A nil *Options is valid and uses an
// empty registry and no codec.
type Options struct {
	// Registry resolves classes and chunks. If nil, every class is unknown.
	Registry *Registry

	// Codec compresses and decompresses the body and reference table. If nil,
	// compressed sections fail with ErrCompressionUnavailable when needed.
	Codec Codec

	// Logger receives diagnostics about recovered errors. If nil, they are
	// discarded.
	Logger *slog.Logger

	// Observer, if set, is notified of decoded chunks and errors.
	Observer Observer

	// RawBody stops after reading the body section without decompressing or
	// decoding it. The body can be decoded later with File.DecodeBody.
	RawBody bool

	// SkipRefTable leaves a compressed reference table undecoded, so no codec
	// is needed for it. It is decoded by File.DecodeBody if required, and
	// written back verbatim otherwise.
	SkipRefTable bool
}

var emptyRegistry = &Registry{
	classes: map[ClassID]*classEntry{},
	aliases: map[ClassID]ClassID{},
}

func (o *Options) registry() *Registry {
	if o == nil || o.Registry == nil {
		return emptyRegistry
	}
	return o.Registry
}

func (o *Options) codec() Codec {
	if o == nil {
		return nil
	}
	return o.Codec
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

func (o *Options) observer() Observer {
	if o == nil || o.Observer == nil {
		return nopObserver{}
	}
	return o.Observer
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Disposition describes how a chunk was handled by the codec.
type Disposition uint8

const (
	DispositionFixed     Disposition = iota // decoded by its typed decoder from the live stream
	DispositionSkippable                    // known skippable chunk, stored with its payload
	DispositionUnknown                      // unknown skippable chunk, passed through opaque
)

func (d Disposition) String() string {
	switch d {
	case DispositionFixed:
		return "fixed"
	case DispositionSkippable:
		return "skippable"
	case DispositionUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Observer is notified about codec activity. Implementations must be safe for
// concurrent use if the same Options are shared between goroutines.
type Observer interface {
	ObserveChunk(class, chunk ClassID, d Disposition, header bool)
	ObserveError(err error)
	ObserveBody(compressed bool, compressedSize, uncompressedSize int)
}

type nopObserver struct{}

func (nopObserver) ObserveChunk(class, chunk ClassID, d Disposition, header bool) {}
func (nopObserver) ObserveError(err error) {}
func (nopObserver) ObserveBody(compressed bool, compressedSize, uncompressedSize int) {}

// session is the state shared by every reader or writer of one pass over a
// node graph. It must not be shared between concurrent passes.
type session struct {
	ctx    context.Context
	opts   *Options
	reg    *Registry
	log    *slog.Logger
	obs    Observer
	header bool
	depth  int

	refs *RefTable

	// read
	nodes map[int32]Node

	// write
	indices   map[Node]int32
	preferred map[Node]int32 // indices nodes had in the pass they were read from
	next      int32
	max       int32
}

func newSession(ctx context.Context, opts *Options, refs *RefTable) *session {
	if ctx == nil {
		ctx = context.Background()
	}
	return &session{
		ctx:     ctx,
		opts:    opts,
		reg:     opts.registry(),
		log:     opts.logger(),
		obs:     opts.observer(),
		refs:    refs,
		nodes:   map[int32]Node{},
		indices: map[Node]int32{},
		next:    1,
	}
}

// resume returns a session continuing the read pass s for a deferred decode.
// It shares the node table and the reference table of s. If opts is not nil,
// its registry, logger and observer are used instead.
func (s *session) resume(opts *Options) *session {
	x := *s
	x.ctx = context.Background()
	x.depth = 0
	if opts != nil {
		x.opts = opts
		x.reg = opts.registry()
		x.log = opts.logger()
		x.obs = opts.observer()
	}
	return &x
}

// reserve keeps the indices of nodes read in an earlier pass, and allocates
// new indices above bound, so node indices embedded in opaque payloads are
// never reused.
func (s *session) reserve(nodes map[int32]Node, bound int32) {
	s.preferred = make(map[Node]int32, len(nodes))
	for i, n := range nodes {
		s.preferred[n] = i
		bound = max(bound, i)
	}
	s.next = max(s.next, bound+1)
	s.max = max(s.max, bound)
}

// index returns the index to write n with, preferring the one it was read
// with.
func (s *session) index(n Node) int32 {
	if i, ok := s.preferred[n]; ok && (s.refs == nil || s.refs.File(i) == nil) {
		s.max = max(s.max, i)
		return i
	}
	return s.nextIndex()
}

// nextIndex allocates the next node index which isn't used by the reference
// table.
func (s *session) nextIndex() int32 {
	for s.refs != nil && s.refs.File(s.next) != nil {
		s.next++
	}
	i := s.next
	s.next++
	s.max = max(s.max, i)
	return i
}

// numNodes returns the node count to store in the file header.
func (s *session) numNodes() uint32 {
	n := s.max
	if s.refs != nil {
		for _, f := range s.refs.Files {
			n = max(n, f.NodeIndex)
		}
	}
	return uint32(n) + 1
}
