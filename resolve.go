package gbx

import (
	"fmt"
	"io/fs"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultResolverCacheSize is the number of parsed files a Resolver keeps by
// default.
const DefaultResolverCacheSize = 64

// Resolver loads the external files referenced by a reference table. It is not
// safe for concurrent use.
type Resolver struct {
	// FS contains the referencing file and its dependencies.
	FS fs.FS

	// Base is the path of the referencing file within FS.
	Base string

	// Options is used to parse the referenced files.
	Options *Options

	// HeaderOnly only parses the header of referenced files.
	HeaderOnly bool

	cache *lru.Cache[string, *File]
}

// NewResolver creates a resolver for the file at base in fsys. If size is
// zero, DefaultResolverCacheSize is used.
func NewResolver(fsys fs.FS, base string, opts *Options, size int) (*Resolver, error) {
	if size == 0 {
		size = DefaultResolverCacheSize
	}
	c, err := lru.New[string, *File](size)
	if err != nil {
		return nil, fmt.Errorf("create resolver cache: %w", err)
	}
	return &Resolver{
		FS:      fsys,
		Base:    base,
		Options: opts,
		cache:   c,
	}, nil
}

// Resolve returns the main node of the file referenced by f.
func (r *Resolver) Resolve(f *RefTableFile) (Node, error) {
	x, err := r.ResolveFile(f)
	if err != nil {
		return nil, err
	}
	return x.Node, nil
}

// ResolveFile parses the file referenced by f. The result (including a
// failure) is cached on f, and successfully parsed files are also shared by
// path between references.
func (r *Resolver) ResolveFile(f *RefTableFile) (*File, error) {
	if f.done {
		return f.resolved, f.resolvedErr
	}
	x, err := r.resolve(f)
	if err != nil {
		r.Options.logger().Warn("failed to resolve external node",
			slog.String("base", r.Base), slog.String("ref", f.String()), slog.Any("error", err))
		r.Options.observer().ObserveError(err)
	}
	f.resolved, f.resolvedErr, f.done = x, err, true
	return x, err
}

func (r *Resolver) resolve(f *RefTableFile) (*File, error) {
	p, err := f.FullPath(r.Base)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if x, ok := r.cache.Get(p); ok {
			return x, nil
		}
	}
	if r.FS == nil {
		return nil, fmt.Errorf("%w: %s: no filesystem", ErrRefTableResolution, p)
	}

	fp, err := r.FS.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefTableResolution, err)
	}
	defer fp.Close()

	var x *File
	if r.HeaderOnly {
		x, err = ParseHeader(fp, r.Options)
	} else {
		x, err = Parse(fp, r.Options)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRefTableResolution, p, err)
	}
	x.Path = p

	if r.cache != nil {
		r.cache.Add(p, x)
	}
	return x, nil
}
