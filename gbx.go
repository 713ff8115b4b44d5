// Package gbx reads and writes GBX files, the chunked binary container format
// of the Nadeo racing games.
package gbx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/exp/mmap"
)

// File is a parsed GBX file.
type File struct {
	Header   HeaderBasic
	Node     Node   // main node; header chunks and body chunks are stored on it
	NumNodes uint32 // as read; recomputed on write if the body is encoded
	RefTable *RefTable
	Body     Body
	Path     string // set by OpenFile

	refRaw []byte         // compressed reference table left undecoded
	nodes  map[int32]Node // node table of the body read pass
}

// Body is the body section of a file.
type Body struct {
	Raw              []byte // the section payload, compressed if Compressed is set
	Compressed       bool
	UncompressedSize uint32
	CompressedSize   uint32
	Decoded          bool // the chunks of the main node were read from Raw
}

// Ratio returns the compression ratio of the body, or 1 if it is not
// compressed.
func (b Body) Ratio() float64 {
	if !b.Compressed || b.UncompressedSize == 0 {
		return 1
	}
	return float64(b.CompressedSize) / float64(b.UncompressedSize)
}

// NewFile creates a file with the default header for n.
func NewFile(n Node) *File {
	return &File{
		Header:   DefaultHeader(),
		Node:     n,
		RefTable: new(RefTable),
		Body:     Body{Decoded: true},
	}
}

// ParseHeader reads the basic header and the header chunks. The rest of the
// file is kept as-is, so it can be written back without a codec.
func ParseHeader(r io.Reader, opts *Options) (*File, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	o.RawBody = true
	o.SkipRefTable = true
	return ParseContext(context.Background(), r, &o)
}

// Parse reads a file.
func Parse(r io.Reader, opts *Options) (*File, error) {
	return ParseContext(context.Background(), r, opts)
}

// ParseContext reads a file, checking ctx between the top-level chunks of the
// body.
func ParseContext(ctx context.Context, r io.Reader, opts *Options) (*File, error) {
	f := new(File)
	hs := newSession(ctx, opts, nil)
	hs.header = true
	br := newReader(r, hs)

	if err := f.Header.Deserialize(br); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cls, err := br.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read class id: %w", err)
	}
	desc, err := hs.reg.ResolveNode(ClassID(cls))
	if err != nil {
		return nil, fmt.Errorf("read class id: %w", err)
	}
	f.Node = desc.New()

	if f.Header.HasHeaderChunks() {
		size, err := br.Uint32()
		if err != nil {
			return nil, fmt.Errorf("read user data size: %w", err)
		}
		data, err := br.Bytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("read user data: %w", err)
		}
		if size != 0 {
			hr := br.sub(data)
			if err := hr.readChunks(f.Node, f.Node.HeaderChunks()); err != nil {
				return nil, fmt.Errorf("read header chunks: %w", err)
			}
			if rem, _ := hr.Remaining(); rem != 0 {
				hs.log.Warn("trailing bytes after header chunks",
					slog.String("class", desc.ID.String()), slog.Int64("size", rem))
			}
		}
	}

	if f.NumNodes, err = br.Uint32(); err != nil {
		return nil, fmt.Errorf("read node count: %w", err)
	}

	if err := f.readRefTable(br, opts); err != nil {
		return nil, fmt.Errorf("read reference table: %w", err)
	}

	if err := f.readBody(br, hs); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if opts == nil || !opts.RawBody {
		if err := f.DecodeBody(ctx, opts); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *File) readRefTable(r *Reader, opts *Options) error {
	if f.Header.RefTableCompression == Uncompressed {
		t, err := decodeRefTable(r)
		if err != nil {
			return err
		}
		f.RefTable = t
		return nil
	}
	usize, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("read uncompressed size: %w", err)
	}
	csize, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("read compressed size: %w", err)
	}
	data, err := r.Bytes(int(csize))
	if err != nil {
		return fmt.Errorf("read compressed data: %w", err)
	}
	if opts != nil && opts.SkipRefTable {
		var b bytes.Buffer
		w := NewWriter(&b, nil)
		_ = w.Uint32(usize)
		_ = w.Uint32(csize)
		_ = w.Bytes(data)
		f.refRaw = b.Bytes()
		return nil
	}
	return f.decodeRefTable(opts, usize, data)
}

func (f *File) decodeRefTable(opts *Options, usize uint32, data []byte) error {
	b, err := decompress(opts.codec(), "reference table", data, usize)
	if err != nil {
		return err
	}
	rr := NewReader(bytes.NewReader(b), opts)
	t, err := decodeRefTable(rr)
	if err != nil {
		return err
	}
	if rem, _ := rr.Remaining(); rem != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrRefTableStructure, rem)
	}
	f.RefTable, f.refRaw = t, nil
	return nil
}

func (f *File) readBody(r *Reader, s *session) error {
	if f.Header.BodyCompression == Uncompressed {
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		f.Body = Body{
			Raw:              b,
			UncompressedSize: uint32(len(b)),
			CompressedSize:   uint32(len(b)),
		}
	} else {
		usize, err := r.Uint32()
		if err != nil {
			return fmt.Errorf("read uncompressed size: %w", err)
		}
		csize, err := r.Uint32()
		if err != nil {
			return fmt.Errorf("read compressed size: %w", err)
		}
		b, err := r.Bytes(int(csize))
		if err != nil {
			return fmt.Errorf("read compressed data: %w", err)
		}
		f.Body = Body{
			Raw:              b,
			Compressed:       true,
			UncompressedSize: usize,
			CompressedSize:   csize,
		}
		if rem, ok := r.Remaining(); ok && rem != 0 {
			s.log.Warn("trailing bytes after compressed body", slog.Int64("size", rem))
		}
	}
	s.obs.ObserveBody(f.Body.Compressed, int(f.Body.CompressedSize), int(f.Body.UncompressedSize))
	return nil
}

// DecodeBody decompresses the body and reads the body chunks of the main node.
// It does nothing if the body was already decoded.
func (f *File) DecodeBody(ctx context.Context, opts *Options) error {
	if f.Body.Decoded {
		return nil
	}
	if err := f.DecodeRefTable(opts); err != nil {
		return err
	}

	data := f.Body.Raw
	if f.Body.Compressed {
		var err error
		if data, err = decompress(opts.codec(), "body", data, f.Body.UncompressedSize); err != nil {
			return fmt.Errorf("read body: %w", err)
		}
	}

	s := newSession(ctx, opts, f.RefTable)
	r := newReader(bytes.NewReader(data), s)
	if err := r.ReadNode(f.Node); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if rem, _ := r.Remaining(); rem != 0 {
		s.log.Warn("trailing bytes after body chunks",
			slog.String("class", f.Node.ClassID().String()), slog.Int64("size", rem))
	}
	f.Body.Decoded = true
	f.nodes = s.nodes
	return nil
}

// DecodeRefTable decodes a reference table left undecoded by
// Options.SkipRefTable. It does nothing if the table was already decoded.
func (f *File) DecodeRefTable(opts *Options) error {
	if f.refRaw == nil {
		return nil
	}
	r := NewReader(bytes.NewReader(f.refRaw), opts)
	usize, _ := r.Uint32()
	csize, _ := r.Uint32()
	data, err := r.Bytes(int(csize))
	if err != nil {
		return fmt.Errorf("read reference table: %w", err)
	}
	if err := f.decodeRefTable(opts, usize, data); err != nil {
		return fmt.Errorf("read reference table: %w", err)
	}
	return nil
}

// DecompressBody replaces a compressed body with its uncompressed bytes without
// decoding it, so it can be written with a different codec.
func (f *File) DecompressBody(opts *Options) error {
	if !f.Body.Compressed {
		return nil
	}
	data, err := decompress(opts.codec(), "body", f.Body.Raw, f.Body.UncompressedSize)
	if err != nil {
		return err
	}
	f.Body = Body{
		Raw:              data,
		UncompressedSize: uint32(len(data)),
		CompressedSize:   uint32(len(data)),
		Decoded:          f.Body.Decoded,
	}
	return nil
}

// OpenFile memory-maps and parses the file at name.
func OpenFile(name string, opts *Options) (*File, error) {
	m, err := mmap.Open(name)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	f, err := Parse(io.NewSectionReader(m, 0, int64(m.Len())), opts)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", name, err)
	}
	f.Path = name
	return f, nil
}

// Write encodes f to w.
func Write(w io.Writer, f *File, opts *Options) error {
	return WriteContext(context.Background(), w, f, opts)
}

// WriteContext encodes f to w, checking ctx between the top-level chunks of
// the body. Section sizes and the node count are recomputed. If the body was
// not decoded, it is written back as-is (recompressed if the body compression
// changed).
func WriteContext(ctx context.Context, w io.Writer, f *File, opts *Options) error {
	if f.Node == nil {
		return errors.New("write: file has no main node")
	}
	reg := opts.registry()
	cls := reg.Remap(f.Node.ClassID())
	if desc, ok := reg.Class(cls); ok && desc.WriteUnsupported {
		return fmt.Errorf("write class %s (%s): %w", cls, desc.Name, ErrWriteUnsupported)
	}

	body, numNodes, err := f.encodeBody(ctx, opts)
	if err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	hs := newSession(ctx, opts, nil)
	hs.header = true
	bw := newWriter(w, hs)

	if err := f.Header.Serialize(bw); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := bw.Uint32(uint32(cls)); err != nil {
		return fmt.Errorf("write class id: %w", err)
	}

	if f.Header.HasHeaderChunks() {
		var b bytes.Buffer
		if f.Node.HeaderChunks().Len() != 0 {
			if err := bw.sub(&b).writeChunks(f.Node, f.Node.HeaderChunks()); err != nil {
				return fmt.Errorf("write header chunks: %w", err)
			}
		}
		if err := bw.Uint32(uint32(b.Len())); err != nil {
			return fmt.Errorf("write user data size: %w", err)
		}
		if err := bw.Bytes(b.Bytes()); err != nil {
			return fmt.Errorf("write user data: %w", err)
		}
	} else if f.Node.HeaderChunks().Len() != 0 {
		return fmt.Errorf("write header chunks: version %d has no header chunk section", f.Header.Version)
	}

	if err := bw.Uint32(numNodes); err != nil {
		return fmt.Errorf("write node count: %w", err)
	}

	if err := f.writeRefTable(bw, opts); err != nil {
		return fmt.Errorf("write reference table: %w", err)
	}

	if f.Header.BodyCompression == Compressed {
		if err := bw.Uint32(body.UncompressedSize); err != nil {
			return fmt.Errorf("write body uncompressed size: %w", err)
		}
		if err := bw.Uint32(body.CompressedSize); err != nil {
			return fmt.Errorf("write body compressed size: %w", err)
		}
	}
	if err := bw.Bytes(body.Raw); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	hs.obs.ObserveBody(body.Compressed, int(body.CompressedSize), int(body.UncompressedSize))
	return nil
}

// encodeBody returns the body section to write and the node count.
func (f *File) encodeBody(ctx context.Context, opts *Options) (Body, uint32, error) {
	compressed := f.Header.BodyCompression == Compressed

	if !f.Body.Decoded {
		if f.Body.Compressed == compressed {
			return f.Body, f.NumNodes, nil
		}
		var data []byte
		if f.Body.Compressed {
			var err error
			if data, err = decompress(opts.codec(), "body", f.Body.Raw, f.Body.UncompressedSize); err != nil {
				return Body{}, 0, err
			}
		} else {
			data = f.Body.Raw
		}
		b, err := packBody(opts, data, compressed)
		return b, f.NumNodes, err
	}

	var buf bytes.Buffer
	s := newSession(ctx, opts, f.RefTable)
	if f.nodes != nil {
		s.reserve(f.nodes, int32(f.NumNodes)-1)
	}
	if err := newWriter(&buf, s).WriteNode(f.Node); err != nil {
		return Body{}, 0, err
	}
	b, err := packBody(opts, buf.Bytes(), compressed)
	return b, s.numNodes(), err
}

func packBody(opts *Options, data []byte, compressed bool) (Body, error) {
	b := Body{
		Raw:              data,
		Compressed:       compressed,
		UncompressedSize: uint32(len(data)),
		CompressedSize:   uint32(len(data)),
	}
	if compressed {
		c, err := compress(opts.codec(), "body", data)
		if err != nil {
			return Body{}, err
		}
		b.Raw, b.CompressedSize = c, uint32(len(c))
	}
	return b, nil
}

func (f *File) writeRefTable(w *Writer, opts *Options) error {
	if f.refRaw != nil {
		if f.Header.RefTableCompression != Compressed {
			return fmt.Errorf("reference table was not decoded, but compression changed")
		}
		return w.Bytes(f.refRaw)
	}
	if f.Header.RefTableCompression == Uncompressed {
		return encodeRefTable(w, f.RefTable)
	}
	var b bytes.Buffer
	if err := encodeRefTable(NewWriter(&b, opts), f.RefTable); err != nil {
		return err
	}
	c, err := compress(opts.codec(), "reference table", b.Bytes())
	if err != nil {
		return err
	}
	if err := w.Uint32(uint32(b.Len())); err != nil {
		return fmt.Errorf("write uncompressed size: %w", err)
	}
	if err := w.Uint32(uint32(len(c))); err != nil {
		return fmt.Errorf("write compressed size: %w", err)
	}
	return w.Bytes(c)
}
