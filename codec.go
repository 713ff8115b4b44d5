package gbx

import (
	"errors"
	"fmt"
	"log/slog"
)

// header chunk lengths carry the heaviness flag in the top bit
const heavyBit uint32 = 1 << 31

// ReadNode decodes the chunk stream of n up to and including the sentinel.
func (r *Reader) ReadNode(n Node) error {
	r.s.depth++
	defer func() { r.s.depth-- }()
	return r.readChunks(n, n.Chunks())
}

func (r *Reader) readChunks(n Node, set *ChunkSet) error {
	var (
		cls  = n.ClassID()
		prev ClassID
	)
	fail := func(kind error, id ClassID, err error) error {
		e := &ChunkError{Kind: kind, Class: cls, Chunk: id, Previous: prev, Err: err}
		r.s.obs.ObserveError(e)
		return e
	}
	for {
		if r.s.depth <= 1 {
			if err := r.s.ctx.Err(); err != nil {
				return err
			}
		}

		v, err := r.Uint32()
		if err != nil {
			return fail(ErrChunkRead, 0, fmt.Errorf("read chunk id: %w", err))
		}
		id := ClassID(v)
		if id == Sentinel {
			return nil
		}
		if id == 0 {
			r.s.log.Warn("chunk stream ended with a zero id instead of the sentinel",
				slog.String("class", cls.String()), slog.String("previous", prev.String()), slog.Int64("offset", r.n))
			return nil
		}
		id = r.s.reg.Remap(id)

		var (
			desc  ChunkDesc
			known bool
		)
		if r.s.header {
			desc, known = r.s.reg.ResolveHeaderChunk(cls, id)
		} else {
			desc, known = r.s.reg.ResolveChunk(cls, id)
		}

		var (
			c    Chunk
			disp Disposition
		)
		switch {
		case known && desc.Skippable:
			data, heavy, ok, err := r.readSkippable()
			if err != nil {
				return fail(ErrChunkParse, id, err)
			}
			if !ok {
				return fail(ErrChunkParse, id, errors.New("missing skippable chunk magic"))
			}
			sc := &SkippableChunk{id: id, data: data, newFn: desc.New, s: r.s, Heavy: heavy}
			if desc.Eager {
				if err := sc.discover(n, r.sub(data)); err != nil {
					r.s.obs.ObserveError(err)
					r.s.log.Warn("failed to decode skippable chunk, keeping raw payload",
						slog.String("class", cls.String()), slog.String("chunk", id.String()), slog.Any("error", err))
				}
			}
			c, disp = sc, DispositionSkippable

		case known:
			x := desc.New()
			d, ok := x.(Decoder)
			if !ok {
				return fail(ErrChunkRead, id, errors.New("chunk has no decoder"))
			}
			if err := d.Decode(r, n); err != nil {
				return fail(ErrChunkRead, id, err)
			}
			c, disp = x, DispositionFixed

		default:
			data, heavy, ok, err := r.readSkippable()
			if err != nil {
				return fail(ErrChunkRead, id, err)
			}
			if !ok {
				return fail(ErrChunkRead, id, errors.New("unknown unskippable chunk"))
			}
			c, disp = &SkippableChunk{id: id, data: data, Heavy: heavy}, DispositionUnknown
		}

		if set.Add(c) {
			r.s.log.Warn("duplicate chunk replaced earlier occurrence",
				slog.String("class", cls.String()), slog.String("chunk", id.String()))
		}
		r.s.obs.ObserveChunk(cls, id, disp, r.s.header)
		prev = id
	}
}

// readSkippable reads the magic guard and the payload of a skippable chunk. If
// the magic is absent, ok is false.
func (r *Reader) readSkippable() (data []byte, heavy, ok bool, err error) {
	magic, err := r.Uint32()
	if err != nil {
		return nil, false, false, fmt.Errorf("read skippable chunk magic: %w", err)
	}
	if magic != SkipMagic {
		return nil, false, false, nil
	}
	size, err := r.Uint32()
	if err != nil {
		return nil, false, true, fmt.Errorf("read skippable chunk size: %w", err)
	}
	if r.s.header {
		heavy, size = size&heavyBit != 0, size&^heavyBit
	}
	if data, err = r.Bytes(int(size)); err != nil {
		return nil, false, true, fmt.Errorf("read skippable chunk data: %w", err)
	}
	return data, heavy, true, nil
}

// WriteNode encodes the chunk stream of n, followed by the sentinel.
func (w *Writer) WriteNode(n Node) error {
	w.s.depth++
	defer func() { w.s.depth-- }()
	return w.writeChunks(n, n.Chunks())
}

func (w *Writer) writeChunks(n Node, set *ChunkSet) error {
	cls := n.ClassID()
	for _, c := range set.chunks {
		if w.s.depth <= 1 {
			if err := w.s.ctx.Err(); err != nil {
				return err
			}
		}
		id := w.s.reg.Remap(c.ID())
		switch c := c.(type) {
		case *SkippableChunk:
			data, err := c.payload(w, n)
			if err != nil {
				return fmt.Errorf("write class %s: %w", cls, err)
			}
			size := uint32(len(data))
			if uint64(len(data)) >= uint64(heavyBit) {
				return fmt.Errorf("write chunk %s: payload too large (%d bytes)", id, len(data))
			}
			if w.s.header && c.Heavy {
				size |= heavyBit
			}
			if err := w.Uint32(uint32(id)); err != nil {
				return fmt.Errorf("write chunk %s id: %w", id, err)
			}
			if err := w.Uint32(SkipMagic); err != nil {
				return fmt.Errorf("write chunk %s magic: %w", id, err)
			}
			if err := w.Uint32(size); err != nil {
				return fmt.Errorf("write chunk %s size: %w", id, err)
			}
			if err := w.Bytes(data); err != nil {
				return fmt.Errorf("write chunk %s data: %w", id, err)
			}
		case Encoder:
			if err := w.Uint32(uint32(id)); err != nil {
				return fmt.Errorf("write chunk %s id: %w", id, err)
			}
			if err := c.Encode(w, n); err != nil {
				return fmt.Errorf("write class %s chunk %s: %w", cls, id, err)
			}
		default:
			return fmt.Errorf("write class %s chunk %s: %w: no encoder", cls, id, ErrWriteUnsupported)
		}
	}
	if err := w.Uint32(uint32(Sentinel)); err != nil {
		return fmt.Errorf("write class %s sentinel: %w", cls, err)
	}
	return nil
}
