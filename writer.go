package gbx

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer writes GBX primitives to a byte stream. Like Reader, it is scoped to
// a single pass.
type Writer struct {
	w   io.Writer
	n   int64
	ids *lookback
	s   *session
	buf [8]byte
}

// NewWriter creates a Writer starting a new pass over w.
func NewWriter(w io.Writer, opts *Options) *Writer {
	return newWriter(w, newSession(context.Background(), opts, nil))
}

func newWriter(w io.Writer, s *session) *Writer {
	return &Writer{w: w, ids: &lookback{index: map[string]uint32{}}, s: s}
}

// sub returns a writer to w sharing the session but with a fresh lookback
// table.
func (w *Writer) sub(x io.Writer) *Writer {
	return newWriter(x, w.s)
}

// Write implements io.Writer, counting written bytes.
func (w *Writer) Write(b []byte) (int, error) {
	n, err := w.w.Write(b)
	w.n += int64(n)
	return n, err
}

// Position returns the number of bytes written so far.
func (w *Writer) Position() int64 {
	return w.n
}

// Bytes writes raw bytes.
func (w *Writer) Bytes(b []byte) error {
	_, err := w.Write(b)
	return err
}

// Uint8 writes a u8.
func (w *Writer) Uint8(v uint8) error {
	w.buf[0] = v
	return w.Bytes(w.buf[:1])
}

// Uint16 writes a u16.
func (w *Writer) Uint16(v uint16) error {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	return w.Bytes(w.buf[:2])
}

// Uint32 writes a u32.
func (w *Writer) Uint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.Bytes(w.buf[:4])
}

// Uint64 writes a u64.
func (w *Writer) Uint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	return w.Bytes(w.buf[:8])
}

// Int32 writes an i32.
func (w *Writer) Int32(v int32) error {
	return w.Uint32(uint32(v))
}

// Float32 writes an IEEE 754 f32.
func (w *Writer) Float32(v float32) error {
	return w.Uint32(math.Float32bits(v))
}

// Bool writes a u32 boolean.
func (w *Writer) Bool(v bool) error {
	if v {
		return w.Uint32(1)
	}
	return w.Uint32(0)
}

// String writes a length-prefixed string.
func (w *Writer) String(s string, prefix LengthPrefix) error {
	switch prefix {
	case LengthPrefixUint32:
		if uint64(len(s)) > math.MaxUint32 {
			return fmt.Errorf("write string: length %d too large", len(s))
		}
		if err := w.Uint32(uint32(len(s))); err != nil {
			return fmt.Errorf("write string length: %w", err)
		}
	case LengthPrefixByte:
		if len(s) > math.MaxUint8 {
			return fmt.Errorf("write string: length %d too large for byte prefix", len(s))
		}
		if err := w.Uint8(uint8(len(s))); err != nil {
			return fmt.Errorf("write string length: %w", err)
		}
	default:
		panic(fmt.Errorf("invalid length prefix %d", prefix))
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("write string: %w", err)
	}
	return nil
}

// Data writes a u32 length-prefixed byte slice.
func (w *Writer) Data(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("write data: length %d too large", len(b))
	}
	if err := w.Uint32(uint32(len(b))); err != nil {
		return fmt.Errorf("write data length: %w", err)
	}
	return w.Bytes(b)
}

// Struct writes a fixed-size value with [binary.Write].
func (w *Writer) Struct(v any) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// Vec2 writes two f32.
func (w *Writer) Vec2(v Vec2) error { return w.Struct(&v) }

// Vec3 writes three f32.
func (w *Writer) Vec3(v Vec3) error { return w.Struct(&v) }

// Int2 writes two i32.
func (w *Writer) Int2(v Int2) error { return w.Struct(&v) }

// Int3 writes three i32.
func (w *Writer) Int3(v Int3) error { return w.Struct(&v) }

// Byte3 writes three u8.
func (w *Writer) Byte3(v Byte3) error { return w.Struct(&v) }

// Color writes an RGB color as three f32.
func (w *Writer) Color(v Color) error { return w.Struct(&v) }

// Id writes a lookback string, referencing an earlier occurrence in the same
// pass if possible.
func (w *Writer) Id(id Id) error {
	if !w.ids.initialized {
		if err := w.Uint32(idVersion); err != nil {
			return fmt.Errorf("write id version: %w", err)
		}
		w.ids.initialized = true
	}
	if id.numeric {
		if id.number&idFlagMask != 0 {
			return fmt.Errorf("write id: collection number %d out of range", id.number)
		}
		return w.Uint32(id.number)
	}
	if id.name == "" {
		return w.Uint32(idEmpty)
	}
	if i, ok := w.ids.index[id.name]; ok {
		return w.Uint32(idLiteral | i)
	}
	if err := w.Uint32(idLiteral); err != nil {
		return fmt.Errorf("write id: %w", err)
	}
	if err := w.String(id.name, LengthPrefixUint32); err != nil {
		return fmt.Errorf("write id literal: %w", err)
	}
	w.ids.intern(id.name)
	return nil
}

// Ident writes an id/collection/author triple.
func (w *Writer) Ident(x Ident) error {
	if err := w.Id(x.Id); err != nil {
		return fmt.Errorf("write ident id: %w", err)
	}
	if err := w.Id(x.Collection); err != nil {
		return fmt.Errorf("write ident collection: %w", err)
	}
	if err := w.Id(x.Author); err != nil {
		return fmt.Errorf("write ident author: %w", err)
	}
	return nil
}

// NodeRef writes a node reference. The first reference to a node writes it
// inline; later ones only write its index.
func (w *Writer) NodeRef(ref NodeRef) error {
	switch {
	case ref.File != nil:
		return w.Int32(ref.File.NodeIndex)
	case ref.Node == nil:
		return w.Int32(NullNode)
	}
	if idx, ok := w.s.indices[ref.Node]; ok {
		return w.Int32(idx)
	}
	idx := w.s.index(ref.Node)
	w.s.indices[ref.Node] = idx
	if err := w.Int32(idx); err != nil {
		return fmt.Errorf("write node index: %w", err)
	}
	if err := w.Uint32(uint32(w.s.reg.Remap(ref.Node.ClassID()))); err != nil {
		return fmt.Errorf("write node %d class id: %w", idx, err)
	}
	if err := w.WriteNode(ref.Node); err != nil {
		return fmt.Errorf("write node %d: %w", idx, err)
	}
	return nil
}
