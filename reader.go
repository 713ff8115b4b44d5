package gbx

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// LengthPrefix selects how the length of a string is encoded.
type LengthPrefix uint8

const (
	LengthPrefixUint32 LengthPrefix = iota // u32 byte count (the default for the format)
	LengthPrefixByte                       // u8 byte count
)

// Fixed-size vector types.
type (
	Vec2  struct{ X, Y float32 }
	Vec3  struct{ X, Y, Z float32 }
	Int2  struct{ X, Y int32 }
	Int3  struct{ X, Y, Z int32 }
	Byte3 struct{ X, Y, Z uint8 }
	Color struct{ R, G, B float32 }
)

// Reads of more than this many bytes from sources without a known remaining
// length are done incrementally.
const maxEagerAlloc = 1 << 20

// Reader reads GBX primitives from a byte stream. It is scoped to a single
// pass: it carries the lookback string table and the node index table of that
// pass, and must not be used concurrently.
type Reader struct {
	r   io.Reader
	n   int64
	ids *lookback
	s   *session
	buf [8]byte
}

// NewReader creates a Reader starting a new pass over r.
func NewReader(r io.Reader, opts *Options) *Reader {
	return newReader(r, newSession(context.Background(), opts, nil))
}

func newReader(r io.Reader, s *session) *Reader {
	return &Reader{r: r, ids: &lookback{}, s: s}
}

// sub returns a reader over b sharing the session but with a fresh lookback
// table.
func (r *Reader) sub(b []byte) *Reader {
	return newReader(bytes.NewReader(b), r.s)
}

// Read implements io.Reader, counting consumed bytes.
func (r *Reader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	r.n += int64(n)
	return n, err
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int64 {
	return r.n
}

// Remaining returns the number of bytes left in the underlying source, if it
// can be determined.
func (r *Reader) Remaining() (int64, bool) {
	switch x := r.r.(type) {
	case interface{ Len() int }:
		return int64(x.Len()), true
	case io.Seeker:
		cur, err := x.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		end, err := x.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, false
		}
		if _, err := x.Seek(cur, io.SeekStart); err != nil {
			return 0, false
		}
		return end - cur, true
	}
	return 0, false
}

func (r *Reader) full(b []byte) error {
	n, err := io.ReadFull(r.r, b)
	r.n += int64(n)
	if err != nil {
		return eofErr(err)
	}
	return nil
}

func eofErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, io.ErrUnexpectedEOF)
	}
	return err
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid length %d", n)
	}
	if rem, ok := r.Remaining(); ok {
		if int64(n) > rem {
			return nil, fmt.Errorf("%w: need %d bytes, only %d remaining", ErrTruncated, n, rem)
		}
	} else if n > maxEagerAlloc {
		var b bytes.Buffer
		m, err := io.CopyN(&b, r.r, int64(n))
		r.n += m
		if err != nil {
			return nil, eofErr(err)
		}
		return b.Bytes(), nil
	}
	b := make([]byte, n)
	if err := r.full(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Uint8 reads a u8.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.full(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// Uint16 reads a u16.
func (r *Reader) Uint16() (uint16, error) {
	if err := r.full(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.buf[:2]), nil
}

// Uint32 reads a u32.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.full(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

// Uint64 reads a u64.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.full(r.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.buf[:8]), nil
}

// Int32 reads an i32.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Float32 reads an IEEE 754 f32.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// Bool reads a u32 boolean, which must be 0 or 1.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint32()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean %d", v)
	}
}

// String reads a length-prefixed string.
func (r *Reader) String(prefix LengthPrefix) (string, error) {
	var n int
	switch prefix {
	case LengthPrefixUint32:
		v, err := r.Uint32()
		if err != nil {
			return "", fmt.Errorf("read string length: %w", err)
		}
		n = int(v)
	case LengthPrefixByte:
		v, err := r.Uint8()
		if err != nil {
			return "", fmt.Errorf("read string length: %w", err)
		}
		n = int(v)
	default:
		panic(fmt.Errorf("invalid length prefix %d", prefix))
	}
	b, err := r.Bytes(n)
	if err != nil {
		return "", fmt.Errorf("read string: %w", err)
	}
	return string(b), nil
}

// Data reads a u32 length-prefixed byte slice.
func (r *Reader) Data() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read data length: %w", err)
	}
	return r.Bytes(int(n))
}

// Struct reads a fixed-size value (e.g., a Vec3) with [binary.Read].
func (r *Reader) Struct(v any) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return eofErr(err)
	}
	return nil
}

// Vec2 reads two f32.
func (r *Reader) Vec2() (v Vec2, err error) {
	err = r.Struct(&v)
	return
}

// Vec3 reads three f32.
func (r *Reader) Vec3() (v Vec3, err error) {
	err = r.Struct(&v)
	return
}

// Int2 reads two i32.
func (r *Reader) Int2() (v Int2, err error) {
	err = r.Struct(&v)
	return
}

// Int3 reads three i32.
func (r *Reader) Int3() (v Int3, err error) {
	err = r.Struct(&v)
	return
}

// Byte3 reads three u8.
func (r *Reader) Byte3() (v Byte3, err error) {
	err = r.Struct(&v)
	return
}

// Color reads an RGB color as three f32.
func (r *Reader) Color() (v Color, err error) {
	err = r.Struct(&v)
	return
}

// Id reads a lookback string.
func (r *Reader) Id() (Id, error) {
	if !r.ids.initialized {
		v, err := r.Uint32()
		if err != nil {
			return Id{}, fmt.Errorf("read id version: %w", err)
		}
		if v != idVersion {
			return Id{}, fmt.Errorf("%w %d (expected %d)", ErrIdVersion, v, idVersion)
		}
		r.ids.initialized = true
	}
	v, err := r.Uint32()
	if err != nil {
		return Id{}, fmt.Errorf("read id: %w", err)
	}
	switch {
	case v == idEmpty:
		return IdName(""), nil
	case v&idFlagMask == 0:
		return IdNumber(v), nil
	case v&idIndexMask == 0:
		s, err := r.String(LengthPrefixUint32)
		if err != nil {
			return Id{}, fmt.Errorf("read id literal: %w", err)
		}
		r.ids.intern(s)
		return IdName(s), nil
	default:
		s, ok := r.ids.lookup(v & idIndexMask)
		if !ok {
			return Id{}, fmt.Errorf("%w: index %d (table has %d entries)", ErrCorruptedIndex, v&idIndexMask, len(r.ids.strings))
		}
		return IdName(s), nil
	}
}

// Ident reads an id/collection/author triple.
func (r *Reader) Ident() (x Ident, err error) {
	if x.Id, err = r.Id(); err != nil {
		return x, fmt.Errorf("read ident id: %w", err)
	}
	if x.Collection, err = r.Id(); err != nil {
		return x, fmt.Errorf("read ident collection: %w", err)
	}
	if x.Author, err = r.Id(); err != nil {
		return x, fmt.Errorf("read ident author: %w", err)
	}
	return x, nil
}

// NodeRef reads a node reference, decoding the referenced node inline if it
// is the first occurrence of its index.
func (r *Reader) NodeRef() (NodeRef, error) {
	idx, err := r.Int32()
	if err != nil {
		return NodeRef{}, fmt.Errorf("read node index: %w", err)
	}
	if idx == NullNode {
		return NodeRef{}, nil
	}
	if r.s.refs != nil {
		if f := r.s.refs.File(idx); f != nil {
			return NodeRef{File: f}, nil
		}
	}
	if n, ok := r.s.nodes[idx]; ok {
		return NodeRef{Node: n}, nil
	}
	if idx < 0 {
		return NodeRef{}, fmt.Errorf("invalid node index %d", idx)
	}
	cls, err := r.Uint32()
	if err != nil {
		return NodeRef{}, fmt.Errorf("read node %d class id: %w", idx, err)
	}
	desc, err := r.s.reg.ResolveNode(ClassID(cls))
	if err != nil {
		return NodeRef{}, fmt.Errorf("read node %d: %w", idx, err)
	}
	n := desc.New()
	r.s.nodes[idx] = n
	if err := r.ReadNode(n); err != nil {
		return NodeRef{}, fmt.Errorf("read node %d: %w", idx, err)
	}
	return NodeRef{Node: n}, nil
}
