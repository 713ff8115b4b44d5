// Package compress implements body codecs for gbx.
package compress

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/golang/snappy"
	"github.com/pg9182/gbx"
	"github.com/pg9182/tf2lzham"
	"github.com/pierrec/lz4/v4"
	"github.com/rasky/go-lzo"
)

// Codecs by name. LZO is what the game uses.
var codecs = map[string]gbx.Codec{
	"lzo":      LZO{},
	"lzham":    LZHAM{},
	"snappy":   Snappy{},
	"lz4":      LZ4{},
	"identity": gbx.IdentityCodec,
}

// Lookup returns the codec with the provided (case-insensitive) name.
func Lookup(name string) (gbx.Codec, error) {
	if c, ok := codecs[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown codec %q (expected one of %s)", name, strings.Join(Names(), ", "))
}

// Names returns the names of the available codecs, sorted.
func Names() []string {
	ns := make([]string, 0, len(codecs))
	for n := range codecs {
		ns = append(ns, n)
	}
	slices.Sort(ns)
	return ns
}

func checkSize(name string, b []byte, size int) ([]byte, error) {
	if len(b) != size {
		return nil, fmt.Errorf("%s: decompressed size mismatch: expected %d, got %d", name, size, len(b))
	}
	return b, nil
}

// LZO is LZO1X, the body compression used by the game.
type LZO struct{}

func (LZO) Decompress(src []byte, size int) ([]byte, error) {
	b, err := lzo.Decompress1X(bytes.NewReader(src), len(src), size)
	if err != nil {
		return nil, fmt.Errorf("lzo: %w", err)
	}
	return checkSize("lzo", b, size)
}

func (LZO) Compress(src []byte) ([]byte, error) {
	return lzo.Compress1X(src), nil
}

// LZHAM is the raw LZHAM stream format used by Respawn's VPKs.
type LZHAM struct{}

func (LZHAM) Decompress(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, _, _, err := tf2lzham.Decompress(dst, src)
	if err != nil {
		return nil, fmt.Errorf("lzham: %w", err)
	}
	return checkSize("lzham", dst[:n], size)
}

func (LZHAM) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, len(src)+len(src)/2+1024)
	n, _, _, err := tf2lzham.Compress(dst, src)
	if err != nil {
		return nil, fmt.Errorf("lzham: %w", err)
	}
	return dst[:n], nil
}

// Snappy is the snappy block format.
type Snappy struct{}

func (Snappy) Decompress(src []byte, size int) ([]byte, error) {
	if n, err := snappy.DecodedLen(src); err != nil {
		return nil, fmt.Errorf("snappy: %w", err)
	} else if n != size {
		return nil, fmt.Errorf("snappy: decompressed size mismatch: expected %d, got %d", size, n)
	}
	b, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("snappy: %w", err)
	}
	return b, nil
}

func (Snappy) Compress(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

// LZ4 is the LZ4 frame format.
type LZ4 struct{}

func (LZ4) Decompress(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	r := lz4.NewReader(bytes.NewReader(src))
	if _, err := io.ReadFull(r, dst); err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n, _ := r.Read(make([]byte, 1)); n != 0 {
		return nil, fmt.Errorf("lz4: decompressed size mismatch: more than %d bytes", size)
	}
	return dst, nil
}

func (LZ4) Compress(src []byte) ([]byte, error) {
	var b bytes.Buffer
	w := lz4.NewWriter(&b)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return b.Bytes(), nil
}
