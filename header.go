package gbx

import (
	"bytes"
	"fmt"
)

// GBX constants.
const (
	Magic          = "GBX"
	VersionMin     = 3
	VersionMax     = 6
	VersionDefault = 6
)

// Format is the serialization format of a file.
type Format byte

const (
	FormatBinary Format = 'B'
	FormatText   Format = 'T' // not supported
)

// Compression selects whether a section is compressed.
type Compression byte

const (
	Compressed   Compression = 'C'
	Uncompressed Compression = 'U'
)

func (c Compression) valid() bool {
	return c == Compressed || c == Uncompressed
}

// HeaderBasic is the fixed preamble of a file.
type HeaderBasic struct {
	Version             uint16
	Format              Format
	RefTableCompression Compression
	BodyCompression     Compression
	Unknown             byte // version >= 4; usually 'R' or 'E'
}

// DefaultHeader returns the header used for new files.
func DefaultHeader() HeaderBasic {
	return HeaderBasic{
		Version:             VersionDefault,
		Format:              FormatBinary,
		RefTableCompression: Uncompressed,
		BodyCompression:     Compressed,
		Unknown:             'R',
	}
}

// Deserialize parses a HeaderBasic from r.
func (h *HeaderBasic) Deserialize(r *Reader) error {
	magic, err := r.Bytes(len(Magic))
	if err != nil {
		return fmt.Errorf("read magic: %w", err)
	} else if !bytes.Equal(magic, []byte(Magic)) {
		return fmt.Errorf("read magic: %w: expected %q, got %q", ErrNotAGbx, Magic, magic)
	}
	if h.Version, err = r.Uint16(); err != nil {
		return fmt.Errorf("read version: %w", err)
	} else if h.Version < VersionMin || h.Version > VersionMax {
		return fmt.Errorf("read version: %w: %d (expected %d-%d)", ErrVersionNotSupported, h.Version, VersionMin, VersionMax)
	}
	if b, err := r.Uint8(); err != nil {
		return fmt.Errorf("read format: %w", err)
	} else if h.Format = Format(b); h.Format != FormatBinary {
		return fmt.Errorf("read format: %w: %q", ErrFormatNotSupported, b)
	}
	if b, err := r.Uint8(); err != nil {
		return fmt.Errorf("read ref table compression: %w", err)
	} else if h.RefTableCompression = Compression(b); !h.RefTableCompression.valid() {
		return fmt.Errorf("read ref table compression: invalid value %q", b)
	}
	if b, err := r.Uint8(); err != nil {
		return fmt.Errorf("read body compression: %w", err)
	} else if h.BodyCompression = Compression(b); !h.BodyCompression.valid() {
		return fmt.Errorf("read body compression: invalid value %q", b)
	}
	if h.Version >= 4 {
		if h.Unknown, err = r.Uint8(); err != nil {
			return fmt.Errorf("read unknown byte: %w", err)
		}
	}
	return nil
}

// Serialize writes an encoded HeaderBasic to w.
func (h HeaderBasic) Serialize(w *Writer) error {
	if err := w.Bytes([]byte(Magic)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if h.Version < VersionMin || h.Version > VersionMax {
		return fmt.Errorf("write version: %w: %d (expected %d-%d)", ErrVersionNotSupported, h.Version, VersionMin, VersionMax)
	} else if err := w.Uint16(h.Version); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if h.Format != FormatBinary {
		return fmt.Errorf("write format: %w: %q", ErrFormatNotSupported, byte(h.Format))
	} else if err := w.Uint8(byte(h.Format)); err != nil {
		return fmt.Errorf("write format: %w", err)
	}
	if !h.RefTableCompression.valid() {
		return fmt.Errorf("write ref table compression: invalid value %q", byte(h.RefTableCompression))
	} else if err := w.Uint8(byte(h.RefTableCompression)); err != nil {
		return fmt.Errorf("write ref table compression: %w", err)
	}
	if !h.BodyCompression.valid() {
		return fmt.Errorf("write body compression: invalid value %q", byte(h.BodyCompression))
	} else if err := w.Uint8(byte(h.BodyCompression)); err != nil {
		return fmt.Errorf("write body compression: %w", err)
	}
	if h.Version >= 4 {
		if err := w.Uint8(h.Unknown); err != nil {
			return fmt.Errorf("write unknown byte: %w", err)
		}
	}
	return nil
}

// HasHeaderChunks checks if the version has a header chunk section.
func (h HeaderBasic) HasHeaderChunks() bool {
	return h.Version >= 6
}
