package gbx

import (
	"errors"
	"fmt"
)

// Errors returned while reading or writing GBX files. Most of them are wrapped
// with additional context, so check them with [errors.Is].
var (
	ErrNotAGbx                = errors.New("not a gbx file")
	ErrFormatNotSupported     = errors.New("format not supported")
	ErrVersionNotSupported    = errors.New("version not supported")
	ErrClassNotImplemented    = errors.New("class not implemented")
	ErrChunkRead              = errors.New("chunk read failed")
	ErrChunkParse             = errors.New("chunk parse failed")
	ErrCorruptedIndex         = errors.New("corrupted lookback index")
	ErrIdVersion              = errors.New("unsupported lookback version")
	ErrTruncated              = errors.New("truncated stream")
	ErrCompressionUnavailable = errors.New("compression unavailable")
	ErrRefTableStructure      = errors.New("malformed reference table")
	ErrRefTableResolution     = errors.New("reference table resolution failed")
	ErrWriteUnsupported       = errors.New("write unsupported")
)

// ChunkError is returned when the chunk stream of a node cannot be processed.
// It matches both its Kind (ErrChunkRead or ErrChunkParse) and the underlying
// error with [errors.Is].
type ChunkError struct {
	Kind     error
	Class    ClassID // node being decoded
	Chunk    ClassID // chunk which failed (zero if the id itself could not be read)
	Previous ClassID // last chunk decoded successfully in the same node (zero if none)
	Err      error
}

func (e *ChunkError) Error() string {
	s := fmt.Sprintf("%v: class %s chunk %s", e.Kind, e.Class, e.Chunk)
	if e.Previous != 0 {
		s += fmt.Sprintf(" (after chunk %s)", e.Previous)
	} else {
		s += " (first chunk)"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ChunkError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
