package gbx

import (
	"bytes"
	"io"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, uint32(0xCBF43926), Checksum([]byte("123456789")))
	assert.Equal(t, uint32(0), Checksum(nil))

	h := NewCRC()
	_, _ = h.Write([]byte("1234"))
	_, _ = h.Write([]byte("56789"))
	assert.Equal(t, uint32(0xCBF43926), h.Sum32())
}

func TestChecksumProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("streaming matches one-shot", prop.ForAll(
		func(b []byte, n int) bool {
			n %= len(b) + 1
			h := NewCRC()
			_, _ = h.Write(b[:n])
			_, _ = h.Write(b[n:])
			return h.Sum32() == Checksum(b)
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(0, 1<<16),
	))
	properties.TestingRun(t)
}

func TestChecksumWrite(t *testing.T) {
	opts := testOptions(t)
	m := new(testMap)
	m.Chunks().Add(&testKind{Kind: 1, Flags: 2})

	var b bytes.Buffer
	h := NewCRC()
	require.NoError(t, Write(io.MultiWriter(&b, h), NewFile(m), opts))
	assert.Equal(t, Checksum(b.Bytes()), h.Sum32())

	f, err := Parse(bytes.NewReader(b.Bytes()), opts)
	require.NoError(t, err)
	assert.Equal(t, Checksum(le(uint32(0x03043003), uint32(1), uint32(2), Sentinel)), f.Body.Checksum())
}
