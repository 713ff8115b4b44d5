package gbx

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitives(t *testing.T) {
	var b bytes.Buffer
	w := NewWriter(&b, nil)
	require.NoError(t, w.Uint8(1))
	require.NoError(t, w.Uint16(0x0203))
	require.NoError(t, w.Uint32(0x04050607))
	require.NoError(t, w.Uint64(0x08090A0B0C0D0E0F))
	require.NoError(t, w.Int32(-2))
	require.NoError(t, w.Float32(1.5))
	require.NoError(t, w.Bool(true))
	require.NoError(t, w.String("abc", LengthPrefixUint32))
	require.NoError(t, w.String("de", LengthPrefixByte))
	require.NoError(t, w.Data([]byte{0xFF}))
	require.NoError(t, w.Vec3(Vec3{1, 2, 3}))
	require.NoError(t, w.Int3(Int3{-1, 0, 1}))
	require.NoError(t, w.Byte3(Byte3{4, 5, 6}))
	require.NoError(t, w.Color(Color{0.5, 0.25, 1}))
	assert.Equal(t, int64(b.Len()), w.Position())

	r := NewReader(bytes.NewReader(b.Bytes()), nil)

	u8, err := r.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u16, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), u16)

	u32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04050607), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x08090A0B0C0D0E0F), u64)

	i32, err := r.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	f32, err := r.Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)

	bl, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, bl)

	s, err := r.String(LengthPrefixUint32)
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	s, err = r.String(LengthPrefixByte)
	require.NoError(t, err)
	assert.Equal(t, "de", s)

	d, err := r.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF}, d)

	v3, err := r.Vec3()
	require.NoError(t, err)
	assert.Equal(t, Vec3{1, 2, 3}, v3)

	i3, err := r.Int3()
	require.NoError(t, err)
	assert.Equal(t, Int3{-1, 0, 1}, i3)

	b3, err := r.Byte3()
	require.NoError(t, err)
	assert.Equal(t, Byte3{4, 5, 6}, b3)

	c, err := r.Color()
	require.NoError(t, err)
	assert.Equal(t, Color{0.5, 0.25, 1}, c)

	rem, ok := r.Remaining()
	assert.True(t, ok)
	assert.Zero(t, rem)
	assert.Equal(t, int64(b.Len()), r.Position())
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}), nil)
	_, err := r.Uint32()
	assert.ErrorIs(t, err, ErrTruncated)

	r = NewReader(bytes.NewReader(le(uint32(10), "abc")), nil)
	_, err = r.String(LengthPrefixUint32)
	assert.ErrorIs(t, err, ErrTruncated)

	r = NewReader(bytes.NewReader(le(uint32(1), uint16(0))), nil)
	_, err = r.Vec2()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReaderInvalidBool(t *testing.T) {
	r := NewReader(bytes.NewReader(le(uint32(2))), nil)
	_, err := r.Bool()
	assert.Error(t, err)
}

func TestReaderUnknownLength(t *testing.T) {
	// no Len or Seek, so large reads are incremental
	data := bytes.Repeat([]byte{0xAB}, maxEagerAlloc+1)
	r := NewReader(io.MultiReader(bytes.NewReader(data)), nil)
	_, ok := r.Remaining()
	assert.False(t, ok)

	b, err := r.Bytes(len(data))
	require.NoError(t, err)
	assert.Equal(t, data, b)

	r = NewReader(io.MultiReader(bytes.NewReader(data)), nil)
	_, err = r.Bytes(len(data) + 1)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestIdEncoding(t *testing.T) {
	var b bytes.Buffer
	w := NewWriter(&b, nil)
	require.NoError(t, w.Id(IdName("abc")))
	require.NoError(t, w.Id(IdName("abc")))
	require.NoError(t, w.Id(IdName("")))
	require.NoError(t, w.Id(IdNumber(26)))
	require.NoError(t, w.Id(IdName("de")))
	require.NoError(t, w.Id(IdName("de")))

	assert.Equal(t, le(
		uint32(3),
		uint32(0x40000000), uint32(3), "abc",
		uint32(0x40000001),
		uint32(0xFFFFFFFF),
		uint32(26),
		uint32(0x40000000), uint32(2), "de",
		uint32(0x40000002),
	), b.Bytes())

	r := NewReader(bytes.NewReader(b.Bytes()), nil)
	for _, x := range []struct {
		Name   string
		Number bool
	}{
		{"abc", false},
		{"abc", false},
		{"", false},
		{"Stadium", true},
		{"de", false},
		{"de", false},
	} {
		id, err := r.Id()
		require.NoError(t, err)
		assert.Equal(t, x.Name, id.Name())
		assert.Equal(t, x.Number, id.IsNumber())
	}
}

func TestIdErrors(t *testing.T) {
	for _, x := range []struct {
		Name string
		Buf  []byte
		Err  error
	}{
		{"Version", le(uint32(2), uint32(0x40000000)), ErrIdVersion},
		{"Index", le(uint32(3), uint32(0x40000001)), ErrCorruptedIndex},
		{"IndexPastEnd", le(uint32(3), uint32(0x40000000), uint32(1), "a", uint32(0x40000002)), ErrCorruptedIndex},
		{"Truncated", le(uint32(3), uint32(0x40000000), uint32(5), "a"), ErrTruncated},
	} {
		t.Run(x.Name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(x.Buf), nil)
			var err error
			for err == nil {
				_, err = r.Id()
			}
			assert.ErrorIs(t, err, x.Err)
		})
	}
}

func TestIdNumber(t *testing.T) {
	n, ok := IdNumber(11).Number()
	assert.True(t, ok)
	assert.Equal(t, uint32(11), n)
	assert.Equal(t, "Canyon", IdNumber(11).Name())
	assert.Equal(t, "1234", IdNumber(1234).String())

	_, ok = IdName("x").Number()
	assert.False(t, ok)

	assert.Error(t, NewWriter(new(bytes.Buffer), nil).Id(IdNumber(0x40000000)))
}

func TestIdent(t *testing.T) {
	x := Ident{Id: IdName("Map"), Collection: IdNumber(26), Author: IdName("Nadeo")}

	var b bytes.Buffer
	require.NoError(t, NewWriter(&b, nil).Ident(x))

	y, err := NewReader(bytes.NewReader(b.Bytes()), nil).Ident()
	require.NoError(t, err)
	assert.Equal(t, x, y)
}

func TestIdProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ids round-trip within a pass", prop.ForAll(
		func(names []string) bool {
			var b bytes.Buffer
			w := NewWriter(&b, nil)
			for _, s := range names {
				if err := w.Id(IdName(s)); err != nil {
					return false
				}
			}
			r := NewReader(bytes.NewReader(b.Bytes()), nil)
			for _, s := range names {
				id, err := r.Id()
				if err != nil || id.Name() != s {
					return false
				}
			}
			rem, _ := r.Remaining()
			return rem == 0
		},
		gen.SliceOf(gen.OneConstOf("", "Road", "Grass", "Nadeo", "Stadium"), reflect.TypeOf("")),
	))

	properties.Property("repeated names are written once", prop.ForAll(
		func(s string, n int) bool {
			var b bytes.Buffer
			w := NewWriter(&b, nil)
			for range n {
				if err := w.Id(IdName(s)); err != nil {
					return false
				}
			}
			return b.Len() == 4+4+4+len(s)+4*(n-1)
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}
