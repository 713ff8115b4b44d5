package gbx

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlockFile(t *testing.T, name string) []byte {
	t.Helper()
	n := new(testBlock)
	n.Chunks().Add(&testBlockName{Name: IdName(name)})

	var b bytes.Buffer
	require.NoError(t, Write(&b, NewFile(n), testOptions(t)))
	return b.Bytes()
}

func TestResolver(t *testing.T) {
	fsys := fstest.MapFS{
		"Root/Items/Foo.Item.Gbx": {Data: testBlockFile(t, "Foo")},
		"Root/Sub/Bad.Gbx":        {Data: []byte("GBX")},
	}

	rt := new(RefTable)
	items := rt.AddDir(nil, "Items")
	foo := rt.AddFile(items, "Foo.Item.Gbx", 1, 1)
	foo2 := rt.AddFile(nil, `..\Items\Foo.Item.Gbx`, 2, 0)
	missing := rt.AddFile(nil, "Missing.Gbx", 3, 0)
	bad := rt.AddFile(nil, "Bad.Gbx", 4, 0)
	res := rt.AddResource(0, 5)

	r, err := NewResolver(fsys, "Root/Sub/Map.Gbx", testOptions(t), 0)
	require.NoError(t, err)

	n, err := NodeRef{File: foo}.Resolve(r)
	require.NoError(t, err)
	require.IsType(t, &testBlock{}, n)
	bn, ok := Typed[*testBlockName](n.Chunks())
	require.True(t, ok)
	assert.Equal(t, "Foo", bn.Name.Name())

	// cached on the entry
	n2, err := r.Resolve(foo)
	require.NoError(t, err)
	assert.Same(t, n, n2)

	// shared between entries with the same path
	f1, err := r.ResolveFile(foo)
	require.NoError(t, err)
	f2, err := r.ResolveFile(foo2)
	require.NoError(t, err)
	assert.Same(t, f1, f2)
	assert.Equal(t, "Root/Items/Foo.Item.Gbx", f1.Path)

	_, err = r.Resolve(missing)
	assert.ErrorIs(t, err, ErrRefTableResolution)

	// failures are cached too
	delete(fsys, "Root/Sub/Bad.Gbx")
	_, err = r.Resolve(bad)
	assert.ErrorIs(t, err, ErrRefTableResolution)
	fsys["Root/Sub/Bad.Gbx"] = &fstest.MapFile{Data: testBlockFile(t, "Bad")}
	_, err = r.Resolve(bad)
	assert.ErrorIs(t, err, ErrRefTableResolution)

	_, err = r.Resolve(res)
	assert.ErrorIs(t, err, ErrRefTableResolution)

	// embedded nodes don't need a resolver
	m := new(testMap)
	n, err = NodeRef{Node: m}.Resolve(nil)
	require.NoError(t, err)
	assert.Same(t, m, n)
}

func TestResolverHeaderOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"Foo.Gbx": {Data: testBlockFile(t, "Foo")},
	}
	rt := new(RefTable)
	foo := rt.AddFile(nil, "Foo.Gbx", 1, 0)

	opts := testOptions(t)
	opts.Codec = nil

	r, err := NewResolver(fsys, "Map.Gbx", opts, 1)
	require.NoError(t, err)
	r.HeaderOnly = true

	f, err := r.ResolveFile(foo)
	require.NoError(t, err)
	assert.False(t, f.Body.Decoded)
	assert.IsType(t, &testBlock{}, f.Node)
}

func TestResolverNoFS(t *testing.T) {
	rt := new(RefTable)
	foo := rt.AddFile(nil, "Foo.Gbx", 1, 0)

	r, err := NewResolver(nil, "Map.Gbx", nil, 0)
	require.NoError(t, err)
	_, err = r.Resolve(foo)
	assert.ErrorIs(t, err, ErrRefTableResolution)
}
