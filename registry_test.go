package gbx

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	reg := testOptions(t).Registry

	desc, err := reg.ResolveNode(testClassOldMap)
	require.NoError(t, err)
	assert.Equal(t, testClassMap, desc.ID)

	_, err = reg.ResolveNode(0x03043003)
	assert.ErrorIs(t, err, ErrClassNotImplemented)

	_, err = reg.ResolveNode(0x0A000000)
	assert.ErrorIs(t, err, ErrClassNotImplemented)

	// inherited
	c, ok := reg.ResolveChunk(testClassMap, 0x01001001)
	require.True(t, ok)
	assert.Equal(t, "Version", c.Name)

	// other family
	_, ok = reg.ResolveChunk(testClassMap, 0x03059002)
	assert.False(t, ok)

	// header chunks are separate
	_, ok = reg.ResolveChunk(testClassMap, 0x03043002)
	assert.False(t, ok)
	c, ok = reg.ResolveHeaderChunk(testClassMap, 0x03043002)
	require.True(t, ok)
	assert.True(t, c.Eager)

	// aliased chunk
	c, ok = reg.ResolveChunk(testClassMap, 0x24003003)
	require.True(t, ok)
	assert.Equal(t, ClassID(0x03043003), c.ID)

	assert.Equal(t, []ClassID{testClassNod, testClassMap}, reg.Ancestors(testClassMap))
	assert.Nil(t, reg.Ancestors(0x0A000000))

	cs := reg.Classes()
	require.Len(t, cs, len(testClasses))
	for i := 1; i < len(cs); i++ {
		assert.Less(t, cs[i-1].ID, cs[i].ID)
	}

	assert.Equal(t, map[ClassID]ClassID{testClassOldMap: testClassMap}, reg.Aliases())
}

func TestRegistryErrors(t *testing.T) {
	newNod := func() Node { return new(testNod) }
	for _, x := range []struct {
		Name    string
		Classes []ClassDesc
		Aliases map[ClassID]ClassID
	}{
		{"NotAClass", []ClassDesc{{ID: 0x01001001, New: newNod}}, nil},
		{"Duplicate", []ClassDesc{{ID: testClassNod, New: newNod}, {ID: testClassNod, New: newNod}}, nil},
		{"NoConstructor", []ClassDesc{{ID: testClassNod}}, nil},
		{"WrongConstructor", []ClassDesc{{ID: testClassMap, New: newNod}}, nil},
		{"ChunkFamily", []ClassDesc{{ID: testClassNod, New: newNod, Chunks: []ChunkDesc{{ID: 0x03043003, New: mkTest[testKind]()}}}}, nil},
		{"ChunkConstructor", []ClassDesc{{ID: testClassNod, New: newNod, Chunks: []ChunkDesc{{ID: 0x01001002, New: mkTest[testNodVersion]()}}}}, nil},
		{"UnknownParent", []ClassDesc{{ID: testClassNod, Parent: 0x0A000000, New: newNod}}, nil},
		{"Cycle", []ClassDesc{{ID: testClassNod, Parent: testClassNod, New: newNod}}, nil},
		{"AliasRegistered", []ClassDesc{{ID: testClassNod, New: newNod}}, map[ClassID]ClassID{testClassNod: testClassMap}},
		{"AliasCycle", nil, map[ClassID]ClassID{0x24003000: 0x24004000, 0x24004000: 0x24003000}},
	} {
		t.Run(x.Name, func(t *testing.T) {
			_, err := NewRegistry(x.Classes, x.Aliases)
			assert.Error(t, err)
		})
	}
}

func TestRegistryAliasChain(t *testing.T) {
	reg, err := NewRegistry(testClasses, map[ClassID]ClassID{
		0x24003000: 0x24004000,
		0x24004000: testClassMap,
	})
	require.NoError(t, err)
	assert.Equal(t, testClassMap, reg.Remap(0x24003000))
	assert.Equal(t, ClassID(0x03043005), reg.Remap(0x24003005))
}

func TestRegistryRemapProperties(t *testing.T) {
	reg := testOptions(t).Registry
	properties := gopter.NewProperties(nil)

	properties.Property("remap is idempotent", prop.ForAll(
		func(id uint32) bool {
			x := reg.Remap(ClassID(id))
			return reg.Remap(x) == x
		},
		gen.UInt32(),
	))

	properties.Property("remap keeps the chunk index", prop.ForAll(
		func(idx uint32) bool {
			return reg.Remap(testClassOldMap|ClassID(idx)) == testClassMap|ClassID(idx)
		},
		gen.UInt32Range(0, 0xFFF),
	))

	properties.TestingRun(t)
}

func TestChunkSet(t *testing.T) {
	var s ChunkSet
	assert.False(t, s.Add(&testRefs{}))
	assert.False(t, s.Add(&testKind{Kind: 1}))
	assert.False(t, s.Add(NewOpaqueChunk(0x03043099, nil, nil)))
	assert.True(t, s.Add(&testKind{Kind: 2}))
	assert.Equal(t, 3, s.Len())

	var ids []ClassID
	for _, c := range s.All() {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []ClassID{0x03043003, 0x03043004, 0x03043099}, ids)

	k, ok := Typed[*testKind](&s)
	require.True(t, ok)
	assert.Equal(t, uint32(2), k.Kind)

	assert.True(t, s.Has(0x03043004))
	assert.True(t, s.Remove(0x03043004))
	assert.False(t, s.Remove(0x03043004))
	assert.Nil(t, s.Get(0x03043004))

	_, ok = Typed[*testNote](&s)
	assert.False(t, ok)
}

func TestClassID(t *testing.T) {
	id := ClassID(0x03043005)
	assert.Equal(t, testClassMap, id.Family())
	assert.Equal(t, uint32(5), id.Index())
	assert.False(t, id.IsClass())
	assert.True(t, testClassMap.IsClass())
	assert.Equal(t, "03043005", id.String())
	assert.Equal(t, "gbx.Sentinel", Sentinel.GoString())
	assert.Equal(t, "gbx.ClassID(0x3043005)", id.GoString())
}
