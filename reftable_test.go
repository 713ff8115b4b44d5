package gbx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefTableRoundTrip(t *testing.T) {
	rt := new(RefTable)
	items := rt.AddDir(nil, "Items")
	sub := rt.AddDir(items, "Sub")
	blocks := rt.AddDir(nil, "Blocks")
	rt.AddFile(sub, "A.Item.Gbx", 3, 1)
	rt.AddResource(7, 4)
	rt.AddFile(nil, `Foo\Bar.Gbx`, 5, 0)
	rt.AddFile(blocks, "Road.Block.Gbx", 6, 2)

	var b bytes.Buffer
	require.NoError(t, encodeRefTable(NewWriter(&b, nil), rt))

	x, err := decodeRefTable(NewReader(bytes.NewReader(b.Bytes()), nil))
	require.NoError(t, err)
	require.Len(t, x.Dirs, 3)
	require.Len(t, x.Files, 4)

	assert.Equal(t, "Items", x.Dirs[0].Name)
	assert.Nil(t, x.Dirs[0].Parent)
	assert.Same(t, x.Dirs[0], x.Dirs[1].Parent)
	assert.Equal(t, []*RefTableDir{x.Dirs[1]}, x.Dirs[0].Dirs)

	assert.Equal(t, "Items/Sub/A.Item.Gbx", x.Files[0].RelPath())
	assert.True(t, x.Files[0].UseFile())
	assert.Equal(t, uint32(1), x.Files[0].AncestorLevel)
	assert.Equal(t, []*RefTableFile{x.Files[0]}, x.Dirs[1].Files)

	assert.True(t, x.Files[1].IsResource())
	assert.Equal(t, uint32(7), x.Files[1].ResourceIndex)
	assert.Equal(t, []*RefTableFile{x.Files[1]}, x.Resources())

	// stored as-is, normalized when resolving
	assert.Equal(t, `Foo\Bar.Gbx`, x.Files[2].Path)
	assert.Equal(t, "Foo/Bar.Gbx", x.Files[2].RelPath())

	assert.Same(t, x.Files[3], x.File(6))
	assert.Nil(t, x.File(1))

	var b2 bytes.Buffer
	require.NoError(t, encodeRefTable(NewWriter(&b2, nil), x))
	assert.Equal(t, b.Bytes(), b2.Bytes())
}

func TestRefTableEmpty(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, encodeRefTable(NewWriter(&b, nil), nil))
	assert.Equal(t, le(uint32(0)), b.Bytes())

	x, err := decodeRefTable(NewReader(bytes.NewReader(b.Bytes()), nil))
	require.NoError(t, err)
	assert.True(t, x.Empty())

	var nt *RefTable
	assert.True(t, nt.Empty())
	assert.Nil(t, nt.File(1))
}

func TestRefTableStructure(t *testing.T) {
	for _, x := range []struct {
		Name string
		Buf  []byte
	}{
		{"UndefinedParent", le(uint32(1), uint32(1), uint32(1), "a", int32(0))},
		{"UndefinedDir", le(uint32(1), uint32(0), FlagUseFile, uint32(1), "a", int32(1), int32(0), uint32(0))},
		{"DuplicateNode", le(uint32(2), uint32(0),
			FlagResource, uint32(0), int32(1),
			FlagResource, uint32(1), int32(1))},
		{"TooManyDirs", le(uint32(1), uint32(1000))},
		{"TooManyFiles", le(uint32(1000), uint32(0))},
	} {
		t.Run(x.Name, func(t *testing.T) {
			_, err := decodeRefTable(NewReader(bytes.NewReader(x.Buf), nil))
			assert.ErrorIs(t, err, ErrRefTableStructure)
		})
	}

	t.Run("ParentOrder", func(t *testing.T) {
		rt := new(RefTable)
		child := &RefTableDir{Name: "child"}
		parent := &RefTableDir{Name: "parent"}
		child.Parent = parent
		rt.Dirs = []*RefTableDir{child, parent}
		rt.AddFile(child, "a", 1, 0)
		assert.ErrorIs(t, encodeRefTable(NewWriter(new(bytes.Buffer), nil), rt), ErrRefTableStructure)
	})

	t.Run("ForeignDir", func(t *testing.T) {
		rt := new(RefTable)
		rt.AddFile(&RefTableDir{Name: "x"}, "a", 1, 0)
		assert.ErrorIs(t, encodeRefTable(NewWriter(new(bytes.Buffer), nil), rt), ErrRefTableStructure)
	})

	t.Run("DuplicateNode", func(t *testing.T) {
		rt := new(RefTable)
		rt.AddResource(0, 1)
		rt.AddResource(1, 1)
		assert.ErrorIs(t, encodeRefTable(NewWriter(new(bytes.Buffer), nil), rt), ErrRefTableStructure)
	})
}

func TestFullPath(t *testing.T) {
	rt := new(RefTable)
	items := rt.AddDir(nil, "Items")
	for _, x := range []struct {
		Name  string
		File  *RefTableFile
		Base  string
		Path  string
		Error bool
	}{
		{"Ancestor", rt.AddFile(items, "Foo.Item.Gbx", 1, 1), "Root/Sub/Map.Gbx", "Root/Items/Foo.Item.Gbx", false},
		{"Sibling", rt.AddFile(nil, "Foo.Gbx", 2, 0), "Root/Sub/Map.Gbx", "Root/Sub/Foo.Gbx", false},
		{"Backslash", rt.AddFile(nil, `A\B.Gbx`, 3, 0), `Root\Map.Gbx`, "Root/A/B.Gbx", false},
		{"Top", rt.AddFile(nil, "Foo.Gbx", 4, 1), "Root/Map.Gbx", "Foo.Gbx", false},
		{"AboveRoot", rt.AddFile(nil, "Foo.Gbx", 5, 2), "Root/Map.Gbx", "", true},
		{"DotDot", rt.AddFile(nil, "../../Foo.Gbx", 6, 0), "Root/Map.Gbx", "", true},
		{"Resource", rt.AddResource(0, 7), "Root/Map.Gbx", "", true},
	} {
		t.Run(x.Name, func(t *testing.T) {
			p, err := x.File.FullPath(x.Base)
			if x.Error {
				assert.ErrorIs(t, err, ErrRefTableResolution)
			} else if assert.NoError(t, err) {
				assert.Equal(t, x.Path, p)
			}
		})
	}
}

func TestSplitName(t *testing.T) {
	for _, x := range []struct {
		Filename string
		Name     string
		Kind     string
		Error    bool
	}{
		{"Map.Challenge.Gbx", "Map", "Challenge", false},
		{"dir/Car.Item.gbx", "Car", "Item", false},
		{`dir\Foo.GBX`, "Foo", "", false},
		{"A.B.Map.Gbx", "A.B", "Map", false},
		{"Map.txt", "", "", true},
		{".Item.Gbx", "", "", true},
		{"Map..Gbx", "", "", true},
	} {
		name, kind, err := SplitName(x.Filename)
		if x.Error {
			assert.Error(t, err, x.Filename)
			continue
		}
		if assert.NoError(t, err, x.Filename) {
			assert.Equal(t, x.Name, name, x.Filename)
			assert.Equal(t, x.Kind, kind, x.Filename)
			if x.Kind != "" {
				assert.Equal(t, x.Name+"."+x.Kind+Ext, JoinName(name, kind))
			}
		}
	}
	assert.Equal(t, "Foo.Gbx", JoinName("Foo", ""))
}
