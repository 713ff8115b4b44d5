package gbxutil

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/game"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfig(t *testing.T) {
	p := writeTemp(t, "gbx.yaml", "codec: lz4\nlog_level: debug\nheader_only: true\nexclude:\n  - Skins\n")
	c, err := LoadConfig(p, false)
	require.NoError(t, err)
	assert.Equal(t, "lz4", c.Codec)
	assert.Equal(t, slog.LevelDebug, c.Level())
	assert.True(t, c.HeaderOnly)
	assert.Equal(t, []string{"Skins"}, c.Exclude)
	assert.Equal(t, gbx.DefaultResolverCacheSize, c.ResolverCacheSize)

	opts, err := c.Options(io.Discard, nil)
	require.NoError(t, err)
	assert.True(t, opts.RawBody)
	assert.NotNil(t, opts.Registry)
	assert.NotNil(t, opts.Codec)
}

func TestLoadConfigMissing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing.yaml")

	c, err := LoadConfig(p, true)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	_, err = LoadConfig(p, false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigInvalid(t *testing.T) {
	for _, x := range []struct {
		Name    string
		Content string
	}{
		{"Codec", "codec: zip\n"},
		{"LogLevel", "log_level: trace\n"},
		{"CacheSize", "resolver_cache_size: -1\n"},
		{"EmptyGlob", "include:\n  - ''\n"},
		{"Syntax", "codec: [\n"},
	} {
		t.Run(x.Name, func(t *testing.T) {
			_, err := LoadConfig(writeTemp(t, "gbx.yaml", x.Content), false)
			assert.Error(t, err)
		})
	}
}

func TestConfigLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, DefaultConfig().Level())
	assert.Equal(t, slog.LevelError, Config{LogLevel: "error"}.Level())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "nonsense"}.Level())
}

func TestCLIConfig(t *testing.T) {
	p := writeTemp(t, "gbx.yaml", "codec: lz4\nlog_level: debug\n")

	set := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cc := NewCLIConfig(set)
	require.NoError(t, set.Parse([]string{"--config", p, "--codec", "snappy", "--header-only"}))

	c, err := cc.Load()
	require.NoError(t, err)
	assert.Equal(t, "snappy", c.Codec)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.HeaderOnly)
}

func TestCLIConfigErrors(t *testing.T) {
	t.Run("MissingExplicit", func(t *testing.T) {
		set := pflag.NewFlagSet("test", pflag.ContinueOnError)
		cc := NewCLIConfig(set)
		require.NoError(t, set.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
		_, err := cc.Load()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("InvalidFlag", func(t *testing.T) {
		set := pflag.NewFlagSet("test", pflag.ContinueOnError)
		cc := NewCLIConfig(set)
		require.NoError(t, set.Parse([]string{"--config", writeTemp(t, "gbx.yaml", "codec: lzo\n"), "--log-level", "loud"}))
		_, err := cc.Load()
		assert.Error(t, err)
	})
}

func TestIncludeExclude(t *testing.T) {
	rt := new(gbx.RefTable)
	items := rt.AddDir(nil, "Items")
	deco := rt.AddDir(items, "Deco")
	tree := rt.AddFile(deco, "Tree.Item.Gbx", 1, 1)
	other := rt.AddFile(nil, "Maps/A.Map.Gbx", 2, 0)
	res := rt.AddResource(0, 3)

	for _, x := range []struct {
		Name string
		IE   IncludeExclude
		File *gbx.RefTableFile
		Skip bool
	}{
		{"None", IncludeExclude{}, tree, false},
		{"Excluded", IncludeExclude{Exclude: []string{"Deco"}}, tree, true},
		{"NotExcluded", IncludeExclude{Exclude: []string{"Deco"}}, other, false},
		{"Included", IncludeExclude{Include: []string{"*.item.gbx"}}, tree, false},
		{"NotIncluded", IncludeExclude{Include: []string{"*.item.gbx"}}, other, true},
		{"Reincluded", IncludeExclude{Exclude: []string{"/Items"}, Include: []string{"Tree.Item.Gbx"}}, tree, false},
		{"ResourceNone", IncludeExclude{}, res, false},
		{"ResourceIncludeOnly", IncludeExclude{Include: []string{"Items"}}, res, true},
	} {
		t.Run(x.Name, func(t *testing.T) {
			skip, err := x.IE.Skip(x.File)
			require.NoError(t, err)
			assert.Equal(t, x.Skip, skip)
		})
	}

	_, err := IncludeExclude{Exclude: []string{"["}}.Skip(tree)
	assert.Error(t, err)
}

func testMapFile(t *testing.T, opts *gbx.Options) string {
	t.Helper()
	m := new(game.Challenge)
	m.HeaderChunks().Add(gbx.NewSkippableChunk(&game.ChallengeInfo{Version: 11, AuthorTime: 28000, Cost: 100}))
	m.Chunks().Add(&game.ChallengeKind{Kind: 6})

	var b bytes.Buffer
	require.NoError(t, gbx.Write(&b, gbx.NewFile(m), opts))

	p := filepath.Join(t.TempDir(), "Test.Map.Gbx")
	require.NoError(t, os.WriteFile(p, b.Bytes(), 0o600))
	require.NoError(t, os.Chmod(p, 0o640))
	return p
}

func readCost(t *testing.T, p string, opts *gbx.Options) uint32 {
	t.Helper()
	f, err := gbx.OpenFile(p, opts)
	require.NoError(t, err)
	info, ok := f.Node.(*game.Challenge).Info()
	require.True(t, ok)
	return info.Cost
}

func TestUpdateFile(t *testing.T) {
	opts := &gbx.Options{Registry: game.MustRegistry(), Codec: gbx.IdentityCodec}
	p := testMapFile(t, opts)
	orig, err := os.ReadFile(p)
	require.NoError(t, err)

	setCost := func(f *gbx.File) error {
		info, ok := f.Node.(*game.Challenge).Info()
		if !ok {
			return errors.New("no info")
		}
		info.Cost = 200
		return nil
	}

	require.NoError(t, UpdateFile(p, true, false, opts, setCost))
	buf, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, orig, buf, "dry run must not change the file")

	errFail := errors.New("fail")
	err = UpdateFile(p, false, false, opts, func(*gbx.File) error { return errFail })
	assert.ErrorIs(t, err, errFail)

	require.NoError(t, UpdateFile(p, false, false, opts, setCost))
	assert.Equal(t, uint32(200), readCost(t, p, opts))

	fi, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm())

	// no temp files left behind
	es, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, es, 1)

	require.NoError(t, UpdateFile(p, false, true, opts, func(f *gbx.File) error {
		k, ok := gbx.Typed[*game.ChallengeKind](f.Node.Chunks())
		if !ok {
			return errors.New("no kind")
		}
		k.Kind = 7
		return nil
	}))
	f, err := gbx.OpenFile(p, opts)
	require.NoError(t, err)
	k, ok := gbx.Typed[*game.ChallengeKind](f.Node.Chunks())
	require.True(t, ok)
	assert.Equal(t, uint32(7), k.Kind)
	assert.Equal(t, uint32(200), readCost(t, p, opts))
}

func TestUpdateFileMissing(t *testing.T) {
	err := UpdateFile(filepath.Join(t.TempDir(), "missing.Gbx"), false, false, nil, func(*gbx.File) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}
