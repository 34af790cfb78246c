package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEntryEncodeDecode(t *testing.T) {
	t.Parallel()

	in := &HashEntry{Size: 42, Mtime: time.Now().UnixNano(), Digest: digest.FromString("x").String()}
	data, err := in.Encode()
	require.NoError(t, err)

	var out HashEntry
	require.NoError(t, out.Decode(data))
	assert.Equal(t, *in, out)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	key := MakeKey("/home/pilot/Saved Games/DCS/Config/options.lua")
	path, ok := ParseKey(key)
	require.True(t, ok)
	assert.Equal(t, "/home/pilot/Saved Games/DCS/Config/options.lua", path)

	_, ok = ParseKey([]byte("v0\x00/old"))
	assert.False(t, ok, "keys of another version are foreign")
}

func TestHashCacheLookup(t *testing.T) {
	t.Parallel()

	c, err := Open(filepath.Join(t.TempDir(), "hashes"))
	require.NoError(t, err)
	defer c.Close()

	mod := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := digest.FromString("options")

	_, ok := c.Lookup("/a/options.lua", 7, mod)
	assert.False(t, ok, "empty cache")

	c.Store("/a/options.lua", 7, mod, d)

	got, ok := c.Lookup("/a/options.lua", 7, mod)
	require.True(t, ok, "pending entries are visible before Flush")
	assert.Equal(t, d, got)

	require.NoError(t, c.Flush())

	got, ok = c.Lookup("/a/options.lua", 7, mod)
	require.True(t, ok)
	assert.Equal(t, d, got)

	_, ok = c.Lookup("/a/options.lua", 8, mod)
	assert.False(t, ok, "size change invalidates")
	_, ok = c.Lookup("/a/options.lua", 7, mod.Add(time.Second))
	assert.False(t, ok, "mtime change invalidates")

	hits, misses := c.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 3, misses)
}

func TestHashCachePersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "hashes")
	mod := time.Unix(1700000000, 0)
	d := digest.FromString("persist")

	c, err := Open(dir)
	require.NoError(t, err)
	c.Store("/b/autoexec.cfg", 3, mod, d)
	require.NoError(t, c.Close())

	c, err = Open(dir)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Lookup("/b/autoexec.cfg", 3, mod)
	require.True(t, ok)
	assert.Equal(t, d, got)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHashCacheClear(t *testing.T) {
	t.Parallel()

	c, err := Open(filepath.Join(t.TempDir(), "hashes"))
	require.NoError(t, err)
	defer c.Close()

	mod := time.Unix(1700000000, 0)
	for _, p := range []string{"/x/1", "/x/2", "/y/3"} {
		c.Store(p, 1, mod, digest.FromString(p))
	}
	require.NoError(t, c.Flush())

	removed, err := c.store.DeletePrefix("/x/")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}
