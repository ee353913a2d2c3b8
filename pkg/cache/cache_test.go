package cache_test

import (
	"os"
	"testing"

	"github.com/homelang/homec/pkg/cache"
	"github.com/homelang/homec/pkg/util/assert"
)

func testKey() cache.Key {
	return cache.Key{
		SourceHash:      cache.SourceHash([]byte("fn main() {}")),
		ImportHashes:    []string{"b", "a"},
		CompilerVersion: "0.1.0",
		Target:          "x86_64-linux",
	}
}

func TestHashIsDeterministic(t *testing.T) {
	assert.Equal(t, testKey().Hash(), testKey().Hash())
}

func TestHashOrderIndependentOnImports(t *testing.T) {
	k1 := testKey()
	k2 := testKey()
	k2.ImportHashes = []string{"a", "b"}

	assert.Equal(t, k1.Hash(), k2.Hash())
}

func TestStoreThenLookupHits(t *testing.T) {
	dir := t.TempDir()

	c, err := cache.Open(dir)
	assert.Equal(t, nil, err)

	k := testKey()
	assert.Equal(t, nil, c.Store(k, []byte{0x7F, 'E', 'L', 'F'}))

	artifact, ok := c.Lookup(k)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x7F, 'E', 'L', 'F'}, artifact)
}

func TestLookupMissesWhenAbsent(t *testing.T) {
	dir := t.TempDir()

	c, err := cache.Open(dir)
	assert.Equal(t, nil, err)

	_, ok := c.Lookup(testKey())
	assert.False(t, ok)
}

func TestCorruptMetadataIsTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()

	c, err := cache.Open(dir)
	assert.Equal(t, nil, err)

	k := testKey()
	assert.Equal(t, nil, c.Store(k, []byte("artifact")))

	metaPath := dir + "/" + k.Hash() + ".meta"
	assert.Equal(t, nil, os.WriteFile(metaPath, []byte("not valid metadata"), 0o644))

	_, ok := c.Lookup(k)
	assert.False(t, ok)
}

func TestDifferentTargetsProduceDifferentKeys(t *testing.T) {
	k1 := testKey()
	k2 := testKey()
	k2.Target = "aarch64-linux"

	assert.True(t, k1.Hash() != k2.Hash())
}
