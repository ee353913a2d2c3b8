package cmd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/homelang/homec/pkg/cache"
	"github.com/homelang/homec/pkg/check"
	"github.com/homelang/homec/pkg/codegen"
	"github.com/homelang/homec/pkg/elf"
	"github.com/homelang/homec/pkg/ownership"
	"github.com/homelang/homec/pkg/parser"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/util/assert"
)

// These tests exercise the same pipeline pkg/cmd's build/check commands
// wire together, without invoking cobra itself (the cobra layer is a thin
// flag-parsing shell over these calls).

func TestFullPipelineBuildsELF(t *testing.T) {
	file := source.New("<test>", []byte(`fn main() { let x = 2 + 3 * 4; return; }`))
	prog, parseErrs := parser.Parse(file)
	assert.Equal(t, 0, len(parseErrs))

	checkErrs := check.Check(prog)
	assert.Equal(t, 0, len(checkErrs))

	ownErrs := ownership.Track(prog)
	assert.Equal(t, 0, len(ownErrs))

	buf, genErrs := codegen.Generate(prog)
	assert.Equal(t, 0, len(genErrs))

	img := elf.Write(buf.Code)
	assert.Equal(t, byte(0x7F), img[0])
}

func TestCacheRoundTripsBuildArtifact(t *testing.T) {
	dir := t.TempDir()

	src := []byte(`fn main() { let x = 1; return; }`)
	c, err := cache.Open(dir)
	assert.Equal(t, nil, err)

	key := cache.Key{SourceHash: cache.SourceHash(src), CompilerVersion: "0.1.0", Target: "x86_64-linux"}

	_, hit := c.Lookup(key)
	assert.False(t, hit)

	assert.Equal(t, nil, c.Store(key, []byte{0x7F, 'E', 'L', 'F'}))

	artifact, hit := c.Lookup(key)
	assert.True(t, hit)
	assert.Equal(t, byte(0x7F), artifact[0])

	out := filepath.Join(dir, "a.out")
	assert.Equal(t, nil, os.WriteFile(out, artifact, 0o755))
}
