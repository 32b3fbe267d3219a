package codegen_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packc/internal/codegen"
	"github.com/roach88/packc/internal/compiler"
	"github.com/roach88/packc/internal/linker"
	"github.com/roach88/packc/internal/parser"
	"github.com/roach88/packc/internal/sema"
	"github.com/roach88/packc/internal/session"
	"github.com/roach88/packc/internal/vfs"
)

func link(t *testing.T, src string, limit int) *linker.Linker {
	t.Helper()
	root, err := parser.Parse(src)
	require.NoError(t, err)
	prog, err := sema.Resolve(root)
	require.NoError(t, err)
	mod := compiler.Lower(prog, compiler.LowerOptions{Namespace: "test", Tags: session.NewTagIssuer("test")})
	return linker.Link(mod, limit)
}

func generate(t *testing.T, src string, limit int) *vfs.Tree {
	t.Helper()
	return codegen.Generate(link(t, src, limit), codegen.Options{
		Description: "Generated by packc",
		Version:     "test",
		BuildID:     "build-1",
	})
}

// dump renders every file except the marker, whose fingerprint is checked
// separately.
func dump(tree *vfs.Tree) []byte {
	var b bytes.Buffer
	for _, p := range tree.Files() {
		if p == codegen.MarkerFile {
			continue
		}
		id, _ := tree.Lookup(p)
		data := tree.Data(id)
		fmt.Fprintf(&b, "--- %s\n", p)
		b.Write(data)
		if len(data) == 0 || data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}

func TestGenerateGolden(t *testing.T) {
	tree := generate(t, "var foo: int = 3 + 4\nprint(\"foo is\", foo)", 1)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "globals", dump(tree))
}

func TestGenerateMarker(t *testing.T) {
	src := "def f(n: int) -> int { return n * 2 }\nprint(f(4))"
	a := generate(t, src, 3)
	b := generate(t, src, 3)

	read := func(tree *vfs.Tree) codegen.Marker {
		id, ok := tree.Lookup(codegen.MarkerFile)
		require.True(t, ok)
		m, err := codegen.ReadMarker(tree.Data(id))
		require.NoError(t, err)
		return m
	}
	ma, mb := read(a), read(b)
	assert.Equal(t, ma, mb, "generation is deterministic")
	assert.Equal(t, "build-1", ma.BuildID)
	assert.Equal(t, "packc test", ma.Compiler)
	assert.Len(t, ma.Fingerprint, 64)

	c := generate(t, "def f(n: int) -> int { return n * 3 }\nprint(f(4))", 3)
	assert.NotEqual(t, ma.Fingerprint, read(c).Fingerprint, "content changes the fingerprint")
}

func TestGenerateDepthFiles(t *testing.T) {
	tree := generate(t, "def f() {\n\tif true {\n\t\tf()\n\t}\n}", 2)
	for _, p := range []string{
		"data/test/functions/f_0/s0/main.mcfunction",
		"data/test/functions/f_0/s0/if0.mcfunction",
		"data/test/functions/f_0/s1/main.mcfunction",
		"data/test/functions/f_0/s1/if0.mcfunction",
		"data/test/functions/f_0/s2/main.mcfunction",
		"data/test/functions/sys/error.mcfunction",
	} {
		_, ok := tree.Lookup(p)
		assert.True(t, ok, p)
	}
	_, ok := tree.Lookup("data/test/functions/f_0/s2/if0.mcfunction")
	assert.False(t, ok, "the limit depth only holds the overflow stub")

	id, _ := tree.Lookup("data/test/functions/f_0/s2/main.mcfunction")
	assert.Equal(t, []string{
		`tellraw @a {"color":"red","text":"[test] recursion limit of 2 reached in f"}`,
		"function test:sys/error",
	}, tree.Lines(id))
}

func TestReadMarkerErrors(t *testing.T) {
	_, err := codegen.ReadMarker([]byte("not json"))
	assert.Error(t, err)
	_, err = codegen.ReadMarker([]byte(`{"build_id":"x"}`))
	assert.ErrorContains(t, err, "missing fingerprint")
}
