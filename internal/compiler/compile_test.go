package compiler

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packc/internal/codegen"
	"github.com/roach88/packc/internal/config"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/session"
	"github.com/roach88/packc/internal/vfs"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	cfg := config.Defaults()
	cfg.Namespace = "test"
	cfg.RecursionLimit = 2
	sess := session.New(cfg, nil)
	sess.NewID = func() string { return "00000000-0000-0000-0000-000000000000" }
	sess.Resources = fstest.MapFS{}
	return sess
}

func fileText(t *testing.T, tree *vfs.Tree, p string) string {
	t.Helper()
	id, ok := tree.Lookup(p)
	require.True(t, ok, "missing %s in\n%s", p, tree.Listing())
	return string(tree.Data(id))
}

func TestAnalyzeStopsBeforeLinking(t *testing.T) {
	res, err := Analyze(testSession(t), "42")
	require.NoError(t, err)
	assert.NotNil(t, res.AST)
	assert.NotNil(t, res.Program)
	assert.NotNil(t, res.Module)
	assert.Nil(t, res.Linker)
	assert.Nil(t, res.Tree)
}

func TestCompileReturnOutsideFunction(t *testing.T) {
	_, err := Compile(testSession(t), "return 5")
	var ce *diag.ConversionError
	require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
	assert.Equal(t, diag.ErrReturnOutside, ce.Code)
	assert.Equal(t, 1, ce.Span.Start.Line)
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := Compile(testSession(t), "var x: int = ")
	var se *diag.SyntaxError
	assert.True(t, errors.As(err, &se), "got %T: %v", err, err)
}

func TestCompileRecursionDepths(t *testing.T) {
	res, err := Compile(testSession(t), "def foo(){ foo() }\nfoo()")
	require.NoError(t, err)
	tree := res.Tree

	d0 := fileText(t, tree, "data/test/functions/foo_0/s0/main.mcfunction")
	assert.Contains(t, d0, "run function test:foo_0/s1/main")
	d1 := fileText(t, tree, "data/test/functions/foo_0/s1/main.mcfunction")
	assert.Contains(t, d1, "run function test:foo_0/s2/main")

	d2 := fileText(t, tree, "data/test/functions/foo_0/s2/main.mcfunction")
	assert.Contains(t, d2, "recursion limit of 2 reached in foo")
	assert.Contains(t, d2, "function test:sys/error")
	assert.NotContains(t, d2, "foo_0/s3")

	_, ok := tree.Lookup("data/test/functions/foo_0/s3")
	assert.False(t, ok, "no depth beyond the limit")

	load := fileText(t, tree, "data/test/functions/load.mcfunction")
	assert.Contains(t, load, "run function test:foo_0/s0/main")

	require.Len(t, res.Recursion, 1)
	assert.Equal(t, []string{"foo_0", "foo_0"}, res.Recursion[0].Path)
}

func TestCompileLayout(t *testing.T) {
	res, err := Compile(testSession(t), "var foo: int = 3 + 4")
	require.NoError(t, err)
	files := res.Tree.Files()
	require.GreaterOrEqual(t, len(files), 4)
	assert.Equal(t, []string{
		codegen.MetaFile,
		codegen.MarkerFile,
		"data/minecraft/tags/functions/load.json",
		"data/minecraft/tags/functions/tick.json",
	}, files[:4])

	tags := fileText(t, res.Tree, "data/minecraft/tags/functions/load.json")
	assert.Equal(t, `{"values":["test:import","test:setup","test:load"]}`, tags)

	m, err := codegen.ReadMarker([]byte(fileText(t, res.Tree, codegen.MarkerFile)))
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", m.BuildID)
	assert.Equal(t, "test", m.Namespace)
	assert.Equal(t, "packc "+Version, m.Compiler)
}

func TestCompileIsDeterministic(t *testing.T) {
	src := `
var total: int = 0
def add(n: int) -> int { return total + n }
@tick
def step() { total = add(1) }
`
	first, err := Compile(testSession(t), src)
	require.NoError(t, err)
	second, err := Compile(testSession(t), src)
	require.NoError(t, err)

	require.Equal(t, first.Tree.Files(), second.Tree.Files())
	for _, p := range first.Tree.Files() {
		assert.Equal(t, fileText(t, first.Tree, p), fileText(t, second.Tree, p), p)
	}
}

func TestCompileIncludes(t *testing.T) {
	sess := testSession(t)
	sess.Resources = fstest.MapFS{
		"loot/chest.json":         {Data: []byte(`{"pools":[]}`)},
		"loot/nested/barrel.json": {Data: []byte(`{}`)},
	}
	res, err := Compile(sess, `include "loot" -> "data/test/loot_tables"`)
	require.NoError(t, err)
	assert.Equal(t, `{"pools":[]}`, fileText(t, res.Tree, "data/test/loot_tables/loot/chest.json"))
	assert.Equal(t, `{}`, fileText(t, res.Tree, "data/test/loot_tables/loot/nested/barrel.json"))
}

func TestCompileIncludeClash(t *testing.T) {
	sess := testSession(t)
	sess.Resources = fstest.MapFS{
		"a/loot.json": {Data: []byte(`{"a":1}`)},
		"b/loot.json": {Data: []byte(`{"b":1}`)},
	}
	_, err := Compile(sess, `
include "a/loot.json" -> "data/test/tables"
include "b/loot.json" -> "data/test/tables"
`)
	var ce *diag.ConversionError
	require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
	assert.Equal(t, diag.ErrIncludeClash, ce.Code)
	assert.Contains(t, ce.Message, "path clash")
	assert.Equal(t, 3, ce.Span.Start.Line)
}

func TestCompileIncludeMissing(t *testing.T) {
	_, err := Compile(testSession(t), `include "nothing" -> "data"`)
	var ce *diag.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, diag.ErrIncludeMissing, ce.Code)
}

func TestCompileRejectsUnknownOptimisation(t *testing.T) {
	sess := testSession(t)
	sess.Config.Optimisation = "fast"
	_, err := Compile(sess, "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fast")
}

func TestCompileSelfAssignmentKeepsValue(t *testing.T) {
	res, err := Compile(testSession(t), "var x: int = 5\nx = x\nprint(x)")
	require.NoError(t, err)
	load := fileText(t, res.Tree, "data/test/functions/load.mcfunction")
	assert.Contains(t, load, "scoreboard players set $load.x test.g 5")
	assert.NotContains(t, load, "scoreboard players reset $load.x test.g")
}
