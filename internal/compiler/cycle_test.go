package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyzeRecursion_None tests that a program without calls produces no warnings.
func TestAnalyzeRecursion_None(t *testing.T) {
	mod := lower(t, "var x: int = 1", false)
	assert.Empty(t, AnalyzeRecursion(mod))
}

// TestAnalyzeRecursion_DAG tests that a call chain without back edges produces no warnings.
func TestAnalyzeRecursion_DAG(t *testing.T) {
	mod := lower(t, `
def c() {}
def b() { c() }
def a() { b()
	c() }
a()
`, false)
	assert.Empty(t, AnalyzeRecursion(mod), "acyclic calls should not warn")
}

// TestAnalyzeRecursion_SelfCall tests direct recursion.
func TestAnalyzeRecursion_SelfCall(t *testing.T) {
	mod := lower(t, "def foo() { foo() }\nfoo()", false)
	warnings := AnalyzeRecursion(mod)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"foo_0", "foo_0"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "calls itself")
}

// TestAnalyzeRecursion_Mutual tests a two-function cycle reached through a branch.
func TestAnalyzeRecursion_Mutual(t *testing.T) {
	mod := lower(t, `
def ping(n: int) {
	if n > 0 {
		pong(n - 1)
	}
}
def pong(n: int) { ping(n) }
`, false)
	warnings := AnalyzeRecursion(mod)
	require.Len(t, warnings, 1)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Equal(t, []string{"ping_0", "pong_1", "ping_0"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "mutually recursive")
}

// TestAnalyzeRecursion_Deterministic tests that repeated analysis gives identical output.
func TestAnalyzeRecursion_Deterministic(t *testing.T) {
	src := `
def b() { a() }
def a() { b() }
def z() { z() }
`
	first := AnalyzeRecursion(lower(t, src, false))
	for range 5 {
		assert.Equal(t, first, AnalyzeRecursion(lower(t, src, false)))
	}
	require.Len(t, first, 2)
	assert.Equal(t, []string{"a_1", "b_0", "a_1"}, first[0].Path)
	assert.Equal(t, []string{"z_2", "z_2"}, first[1].Path)
}

func TestReconstructCyclePath(t *testing.T) {
	graph := callGraph{
		"a": {"b"},
		"b": {"c"},
		"c": {"a", "b"},
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, reconstructCyclePath([]string{"a", "b", "c"}, graph))
	assert.Empty(t, reconstructCyclePath(nil, graph))
}
