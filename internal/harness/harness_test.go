package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata/scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"globals", "recursion", "include", "debug_tick", "return_outside", "unknown_decorator"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(load(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_RecordsCompileFailure(t *testing.T) {
	result, err := Run(load(t, "return_outside"))
	require.NoError(t, err)
	assert.Equal(t, "E301", result.ErrorCode)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.Files)
}

func TestRun_UnexpectedFailureFails(t *testing.T) {
	result, err := Run(&Scenario{
		Name:       "broken",
		Source:     "var x: int = ",
		Assertions: []Assertion{{Type: AssertFileCount, Count: 9}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "compilation failed")
	assert.Contains(t, result.Errors[1], "a generated pack")
}

func TestRun_FailingAssertions(t *testing.T) {
	result, err := Run(&Scenario{
		Name:   "wrong",
		Source: "var foo: int = 1",
		Assertions: []Assertion{
			{Type: AssertFileExists, Path: "data/pack/functions/missing.mcfunction"},
			{Type: AssertFileExists, Path: "data/pack/functions"},
			{Type: AssertFileAbsent, Path: "pack.mcmeta"},
			{Type: AssertFileContains, Path: "pack.mcmeta", Text: "nope"},
			{Type: AssertFileCount, Count: 1},
			{Type: AssertErrorCode, Code: "E301"},
			{Type: AssertErrorContains, Text: "boom"},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "not found")
	assert.Contains(t, result.Errors[1], "is a folder")
	assert.Contains(t, result.Errors[2], "present")
	assert.Contains(t, result.Errors[3], `containing "nope"`)
	assert.Contains(t, result.Errors[4], "1 files in the pack")
	assert.Contains(t, result.Errors[5], "compilation succeeded")
	assert.Contains(t, result.Errors[6], "compilation succeeded")
}

func TestRun_WrongErrorCode(t *testing.T) {
	result, err := Run(&Scenario{
		Name:       "wrong_code",
		Source:     "return 5",
		Assertions: []Assertion{{Type: AssertErrorCode, Code: "E201"}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "E301")
}

func TestRun_InvalidConfig(t *testing.T) {
	zero := 0
	_, err := Run(&Scenario{
		Name:       "zero_limit",
		Source:     "42",
		Config:     ConfigOverrides{RecursionLimit: &zero},
		Assertions: []Assertion{{Type: AssertFileCount}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero_limit")
}

func TestRun_IsDeterministic(t *testing.T) {
	s := load(t, "recursion")
	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "file_exists", Expected: "file a", Actual: "not found", Files: []string{"b"}}
	assert.Equal(t, "Assertion failed: file_exists\n  Expected: file a\n  Actual: not found\n\nGenerated files:\n  b\n", err.Error())
}

func TestFindScenarios(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{
		"debug_tick.yaml", "globals.yaml", "include.yaml",
		"recursion.yaml", "return_outside.yaml", "unknown_decorator.yaml",
	}, names)

	filtered, err := FindScenarios("testdata/scenarios", "re*")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	single, err := FindScenarios("testdata/invalid/typo.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/invalid/typo.yaml"}, single)

	_, err = FindScenarios("testdata/absent", "")
	assert.Error(t, err)

	_, err = FindScenarios("testdata/scenarios", "[")
	assert.ErrorContains(t, err, "invalid filter pattern")
}
