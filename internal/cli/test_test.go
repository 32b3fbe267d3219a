package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: passing
description: "load computes the global"
source: |
  var foo: int = 3 + 4
config:
  namespace: demo
assertions:
  - type: file_contains
    path: data/demo/functions/load.mcfunction
    text: "scoreboard players add $load.#0 demo.g 4"
`

const failingScenario = `name: failing
description: "expects an error that never happens"
source: "var foo: int = 1"
assertions:
  - type: error_code
    code: E301
`

func TestTest_AllPass(t *testing.T) {
	dir := writeFiles(t, map[string]string{"passing.yaml": passingScenario})
	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ passing")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_Failure(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"passing.yaml": passingScenario,
		"failing.yaml": failingScenario,
	})
	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "compilation succeeded")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTest_JSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"passing.yaml": passingScenario,
		"failing.yaml": failingScenario,
	})
	out, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 2, data["total"])
	assert.EqualValues(t, 1, data["passed"])
}

func TestTest_Filter(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"passing.yaml": passingScenario,
		"failing.yaml": failingScenario,
	})
	out, err := execute(t, "test", dir, "--filter", "pass*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_MissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_LoadError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.yaml": "name: broken\nflow: []\n"})
	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_Golden(t *testing.T) {
	dir := writeFiles(t, map[string]string{"passing.yaml": passingScenario})

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	golden := filepath.Join(dir, "golden", "passing.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"passing"`)
	assert.Contains(t, string(data), "data/demo/functions/load.mcfunction")

	_, err = execute(t, "test", dir)
	require.NoError(t, err, "matches the golden file it just wrote")

	require.NoError(t, os.WriteFile(golden, []byte(`{"files":[],"scenario_name":"passing"}`), 0o644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "a.golden"), goldenFilePath(filepath.Join("s", "a.yaml")))
}
