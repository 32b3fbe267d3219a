package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/packc/internal/canon"
)

// Snapshot is the part of a result compared against golden files.
type Snapshot struct {
	ScenarioName string
	Files        []string
	ErrorCode    string
}

// Canonical renders the snapshot as canonical JSON.
func (s Snapshot) Canonical() []byte {
	obj := canon.Obj(
		canon.P("scenario_name", canon.String(s.ScenarioName)),
		canon.P("files", canon.Strings(s.Files...)),
	)
	if s.ErrorCode != "" {
		obj["error_code"] = canon.String(s.ErrorCode)
	}
	return canon.MustMarshal(obj)
}

// RunWithGolden executes a scenario and compares its file listing against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the listing doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	snap := Snapshot{ScenarioName: scenarioName, Files: result.Files, ErrorCode: result.ErrorCode}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snap.Canonical())
}
