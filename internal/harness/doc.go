// Package harness runs compile scenarios: small YAML files that compile a
// program under a fixed configuration and assert on the generated pack or
// on the diagnostic the compiler reports.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario checks"
//	source: |
//	  def foo() { foo() }
//	  foo()
//	config:
//	  namespace: demo
//	  recursion_limit: 2
//	resources:
//	  loot/chest.json: '{"pools":[]}'
//	assertions:
//	  - type: file_exists
//	    path: data/demo/functions/foo_0/s2/main.mcfunction
//	  - type: file_contains
//	    path: data/demo/functions/foo_0/s2/main.mcfunction
//	    text: recursion limit of 2 reached
//
// source_file may replace source; it is resolved relative to the scenario
// file.
//
// # Assertion Types
//
//   - file_exists: the path is a generated file
//   - file_absent: nothing exists at the path
//   - file_contains: the file's text contains text
//   - file_count: exactly count files live under prefix (the whole pack
//     when prefix is empty)
//   - error_code: compilation failed with the diagnostic code
//   - error_contains: compilation failed and the message contains text
//
// A scenario without an error assertion fails when compilation fails.
//
// # Deterministic Testing
//
// Every scenario compiles with a fixed build identifier (build_id, or
// "scenario-build" when unset) and an in-memory resource tree, so the same
// scenario always yields the same pack. RunWithGolden snapshots the file
// listing as canonical JSON for goldie comparison.
package harness
