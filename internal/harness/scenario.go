package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Source is the program text. Exactly one of Source and SourceFile is
	// set.
	Source string `yaml:"source,omitempty"`

	// SourceFile is a program file, relative to the scenario file.
	SourceFile string `yaml:"source_file,omitempty"`

	// Config overrides the default configuration.
	Config ConfigOverrides `yaml:"config,omitempty"`

	// BuildID is recorded in the generated marker. Defaults to
	// "scenario-build".
	BuildID string `yaml:"build_id,omitempty"`

	// Resources maps resource paths to contents for include statements.
	Resources map[string]string `yaml:"resources,omitempty"`

	// Assertions are checked against the compilation result.
	Assertions []Assertion `yaml:"assertions"`
}

// ConfigOverrides are the configuration keys a scenario may set. Unset
// fields keep their defaults.
type ConfigOverrides struct {
	Namespace      string `yaml:"namespace,omitempty"`
	RecursionLimit *int   `yaml:"recursion_limit,omitempty"`
	Debug          *bool  `yaml:"debug,omitempty"`
	Optimisation   string `yaml:"optimisation,omitempty"`
	Description    string `yaml:"description,omitempty"`
	PackFormat     *int   `yaml:"pack_format,omitempty"`
}

// Assertion checks one property of the result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path is a pack-relative path (file_exists, file_absent,
	// file_contains).
	Path string `yaml:"path,omitempty"`

	// Text is the expected substring (file_contains, error_contains).
	Text string `yaml:"text,omitempty"`

	// Prefix restricts file_count to files under a folder.
	Prefix string `yaml:"prefix,omitempty"`

	// Count is the expected number of files (file_count).
	Count int `yaml:"count,omitempty"`

	// Code is the expected diagnostic code (error_code).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertFileExists    = "file_exists"
	AssertFileAbsent    = "file_absent"
	AssertFileContains  = "file_contains"
	AssertFileCount     = "file_count"
	AssertErrorCode     = "error_code"
	AssertErrorContains = "error_contains"
)

const defaultBuildID = "scenario-build"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.SourceFile != "" {
		src := scenario.SourceFile
		if !filepath.IsAbs(src) {
			src = filepath.Join(filepath.Dir(path), src)
		}
		text, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: source file: %w", err)
		}
		scenario.SourceFile = src
		scenario.Source = string(text)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(s.Source) == "" && s.SourceFile == "" {
		return fmt.Errorf("source or source_file is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFileExists, AssertFileAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertFileContains:
		if a.Path == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: path and text are required for file_contains", index)
		}
	case AssertFileCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for file_count", index)
		}
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertErrorContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for error_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// expectsFailure reports whether the scenario asserts on a diagnostic.
func (s *Scenario) expectsFailure() bool {
	for _, a := range s.Assertions {
		if a.Type == AssertErrorCode || a.Type == AssertErrorContains {
			return true
		}
	}
	return false
}

// FindScenarios returns the .yaml and .yml files directly under dir,
// sorted. A path naming a single file is returned as is. A non-empty
// filter is a glob matched against the file name without its extension.
func FindScenarios(dir, filter string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}
