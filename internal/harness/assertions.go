package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/packc/internal/vfs"
)

// AssertionError is returned when an assertion fails.
// It includes the generated listing to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Files    []string // Generated files, empty after a failed compilation
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Files) > 0 {
		fmt.Fprintf(&buf, "\nGenerated files:\n")
		for _, f := range e.Files {
			fmt.Fprintf(&buf, "  %s\n", f)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. tree is nil when compilation failed.
func EvaluateAssertions(result *Result, tree *vfs.Tree, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, tree, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return failures
}

func evaluate(result *Result, tree *vfs.Tree, a Assertion) error {
	switch a.Type {
	case AssertErrorCode:
		return assertErrorCode(result, a)
	case AssertErrorContains:
		return assertErrorContains(result, a)
	}
	if tree == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a generated pack",
			Actual:   "compilation failed: " + result.Error,
		}
	}
	switch a.Type {
	case AssertFileExists:
		return assertFileExists(tree, a)
	case AssertFileAbsent:
		return assertFileAbsent(tree, a)
	case AssertFileContains:
		return assertFileContains(tree, a)
	case AssertFileCount:
		return assertFileCount(result.Files, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertFileExists(tree *vfs.Tree, a Assertion) error {
	id, ok := tree.Lookup(a.Path)
	if ok && tree.Kind(id) != vfs.Folder {
		return nil
	}
	actual := "not found"
	if ok {
		actual = "is a folder"
	}
	return &AssertionError{Type: a.Type, Expected: "file " + a.Path, Actual: actual, Files: tree.Files()}
}

func assertFileAbsent(tree *vfs.Tree, a Assertion) error {
	if _, ok := tree.Lookup(a.Path); !ok {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: "nothing at " + a.Path, Actual: "present", Files: tree.Files()}
}

func assertFileContains(tree *vfs.Tree, a Assertion) error {
	id, ok := tree.Lookup(a.Path)
	if !ok || tree.Kind(id) == vfs.Folder {
		return &AssertionError{Type: a.Type, Expected: "file " + a.Path, Actual: "not found", Files: tree.Files()}
	}
	text := string(tree.Data(id))
	if strings.Contains(text, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s containing %q", a.Path, a.Text),
		Actual:   text,
	}
}

func assertFileCount(files []string, a Assertion) error {
	prefix := strings.TrimSuffix(a.Prefix, "/")
	count := 0
	for _, f := range files {
		if prefix == "" || strings.HasPrefix(f, prefix+"/") {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	where := "in the pack"
	if prefix != "" {
		where = "under " + prefix
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d files %s", a.Count, where),
		Actual:   fmt.Sprintf("%d files", count),
		Files:    files,
	}
}

func assertErrorCode(result *Result, a Assertion) error {
	if result.ErrorCode == a.Code {
		return nil
	}
	actual := "compilation succeeded"
	if result.Error != "" {
		actual = fmt.Sprintf("%s (%s)", result.ErrorCode, result.Error)
	}
	return &AssertionError{Type: a.Type, Expected: "error " + a.Code, Actual: actual, Files: result.Files}
}

func assertErrorContains(result *Result, a Assertion) error {
	if result.Error != "" && strings.Contains(result.Error, a.Text) {
		return nil
	}
	actual := "compilation succeeded"
	if result.Error != "" {
		actual = result.Error
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("error containing %q", a.Text), Actual: actual, Files: result.Files}
}
