package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/packc/internal/compiler"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Project ProjectFlags
}

// CheckResult summarises a successful check.
type CheckResult struct {
	Source    string   `json:"source"`
	Functions int      `json:"functions"`
	Globals   int      `json:"globals"`
	Includes  int      `json:"includes"`
	Recursion []string `json:"recursion,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <source>",
		Short: "Report the first error in a program without generating a pack",
		Long: `Parse and resolve a program and report the first syntax or
conversion error. Nothing is written.

Exit codes:
  0 - The program compiles
  1 - The program has an error
  2 - Command error (missing file, bad configuration)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	opts.Project.bind(cmd)
	return cmd
}

func runCheck(opts *CheckOptions, sourcePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	proj, err := loadProject(cmd, &opts.Project, sourcePath, logger)
	if err != nil {
		return outputProjectError(formatter, sourcePath, err)
	}

	res, err := compiler.Analyze(proj.Session, proj.Source)
	if err != nil {
		return outputDiagnostic(formatter, sourcePath, proj.Source, err)
	}

	result := CheckResult{
		Source:    sourcePath,
		Functions: len(res.Program.Functions),
		Globals:   len(res.Program.Globals),
		Includes:  len(res.Program.Includes),
	}
	for _, w := range res.Recursion {
		result.Recursion = append(result.Recursion, fmt.Sprintf("%s: %s", w.Level, strings.Join(w.Path, " -> ")))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s is valid\n", sourcePath)
	fmt.Fprintf(w, "  %d function(s), %d global(s), %d include(s)\n", result.Functions, result.Globals, result.Includes)
	for _, r := range result.Recursion {
		fmt.Fprintf(w, "  %s\n", r)
	}
	return nil
}
