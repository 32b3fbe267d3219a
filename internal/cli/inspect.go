package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/compiler"
	"github.com/roach88/packc/internal/parser"
)

// NewASTCommand creates the ast command.
func NewASTCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "ast <source>",
		Short:         "Print the syntax tree of a program",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAST(rootOpts, args[0], cmd)
		},
	}
}

func runAST(opts *RootOptions, sourcePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeNotFound, err)
	}

	root, err := parser.Parse(string(data))
	if err != nil {
		return outputDiagnostic(formatter, sourcePath, string(data), err)
	}
	dump := ast.Dump(root)
	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"source": sourcePath, "ast": dump})
	}
	fmt.Fprintln(formatter.Writer, dump)
	return nil
}

// IROptions holds flags for the ir command.
type IROptions struct {
	*RootOptions
	Project ProjectFlags
}

// NewIRCommand creates the ir command.
func NewIRCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IROptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "ir <source>",
		Short: "Print the lowered intermediate representation of a program",
		Long: `Print the intermediate representation: every function with its
variables and fragments, before linking.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIR(opts, args[0], cmd)
		},
	}
	opts.Project.bind(cmd)
	return cmd
}

func runIR(opts *IROptions, sourcePath string, cmd *cobra.Command) error {
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

	dump := res.Module.Dump()
	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"source": sourcePath, "ir": dump})
	}
	fmt.Fprint(formatter.Writer, dump)
	return nil
}
