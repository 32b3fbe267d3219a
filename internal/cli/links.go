package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/packc/internal/linker"
	"github.com/roach88/packc/internal/store"
)

// LinksOptions holds flags for the links command.
type LinksOptions struct {
	*RootOptions
	Build  string // build ID (default: latest)
	Path   string // resolve a function resource location
	Holder string // resolve a score holder
}

// LinksResult is the output of the links command.
type LinksResult struct {
	Build     store.Build         `json:"build"`
	Functions []linker.Entry      `json:"functions,omitempty"`
	Variables []store.VariableRow `json:"variables,omitempty"`
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "links <map.db>",
		Short: "Query a link map recorded by build --map",
		Long: `Query the link map of a recorded build: which function and depth a
generated path belongs to, and which variable a score holder stores.

Without --path or --holder the whole table is listed.

Examples:
  packc links links.db
  packc links links.db --path demo:foo_0/s1/main
  packc links links.db --holder '$foo_0.n' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Build, "build", "", "build ID (default: latest)")
	cmd.Flags().StringVar(&opts.Path, "path", "", "resolve a function path")
	cmd.Flags().StringVar(&opts.Holder, "holder", "", "resolve a score holder")

	return cmd
}

func runLinks(ctx context.Context, opts *LinksOptions, dbPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	// store.Open would create a missing database
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath), nil)
		return WrapExitError(ExitCommandError, ErrCodeNotFound, err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result, err := queryLinks(ctx, st, opts)
	if err != nil {
		code := ErrCodeDatabase
		if errors.Is(err, store.ErrNotFound) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, code, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputLinksText(formatter, result)
}

func queryLinks(ctx context.Context, st *store.Store, opts *LinksOptions) (*LinksResult, error) {
	var build store.Build
	if opts.Build == "" {
		b, err := st.LatestBuild(ctx)
		if err != nil {
			return nil, err
		}
		build = b
	} else {
		build.ID = opts.Build
	}
	result := &LinksResult{Build: build}

	switch {
	case opts.Path != "":
		e, err := st.LookupPath(ctx, build.ID, opts.Path)
		if err != nil {
			return nil, err
		}
		result.Functions = []linker.Entry{e}
	case opts.Holder != "":
		v, err := st.LookupHolder(ctx, build.ID, opts.Holder)
		if err != nil {
			return nil, err
		}
		result.Variables = []store.VariableRow{v}
	default:
		fns, err := st.Functions(ctx, build.ID)
		if err != nil {
			return nil, err
		}
		vars, err := st.Variables(ctx, build.ID)
		if err != nil {
			return nil, err
		}
		if len(fns) == 0 {
			return nil, fmt.Errorf("build %s: %w", build.ID, store.ErrNotFound)
		}
		result.Functions, result.Variables = fns, vars
	}
	return result, nil
}

func outputLinksText(formatter *OutputFormatter, result *LinksResult) error {
	w := formatter.Writer
	fmt.Fprintf(w, "Build: %s\n", result.Build.ID)
	if result.Build.Namespace != "" {
		fmt.Fprintf(w, "Namespace: %s (recursion limit %d)\n", result.Build.Namespace, result.Build.RecursionLimit)
	}

	if len(result.Functions) > 0 {
		fmt.Fprintln(w, "\nFunctions:")
		for _, e := range result.Functions {
			depth := fmt.Sprintf("depth %d", e.Depth)
			if e.Depth == linker.SyntheticDepth {
				depth = "synthetic"
			}
			fmt.Fprintf(w, "  %-40s %s (%s)\n", e.Path, e.Function, depth)
		}
	}
	if len(result.Variables) > 0 {
		fmt.Fprintln(w, "\nVariables:")
		for _, v := range result.Variables {
			fmt.Fprintf(w, "  %-24s %s.%s [%s, %s]\n", v.Holder, v.Function, v.Name, v.Kind, v.LocationKind)
		}
	}
	return nil
}
