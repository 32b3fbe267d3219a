package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/packc/internal/codegen"
	"github.com/roach88/packc/internal/compiler"
	"github.com/roach88/packc/internal/output"
	"github.com/roach88/packc/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Project ProjectFlags
	Map     string // link map database path
	DryRun  bool   // compile without writing the pack
}

// BuildResult summarises a build.
type BuildResult struct {
	Target      string   `json:"target,omitempty"`
	BuildID     string   `json:"build_id"`
	Fingerprint string   `json:"fingerprint"`
	Files       int      `json:"files"`
	Functions   int      `json:"functions"`
	Recursion   []string `json:"recursion,omitempty"`
	Map         string   `json:"map,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <source>",
		Short: "Compile a program into a data pack",
		Long: `Compile a program into a data pack and write it to <output>/<name>.

The project file (packc.yaml, packc.toml or packc.cue) is searched for
upwards from the source file; flags override its values.

An existing pack folder is only replaced when it carries both pack.mcmeta
and generated.json. With --backup it is zipped first.

Examples:
  packc build main.packc
  packc build main.packc --namespace demo --recursion-limit 8
  packc build main.packc --map links.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.Project.bind(cmd)
	cmd.Flags().StringVar(&opts.Map, "map", "", "record the link map in this SQLite database")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compile and report without writing the pack")

	return cmd
}

func runBuild(ctx context.Context, opts *BuildOptions, sourcePath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	proj, err := loadProject(cmd, &opts.Project, sourcePath, logger)
	if err != nil {
		return outputProjectError(formatter, sourcePath, err)
	}
	sess := proj.Session

	res, err := compiler.Compile(sess, proj.Source)
	if err != nil {
		return outputDiagnostic(formatter, sourcePath, proj.Source, err)
	}

	id, _ := res.Tree.Lookup(codegen.MarkerFile)
	marker, err := codegen.ReadMarker(res.Tree.Data(id))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading generated marker", err)
	}

	result := BuildResult{
		BuildID:     marker.BuildID,
		Fingerprint: marker.Fingerprint,
		Files:       res.Tree.Len(),
		Functions:   len(res.Linker.Functions()),
	}
	for _, w := range res.Recursion {
		result.Recursion = append(result.Recursion, strings.Join(w.Path, " -> "))
	}

	if !opts.DryRun {
		target, err := output.Write(sess, res.Tree)
		if err != nil {
			if errors.Is(err, output.ErrUnsafeOverwrite) {
				_ = formatter.Error(ErrCodeUnsafeOverwrite, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeUnsafeOverwrite, err)
			}
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
		result.Target = target
	}

	if opts.Map != "" {
		if err := recordLinks(ctx, opts.Map, marker, res); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, ErrCodeDatabase, err)
		}
		result.Map = opts.Map
		formatter.VerboseLog("Recorded link map for build %s in %s", marker.BuildID, opts.Map)
	}

	return outputBuildSuccess(formatter, result)
}

func recordLinks(ctx context.Context, path string, marker codegen.Marker, res *compiler.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteLinks(ctx, marker.BuildID, marker.Fingerprint, res.Linker)
}

func outputBuildSuccess(formatter *OutputFormatter, result BuildResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Target != "" {
		fmt.Fprintf(w, "✓ Built %s\n", result.Target)
	} else {
		fmt.Fprintln(w, "✓ Compiled (dry run, nothing written)")
	}
	fmt.Fprintf(w, "  %d file(s), %d function path(s)\n", result.Files, result.Functions)
	fmt.Fprintf(w, "  build %s\n", result.BuildID)
	for _, r := range result.Recursion {
		fmt.Fprintf(w, "  recursion: %s\n", r)
	}
	if result.Map != "" {
		fmt.Fprintf(w, "  link map: %s\n", result.Map)
	}
	return nil
}
