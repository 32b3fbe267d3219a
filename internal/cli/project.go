package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/packc/internal/config"
	"github.com/roach88/packc/internal/session"
)

// ProjectFlags are the configuration keys that can be overridden on the
// command line. Only flags the user set take effect.
type ProjectFlags struct {
	ConfigFile     string
	Name           string
	Namespace      string
	RecursionLimit int
	Debug          bool
	Optimisation   string
	Backup         bool
	OutputDir      string
	IncludeDir     string
}

// bind registers the flags on cmd.
func (p *ProjectFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&p.ConfigFile, "config", "c", "", "project file (default: search upwards from the source)")
	f.StringVar(&p.Name, "name", "", "pack name")
	f.StringVarP(&p.Namespace, "namespace", "n", "", "function namespace")
	f.IntVar(&p.RecursionLimit, "recursion-limit", 0, "maximum call depth")
	f.BoolVar(&p.Debug, "debug", false, "emit tick overrun detection")
	f.StringVarP(&p.Optimisation, "optimisation", "O", "", "optimisation level (none|O1|O2|O3)")
	f.BoolVar(&p.Backup, "backup", false, "zip an existing pack before replacing it")
	f.StringVarP(&p.OutputDir, "output", "o", "", "directory the pack folder is created in")
	f.StringVar(&p.IncludeDir, "include-dir", "", "directory include paths are resolved against")
}

// apply copies the flags the user set over cfg.
func (p *ProjectFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("name") {
		cfg.Name = p.Name
	}
	if f.Changed("namespace") {
		cfg.Namespace = p.Namespace
	}
	if f.Changed("recursion-limit") {
		cfg.RecursionLimit = p.RecursionLimit
	}
	if f.Changed("debug") {
		cfg.Debug = p.Debug
	}
	if f.Changed("optimisation") {
		cfg.Optimisation = p.Optimisation
	}
	if f.Changed("backup") {
		cfg.Backup = p.Backup
	}
	if f.Changed("output") {
		cfg.OutputDir = p.OutputDir
	}
	if f.Changed("include-dir") {
		cfg.IncludeDir = p.IncludeDir
	}
}

// Project is a loaded source file with its session.
type Project struct {
	SourcePath string
	Source     string
	Session    *session.Session
}

// loadProject reads the source file, finds and loads its project
// configuration, applies the flag overrides and validates the result.
//
// Without a project file the defaults are used and include paths resolve
// against the source file's directory.
func loadProject(cmd *cobra.Command, flags *ProjectFlags, sourcePath string, logger *slog.Logger) (*Project, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source file not found: %s", errNotFound, sourcePath)
		}
		return nil, fmt.Errorf("%w: reading source: %v", errNotFound, err)
	}

	var loaded *config.Config
	if flags.ConfigFile != "" {
		loaded, err = config.Load(flags.ConfigFile)
	} else {
		loaded, err = config.FindAndLoad(filepath.Dir(sourcePath))
	}
	if err != nil {
		return nil, err
	}
	cfg := config.Defaults()
	if loaded != nil {
		cfg = *loaded
		logger.Debug("project file", "path", cfg.File)
	} else {
		cfg.IncludeDir = filepath.Dir(sourcePath)
	}

	flags.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Project{
		SourcePath: sourcePath,
		Source:     string(data),
		Session:    session.New(cfg, logger),
	}, nil
}

var errNotFound = errors.New("not found")

// outputProjectError reports a failure of loadProject.
func outputProjectError(formatter *OutputFormatter, sourcePath string, err error) error {
	if errors.Is(err, errNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeNotFound, err)
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return outputDiagnostic(formatter, sourcePath, "", err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
}
