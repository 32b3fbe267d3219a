// Package config loads and validates packc project configuration.
//
// Values come from built-in defaults, then a project file (packc.yaml,
// packc.toml or packc.cue), then command-line flags. The merged result is
// checked against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource []byte

// Error codes.
const (
	ErrCodeRead    = "E001" // project file unreadable
	ErrCodeParse   = "E002" // project file malformed
	ErrCodeSchema  = "E003" // configuration violates the schema
	ErrCodeUnknown = "E004" // unsupported project file type
)

// FileNames are the project files FindAndLoad looks for, in priority
// order.
var FileNames = []string{"packc.yaml", "packc.yml", "packc.toml", "packc.cue"}

// Config is the read-only configuration of one compilation.
type Config struct {
	Name           string `yaml:"name" toml:"name" json:"name"`
	Namespace      string `yaml:"namespace" toml:"namespace" json:"namespace"`
	RecursionLimit int    `yaml:"recursion_limit" toml:"recursion_limit" json:"recursion_limit"`
	Debug          bool   `yaml:"debug" toml:"debug" json:"debug"`
	Optimisation   string `yaml:"optimisation" toml:"optimisation" json:"optimisation"`
	Backup         bool   `yaml:"backup" toml:"backup" json:"backup"`
	OutputDir      string `yaml:"output_dir" toml:"output_dir" json:"output_dir"`
	IncludeDir     string `yaml:"include_dir" toml:"include_dir" json:"include_dir"`
	Description    string `yaml:"description" toml:"description" json:"description"`
	PackFormat     int    `yaml:"pack_format" toml:"pack_format" json:"pack_format"`

	// File is the project file the configuration was loaded from (set at
	// load time).
	File string `yaml:"-" toml:"-" json:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Name:           "pack",
		Namespace:      "pack",
		RecursionLimit: 32,
		Optimisation:   "none",
		OutputDir:      ".",
		IncludeDir:     ".",
		Description:    "Generated by packc",
		PackFormat:     15,
	}
}

// Error is a configuration failure.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads the project file at path over the defaults and validates
// the result. Relative directories are resolved against the file's
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("parse error in %s: %v", path, err)}
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("parse error in %s: %v", path, err)}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("unknown field %q in %s", undecoded[0].String(), path)}
		}
	case ".cue":
		if err := decodeCUE(path, data, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, &Error{Code: ErrCodeUnknown, Message: fmt.Sprintf("unsupported project file %s", path)}
	}

	cfg.File, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	dir := filepath.Dir(cfg.File)
	cfg.OutputDir = resolve(dir, cfg.OutputDir)
	cfg.IncludeDir = resolve(dir, cfg.IncludeDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// FindAndLoad walks up from startDir to find a project file, then loads
// and returns it. Returns nil if no project file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// decodeCUE checks a CUE project file against the schema, without
// requiring every field, and decodes it over cfg.
func decodeCUE(path string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	schema := compileSchema(ctx)
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return formatCUEError(ErrCodeParse, err)
	}
	if err := schema.Unify(v).Validate(); err != nil {
		return formatCUEError(ErrCodeSchema, err)
	}
	if err := v.Decode(cfg); err != nil {
		return formatCUEError(ErrCodeParse, err)
	}
	return nil
}

func compileSchema(ctx *cue.Context) cue.Value {
	v := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		panic(fmt.Sprintf("config: embedded schema does not compile: %v", err))
	}
	return v.LookupPath(cue.ParsePath("#Config"))
}

// Validate unifies the configuration with the embedded schema and
// requires every field to be concrete.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := compileSchema(ctx)
	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(ErrCodeSchema, err)
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Message: err.Error()}
	}

	// Report the first error, with its position when it has one
	first := errs[0]
	e := &Error{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
