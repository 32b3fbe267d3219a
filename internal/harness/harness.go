package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing/fstest"

	"github.com/roach88/packc/internal/compiler"
	"github.com/roach88/packc/internal/config"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/session"
	"github.com/roach88/packc/internal/testutil"
	"github.com/roach88/packc/internal/vfs"
)

// Run compiles a scenario and evaluates its assertions.
//
// A compilation failure is not an error: it is recorded in the result and
// judged by the error assertions. Run returns an error only when the
// scenario itself cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	sess, err := newSession(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	res, compileErr := compiler.Compile(sess, scenario.Source)

	var tree *vfs.Tree
	if compileErr != nil {
		result.ErrorCode = errorCode(compileErr)
		result.Error = compileErr.Error()
		if !scenario.expectsFailure() {
			result.AddError(fmt.Sprintf("compilation failed: %v", compileErr))
		}
	} else {
		tree = res.Tree
		result.Files = tree.Files()
	}

	for _, msg := range EvaluateAssertions(result, tree, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newSession(s *Scenario) (*session.Session, error) {
	cfg := config.Defaults()
	o := s.Config
	if o.Namespace != "" {
		cfg.Namespace = o.Namespace
	}
	if o.RecursionLimit != nil {
		cfg.RecursionLimit = *o.RecursionLimit
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
	if o.Optimisation != "" {
		cfg.Optimisation = o.Optimisation
	}
	if o.Description != "" {
		cfg.Description = o.Description
	}
	if o.PackFormat != nil {
		cfg.PackFormat = *o.PackFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	sess := session.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	buildID := s.BuildID
	if buildID == "" {
		buildID = defaultBuildID
	}
	sess.NewID = testutil.Fixed(buildID)

	resources := fstest.MapFS{}
	for p, text := range s.Resources {
		resources[p] = &fstest.MapFile{Data: []byte(text)}
	}
	sess.Resources = resources
	return sess, nil
}

// errorCode extracts the diagnostic code from a compiler error.
func errorCode(err error) string {
	var se *diag.SyntaxError
	if errors.As(err, &se) {
		return se.Code
	}
	var ce *diag.ConversionError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return ""
}
