package compiler

import (
	"fmt"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/codegen"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/ir"
	"github.com/roach88/packc/internal/linker"
	"github.com/roach88/packc/internal/optimize"
	"github.com/roach88/packc/internal/parser"
	"github.com/roach88/packc/internal/sema"
	"github.com/roach88/packc/internal/session"
	"github.com/roach88/packc/internal/vfs"
)

// Version is the compiler version recorded in generated packs.
var Version = "dev"

// Result holds every product of a compilation. Analyze fills the first
// four fields; Compile fills all of them.
type Result struct {
	AST       *ast.Root
	Program   *sema.Program
	Module    *ir.Module
	Recursion []RecursionWarning

	Linker *linker.Linker
	Tree   *vfs.Tree
}

// Analyze parses, resolves and lowers source. It fails with the first
// *diag.SyntaxError or *diag.ConversionError.
func Analyze(sess *session.Session, source string) (*Result, error) {
	log := sess.Logger
	root, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	log.Info("parsed", "statements", len(root.Body.Stmts))

	prog, err := sema.Resolve(root)
	if err != nil {
		return nil, err
	}
	log.Info("resolved", "functions", len(prog.Functions), "globals", len(prog.Globals), "includes", len(prog.Includes))

	mod := Lower(prog, LowerOptions{
		Namespace: sess.Config.Namespace,
		Debug:     sess.Config.Debug,
		Tags:      sess.Tags,
		Logger:    log,
	})
	if errs := Validate(mod); len(errs) > 0 {
		diag.Internalf("lowered module violates %d invariant(s), first: %v", len(errs), errs[0])
	}
	warnings := AnalyzeRecursion(mod)
	for _, w := range warnings {
		log.Info("recursion", "path", w.Path, "level", w.Level, "recursion_limit", sess.Config.RecursionLimit)
	}
	log.Info("lowered", "functions", len(mod.Functions()), "constants", len(mod.Constants()))

	return &Result{AST: root, Program: prog, Module: mod, Recursion: warnings}, nil
}

// Compile runs the whole pipeline: parse, resolve, lower, link, generate,
// include and optimise.
func Compile(sess *session.Session, source string) (*Result, error) {
	level, err := optimize.ParseLevel(sess.Config.Optimisation)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	res, err := Analyze(sess, source)
	if err != nil {
		return nil, err
	}
	log := sess.Logger

	res.Linker = linker.Link(res.Module, sess.Config.RecursionLimit)
	log.Info("linked", "paths", len(res.Linker.Functions()), "variables", len(res.Linker.Variables()))

	tree := codegen.Generate(res.Linker, codegen.Options{
		Description: sess.Config.Description,
		PackFormat:  sess.Config.PackFormat,
		Version:     Version,
		BuildID:     sess.NewID(),
		Logger:      log,
	})
	for _, inc := range res.Program.Includes {
		if err := tree.Include(sess.Resources, inc.Resource, inc.Dest, inc.Span); err != nil {
			return nil, err
		}
		log.Debug("included", "resource", inc.Resource, "dest", inc.Dest)
	}

	res.Tree = optimize.Run(tree, level, log)
	return res, nil
}
