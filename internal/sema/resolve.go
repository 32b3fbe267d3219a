// Package sema resolves a syntax tree into a typed Program: names are bound
// to declarations, expressions are typed, integer operands feeding float
// arithmetic are promoted and call defaults are expanded.
//
// Resolution is fail-fast; the first ConversionError aborts the pass.
package sema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/span"
)

// Decorators recognised on function declarations.
const (
	DecoratorTick = "tick"
	DecoratorLoad = "load"
)

var knownDecorators = []string{DecoratorTick, DecoratorLoad}

// Builtin function names.
const (
	BuiltinPrint = "print"
	BuiltinCmd   = "cmd"
)

// abort carries the first conversion error out of the recursive descent.
type abort struct{ err *diag.ConversionError }

type resolver struct {
	prog    *Program
	funcs   map[string]*Function
	globals map[string]*Variable

	fn     *Function // nil at module level
	locals map[string]*Variable
	depth  int // block nesting below the module or function body

	expanding map[*Function]bool // functions whose defaults are being expanded
}

// Resolve binds and types root.
func Resolve(root *ast.Root) (prog *Program, err error) {
	r := &resolver{
		prog:      &Program{},
		funcs:     make(map[string]*Function),
		globals:   make(map[string]*Variable),
		expanding: make(map[*Function]bool),
	}
	defer func() {
		if rec := recover(); rec != nil {
			a, ok := rec.(abort)
			if !ok {
				panic(rec)
			}
			prog, err = nil, a.err
		}
	}()

	stmts := root.Body.Stmts
	for _, s := range stmts {
		if fd, ok := s.Inner.(*ast.FunctionDecl); ok {
			r.declareFunction(fd)
		}
	}
	for _, s := range stmts {
		if _, ok := s.Inner.(*ast.FunctionDecl); ok {
			continue
		}
		if st := r.stmt(s.Inner); st != nil {
			r.prog.Body = append(r.prog.Body, st)
		}
	}
	for _, f := range r.prog.Functions {
		r.checkDefaults(f)
	}
	for _, f := range r.prog.Functions {
		r.function(f)
	}
	return r.prog, nil
}

func (r *resolver) fail(code string, at span.Span, format string, args ...any) {
	panic(abort{diag.Conversionf(code, at, format, args...)})
}

func (r *resolver) failSuggest(code string, at span.Span, word string, candidates []string, format string, args ...any) {
	err := diag.Conversionf(code, at, format, args...)
	err.Suggestions = diag.Suggest(word, candidates)
	panic(abort{err})
}

// ---------------------------------------------------------------------------
// Declarations

func (r *resolver) declareFunction(fd *ast.FunctionDecl) {
	if fd.Name == BuiltinPrint || fd.Name == BuiltinCmd {
		r.fail(diag.ErrDuplicate, fd.Span(), "function %q shadows a builtin", fd.Name)
	}
	if prev, ok := r.funcs[fd.Name]; ok {
		r.fail(diag.ErrDuplicate, fd.Span(), "function %q is already declared at %s", fd.Name, prev.Decl.Span().Start)
	}
	f := &Function{
		Name:  fd.Name,
		Index: len(r.prog.Functions),
		Exec:  fd.Exec,
		Decl:  fd,
	}
	f.Return = Void
	if fd.Return != nil {
		f.Return = r.typeOf(fd.Return)
		if f.Return == Str || f.Return == Entity {
			r.fail(diag.ErrTypeMismatch, fd.Return.Span(), "functions cannot return %s values", f.Return)
		}
	}

	seen := make(map[string]bool)
	for _, p := range fd.Params {
		if seen[p.Name] {
			r.fail(diag.ErrDuplicate, p.Span(), "duplicate parameter %q in function %q", p.Name, fd.Name)
		}
		seen[p.Name] = true
		t := r.typeOf(p.Type)
		if t == Entity {
			r.fail(diag.ErrTypeMismatch, p.Span(), "parameter %q: entity values cannot be passed to functions; call an entity function on the receiver instead", p.Name)
		}
		if !t.Storable() {
			r.fail(diag.ErrTypeMismatch, p.Span(), "parameter %q cannot have type %s", p.Name, t)
		}
		f.Params = append(f.Params, &Variable{Name: p.Name, Type: t, Kind: VarParam, Owner: f, Decl: p.Span()})
		f.Defaults = append(f.Defaults, p.Default)
	}

	for _, d := range fd.Decorators {
		if !slices.Contains(knownDecorators, d.Name) {
			r.failSuggest(diag.ErrUnknownDecorator, d.Span(), d.Name, knownDecorators, "unknown decorator @%s", d.Name)
		}
		if len(fd.Params) > 0 || fd.Exec == ast.ExecEntity {
			r.fail(diag.ErrDecoratedParams, d.Span(), "@%s function %q must be a world function without parameters", d.Name, fd.Name)
		}
		if slices.Contains(f.Decorators, d.Name) {
			continue
		}
		f.Decorators = append(f.Decorators, d.Name)
		switch d.Name {
		case DecoratorTick:
			r.prog.Tick = append(r.prog.Tick, f)
		case DecoratorLoad:
			r.prog.Load = append(r.prog.Load, f)
		}
	}

	r.funcs[f.Name] = f
	r.prog.Functions = append(r.prog.Functions, f)
}

func (r *resolver) typeOf(n *ast.TypeNode) Type {
	t, ok := typeNames[n.Name]
	if !ok {
		r.failSuggest(diag.ErrTypeMismatch, n.Span(), n.Name, slices.Sorted(maps.Keys(typeNames)), "unknown type %q", n.Name)
	}
	return t
}

// checkDefaults type-checks every default once at the declaration, in
// module scope, so bad defaults are reported even if never expanded.
func (r *resolver) checkDefaults(f *Function) {
	for i, d := range f.Defaults {
		if d != nil {
			r.argument(f, f.Params[i], r.defaultValue(d))
		}
	}
}

// defaultValue resolves a fresh copy of a default expression in module
// scope.
func (r *resolver) defaultValue(d ast.Node) Expr {
	fn, locals, depth := r.fn, r.locals, r.depth
	r.fn, r.locals, r.depth = nil, nil, 0
	defer func() { r.fn, r.locals, r.depth = fn, locals, depth }()
	return r.expr(ast.Clone(d))
}

func (r *resolver) function(f *Function) {
	r.fn = f
	r.locals = make(map[string]*Variable, len(f.Params))
	for _, p := range f.Params {
		r.locals[p.Name] = p
	}
	f.Body = r.block(f.Decl.Body)
	r.fn, r.locals = nil, nil
}

// ---------------------------------------------------------------------------
// Variables

func (r *resolver) lookup(name string) (*Variable, bool) {
	if v, ok := r.locals[name]; ok {
		return v, true
	}
	v, ok := r.globals[name]
	return v, ok
}

func (r *resolver) visibleNames() []string {
	names := slices.Collect(maps.Keys(r.globals))
	for n := range r.locals {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// declare adds a variable to the current function, or to the module.
func (r *resolver) declare(name string, t Type, at span.Span) *Variable {
	scope := r.globals
	kind := VarGlobal
	if r.fn != nil {
		scope, kind = r.locals, VarLocal
	}
	if prev, ok := scope[name]; ok {
		r.fail(diag.ErrDuplicate, at, "variable %q is already declared at %s", name, prev.Decl.Start)
	}
	v := &Variable{Name: name, Type: t, Kind: kind, Owner: r.fn, Decl: at}
	scope[name] = v
	if r.fn != nil {
		r.fn.Locals = append(r.fn.Locals, v)
	} else {
		r.prog.Globals = append(r.prog.Globals, v)
	}
	return v
}

// ---------------------------------------------------------------------------
// Statements

func (r *resolver) block(b *ast.CodeBlock) []Stmt {
	r.depth++
	defer func() { r.depth-- }()
	var out []Stmt
	for _, s := range b.Body.Stmts {
		if st := r.stmt(s.Inner); st != nil {
			out = append(out, st)
		}
	}
	return out
}

// topLevel reports whether declarations that only live at module level
// are allowed here.
func (r *resolver) topLevel() bool { return r.fn == nil && r.depth == 0 }

func (r *resolver) stmt(n ast.Node) Stmt {
	loc := stmtBase{Loc: n.Span()}
	switch x := n.(type) {
	case *ast.UserComment:
		return &Comment{stmtBase: loc, Text: x.Text}

	case *ast.VariableDecl:
		t := r.typeOf(x.Type)
		if !t.Storable() {
			r.fail(diag.ErrTypeMismatch, x.Type.Span(), "cannot declare a variable of type %s", t)
		}
		var value Expr
		if x.Value != nil {
			value = r.convert(r.expr(x.Value), t, x.Value.Span(), fmt.Sprintf("variable %q", x.Name))
		}
		return &VarDecl{stmtBase: loc, Var: r.declare(x.Name, t, x.Span()), Value: value}

	case *ast.Assignment:
		target := r.assignTarget(x.Target)
		value := r.convert(r.expr(x.Value), target.Type(), x.Value.Span(), "assignment")
		return &Assign{stmtBase: loc, Target: target, Value: value}

	case *ast.IfStruct:
		s := &If{stmtBase: loc}
		s.Branches = append(s.Branches, Branch{Cond: r.condition(x.Cond), Body: r.block(x.Body)})
		for _, e := range x.Elifs {
			s.Branches = append(s.Branches, Branch{Cond: r.condition(e.Cond), Body: r.block(e.Body)})
		}
		if x.Else != nil {
			s.HasElse = true
			s.Else = r.block(x.Else.Body)
		}
		return s

	case *ast.WhileLoop:
		return &While{stmtBase: loc, Cond: r.condition(x.Cond), Body: r.block(x.Body)}

	case *ast.ForLoop:
		from := r.intOperand(x.From, "loop start")
		to := r.intOperand(x.To, "loop end")
		v, ok := r.lookup(x.Var)
		if ok && v.Type != Int {
			r.fail(diag.ErrTypeMismatch, x.Span(), "loop variable %q must be an int, found %s", x.Var, v.Type)
		}
		if !ok {
			v = r.declare(x.Var, Int, x.Span())
		}
		return &For{stmtBase: loc, Var: v, From: from, To: to, Body: r.block(x.Body)}

	case *ast.ReturnLn:
		return r.returnLn(x)

	case *ast.Include:
		if !r.topLevel() {
			r.fail(diag.ErrNotModuleLevel, x.Span(), "include is only allowed at module level")
		}
		if x.Resource == "" {
			r.fail(diag.ErrIncludeMissing, x.Span(), "include needs a resource path")
		}
		r.prog.Includes = append(r.prog.Includes, &Include{Resource: x.Resource, Dest: x.Dest, Span: x.Span()})
		return nil

	case *ast.FunctionDecl:
		r.fail(diag.ErrNotModuleLevel, x.Span(), "function %q must be declared at module level", x.Name)
	}
	return &ExprStmt{stmtBase: loc, X: r.expr(n)}
}

func (r *resolver) returnLn(x *ast.ReturnLn) Stmt {
	if r.fn == nil {
		r.fail(diag.ErrReturnOutside, x.Span(), "Return statement outside of function")
	}
	s := &Return{stmtBase: stmtBase{Loc: x.Span()}}
	switch {
	case x.Value == nil && r.fn.Return != Void:
		r.fail(diag.ErrReturnValue, x.Span(), "function %q must return a %s value", r.fn.Name, r.fn.Return)
	case x.Value != nil && r.fn.Return == Void:
		r.fail(diag.ErrReturnValue, x.Value.Span(), "function %q returns void; cannot return a value", r.fn.Name)
	case x.Value != nil:
		s.Value = r.convert(r.expr(x.Value), r.fn.Return, x.Value.Span(), fmt.Sprintf("return value of %q", r.fn.Name))
	}
	return s
}

func (r *resolver) assignTarget(n ast.Node) Expr {
	switch x := n.(type) {
	case *ast.Identifier:
		return r.expr(x)
	case *ast.PropertyAccess:
		return r.expr(x)
	}
	diag.Unreachable(n)
	return nil
}

func (r *resolver) condition(n ast.Node) Expr {
	e := r.expr(n)
	if e.Type() != Bool {
		r.fail(diag.ErrTypeMismatch, n.Span(), "condition must be bool, found %s", e.Type())
	}
	return e
}

func (r *resolver) intOperand(n ast.Node, what string) Expr {
	e := r.expr(n)
	if e.Type() != Int {
		r.fail(diag.ErrTypeMismatch, n.Span(), "%s must be an int, found %s", what, e.Type())
	}
	return e
}

// convert checks that e can be stored as t, promoting ints to floats.
func (r *resolver) convert(e Expr, t Type, at span.Span, what string) Expr {
	ok, promote := assignable(t, e.Type())
	if !ok {
		r.fail(diag.ErrTypeMismatch, at, "%s: cannot use %s as %s", what, e.Type(), t)
	}
	if promote {
		return promoted(e)
	}
	return e
}

// promoted wraps an int expression for float use. Literals are converted in
// place.
func promoted(e Expr) Expr {
	if lit, ok := e.(*IntLit); ok {
		return &FloatLit{exprBase: lit.exprBase, Value: float64(lit.Value)}
	}
	return &Promote{exprBase: exprBase{Loc: e.Span()}, X: e}
}
