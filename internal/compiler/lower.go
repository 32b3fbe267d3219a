package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/ir"
	"github.com/roach88/packc/internal/sema"
)

// TagIssuer hands out entity tag names that are unique per compilation.
type TagIssuer interface {
	Issue(hint string) string
}

// LowerOptions configures lowering.
type LowerOptions struct {
	Namespace string
	Debug     bool
	Tags      TagIssuer
	Logger    *slog.Logger
}

type lowerer struct {
	mod   *ir.Module
	prog  *sema.Program
	opts  LowerOptions
	log   *slog.Logger
	funcs map[*sema.Function]*ir.Function
	vars  map[*sema.Variable]*ir.Variable
}

// fnCtx is the per-function lowering state.
type fnCtx struct {
	fn *ir.Function
	// retFlag is set once a nested return executed; nil when the function
	// has no return inside a branch or loop.
	retFlag *ir.Variable
}

// block emits into one fragment. Pseudo numbering restarts at base for
// every statement; a child fragment starts at its parent's next so it
// never clobbers a temporary the parent still needs.
type block struct {
	fc   *fnCtx
	fr   *ir.Fragment
	base int
	next int
}

func (b *block) emit(cmds ...ir.Command) { b.fr.Emit(cmds...) }

func (b *block) temp() *ir.Variable {
	v := b.fc.fn.Pseudo(b.next)
	b.next++
	return v
}

func (b *block) child(fr *ir.Fragment) *block {
	return &block{fc: b.fc, fr: fr, base: b.next, next: b.next}
}

// Lower builds the IR module for a resolved program.
func Lower(prog *sema.Program, opts LowerOptions) *ir.Module {
	l := &lowerer{
		mod:   ir.NewModule(opts.Namespace),
		prog:  prog,
		opts:  opts,
		log:   opts.Logger,
		funcs: make(map[*sema.Function]*ir.Function),
		vars:  make(map[*sema.Variable]*ir.Variable),
	}
	if l.log == nil {
		l.log = slog.New(slog.DiscardHandler)
	}

	for _, f := range prog.Functions {
		irf := l.mod.Register(f, f.Name, execOf(f.Exec))
		l.funcs[f] = irf
		for _, p := range f.Params {
			l.vars[p] = irf.AddParam(p.Name, p.Type == sema.Float)
		}
		for _, v := range f.Locals {
			l.vars[v] = l.declare(irf, v)
		}
	}
	for _, g := range prog.Globals {
		l.vars[g] = l.declare(l.mod.Load, g)
	}
	for _, f := range prog.Tick {
		l.mod.TickFuncs = append(l.mod.TickFuncs, l.funcs[f])
	}
	for _, f := range prog.Load {
		l.mod.LoadFuncs = append(l.mod.LoadFuncs, l.funcs[f])
	}

	l.lowerImport()
	l.lowerSetup()
	l.lowerLoad()
	l.lowerTick()
	for _, f := range prog.Functions {
		l.lowerFunction(f)
	}
	return l.mod
}

func execOf(e ast.ExecType) ir.ExecType {
	if e == ast.ExecEntity {
		return ir.ExecEntity
	}
	return ir.ExecWorld
}

func (l *lowerer) declare(owner *ir.Function, v *sema.Variable) *ir.Variable {
	if v.Type == sema.Entity {
		return owner.AddEntity(v.Name, l.opts.Tags.Issue(v.Name))
	}
	return owner.AddPublic(v.Name, v.Type == sema.Float)
}

func (l *lowerer) variable(v *sema.Variable) *ir.Variable {
	iv, ok := l.vars[v]
	diag.Assert(ok, "variable %q was never declared to the IR", v.Name)
	return iv
}

func (l *lowerer) function(f *sema.Function) *ir.Function {
	irf, ok := l.funcs[f]
	diag.Assert(ok, "function %q was never registered", f.Name)
	return irf
}

func (l *lowerer) lowerImport() {
	l.mod.Import.Main.Emit(&ir.Comment{Level: ir.CommentTitle, Text: "namespace " + l.mod.Namespace})
}

// lowerSetup clears the error state and every module variable.
func (l *lowerer) lowerSetup() {
	fr := l.mod.Setup.Main
	fr.Emit(&ir.Assign{Dst: l.mod.ErrorFlag, Src: l.mod.Int(0)})
	if l.opts.Debug {
		fr.Emit(&ir.Assign{Dst: l.mod.DebugFlag, Src: l.mod.Int(0)})
	}
	for _, g := range l.prog.Globals {
		v := l.variable(g)
		if v.Kind == ir.VarEntity {
			fr.Emit(clearTag(v))
			continue
		}
		fr.Emit(&ir.Assign{Dst: v, Src: ir.Null})
	}
}

// lowerLoad renders the module body followed by the @load functions.
func (l *lowerer) lowerLoad() {
	b := &block{fc: &fnCtx{fn: l.mod.Load}, fr: l.mod.Load.Main}
	if l.opts.Debug {
		b.emit(&ir.Assign{Dst: l.mod.DebugFlag, Src: l.mod.Int(1)})
	}
	l.stmts(b, l.prog.Body)
	for _, f := range l.mod.LoadFuncs {
		b.emit(&ir.Invoke{Callee: f})
	}
	if l.opts.Debug {
		b.emit(&ir.Assign{Dst: l.mod.DebugFlag, Src: l.mod.Int(0)})
	}
}

// lowerTick invokes the @tick functions. In debug builds a flag left set by
// the previous tick means it never completed, which is reported first.
func (l *lowerer) lowerTick() {
	t := l.mod.Tick
	t.Main.Emit(&ir.Assign{Dst: l.mod.ErrorFlag, Src: l.mod.Int(0)})
	if l.opts.Debug {
		warn := t.NewFragment("overrun")
		warn.Emit(&ir.Tellraw{Parts: []ir.TellPart{
			ir.TellText(fmt.Sprintf("[%s] warning: the previous tick did not finish", l.mod.Namespace)),
		}})
		t.Main.Emit(
			&ir.CondInvoke{Guards: []ir.Guard{{Var: l.mod.DebugFlag, Want: true}}, Fragment: warn},
			&ir.Assign{Dst: l.mod.DebugFlag, Src: l.mod.Int(1)},
		)
	}
	for _, f := range l.mod.TickFuncs {
		t.Main.Emit(&ir.Invoke{Callee: f})
	}
	if l.opts.Debug {
		t.Main.Emit(&ir.Assign{Dst: l.mod.DebugFlag, Src: l.mod.Int(0)})
	}
}

func (l *lowerer) lowerFunction(f *sema.Function) {
	irf := l.function(f)
	fc := &fnCtx{fn: irf}
	b := &block{fc: fc, fr: irf.Main}
	if f.Return != sema.Void {
		b.emit(&ir.Assign{Dst: irf.Return, Src: ir.Null})
	}
	if hasNestedReturn(f.Body) {
		fc.retFlag = irf.Hidden("#rf")
		b.emit(&ir.Assign{Dst: fc.retFlag, Src: l.mod.Int(0)})
	}
	l.stmts(b, f.Body)
	l.log.Debug("lowered function", "function", irf.ID, "fragments", len(irf.Fragments()))
}

// hasNestedReturn reports whether a return sits inside a branch or loop of
// stmts, which requires the returned flag.
func hasNestedReturn(stmts []sema.Stmt) bool {
	for _, s := range stmts {
		if mayReturn(s) {
			return true
		}
	}
	return false
}

// mayReturn reports whether s contains a return in a nested body.
func mayReturn(s sema.Stmt) bool {
	contains := func(body []sema.Stmt) bool {
		for _, st := range body {
			if _, ok := st.(*sema.Return); ok || mayReturn(st) {
				return true
			}
		}
		return false
	}
	switch x := s.(type) {
	case *sema.If:
		for _, br := range x.Branches {
			if contains(br.Body) {
				return true
			}
		}
		return contains(x.Else)
	case *sema.While:
		return contains(x.Body)
	case *sema.For:
		return contains(x.Body)
	}
	return false
}

func clearTag(v *ir.Variable) *ir.Raw {
	return &ir.Raw{Parts: []ir.RawPart{ir.Text("tag @e remove "), ir.TagName{Var: v}}}
}
