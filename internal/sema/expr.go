package sema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/diag"
)

func (r *resolver) expr(n ast.Node) Expr {
	loc := exprBase{Loc: n.Span()}
	switch x := n.(type) {
	case *ast.LiteralInt:
		return &IntLit{exprBase: loc, Value: x.Value}
	case *ast.LiteralFloat:
		return &FloatLit{exprBase: loc, Value: x.Value}
	case *ast.LiteralBool:
		return &BoolLit{exprBase: loc, Value: x.Value}
	case *ast.LiteralString:
		return &StrLit{exprBase: loc, Value: x.Value}
	case *ast.LiteralNull:
		return &NullLit{exprBase: loc}
	case *ast.LiteralWorld:
		return &WorldRef{exprBase: loc}
	case *ast.LiteralThis:
		if r.fn != nil && r.fn.Exec == ast.ExecEntity {
			return &ThisRef{exprBase: loc}
		}
		return &WorldRef{exprBase: loc}
	case *ast.Selector:
		return &SelectorRef{exprBase: loc, Text: x.Text}

	case *ast.Identifier:
		v, ok := r.lookup(x.Name)
		if !ok {
			if _, isFn := r.funcs[x.Name]; isFn {
				r.fail(diag.ErrTypeMismatch, x.Span(), "function %q cannot be used as a value; call it with ()", x.Name)
			}
			r.failSuggest(diag.ErrUndefinedName, x.Span(), x.Name, r.visibleNames(), "undefined name %q", x.Name)
		}
		return &VarRef{exprBase: loc, Var: v}

	case *ast.PropertyAccess:
		recv := r.receiver(x.Receiver)
		if recv == nil {
			r.fail(diag.ErrPropertyReceiver, x.Receiver.Span(), "cannot access property %q of a %s value", x.Name, r.expr(x.Receiver).Type())
		}
		return &PropRef{exprBase: loc, Receiver: recv, Name: x.Name}

	case *ast.Arithmetic:
		return r.arithmetic(x)

	case *ast.Comparison:
		l, rr := r.expr(x.Left), r.expr(x.Right)
		lt, rt := l.Type(), rr.Type()
		switch {
		case lt.Numeric() && rt.Numeric():
			l, rr = r.unify(l, rr)
		case lt == Bool && rt == Bool && (x.Op == ast.OpEq || x.Op == ast.OpNe):
		default:
			r.fail(diag.ErrInvalidOperator, x.Span(), "operator %s is not defined for %s and %s", x.Op, lt, rt)
		}
		return &Compare{exprBase: loc, Op: x.Op, L: l, R: rr}

	case *ast.Logical:
		l, rr := r.expr(x.Left), r.expr(x.Right)
		if l.Type() != Bool || rr.Type() != Bool {
			r.fail(diag.ErrInvalidOperator, x.Span(), "operator %s is not defined for %s and %s", x.Op, l.Type(), rr.Type())
		}
		return &Logic{exprBase: loc, Op: x.Op, L: l, R: rr}

	case *ast.Not:
		e := r.expr(x.Operand)
		if e.Type() != Bool {
			r.fail(diag.ErrInvalidOperator, x.Span(), "operator not is not defined for %s", e.Type())
		}
		return &Not{exprBase: loc, X: e}

	case *ast.Negate:
		e := r.expr(x.Operand)
		if !e.Type().Numeric() {
			r.fail(diag.ErrInvalidOperator, x.Span(), "unary - is not defined for %s", e.Type())
		}
		return &Neg{exprBase: loc, X: e}

	case *ast.NullCoalesce:
		l, rr := r.expr(x.Left), r.expr(x.Right)
		t := l.Type()
		if t == Null {
			t = rr.Type()
		}
		if !t.Storable() || t == Entity {
			r.fail(diag.ErrInvalidOperator, x.Span(), "operator ?? is not defined for %s", t)
		}
		if l.Type() == Int && rr.Type() == Float {
			t, l = Float, promoted(l)
		}
		rr = r.convert(rr, t, x.Right.Span(), "right operand of ??")
		return &Coalesce{exprBase: loc, L: l, R: rr, T: t}

	case *ast.Call:
		return r.call(x)
	}
	diag.Unreachable(n)
	return nil
}

// receiver resolves the left side of a property access or method call. It
// returns nil when the value cannot carry properties.
func (r *resolver) receiver(n ast.Node) Expr {
	e := r.expr(n)
	switch x := e.(type) {
	case *ThisRef, *WorldRef, *SelectorRef:
		return e
	case *VarRef:
		if x.Var.Type == Entity {
			return e
		}
	}
	return nil
}

func (r *resolver) arithmetic(x *ast.Arithmetic) Expr {
	loc := exprBase{Loc: x.Span()}
	l := r.expr(x.Left)
	if x.Op == ast.OpPow {
		lit, ok := x.Right.(*ast.LiteralInt)
		if !ok || lit.Value < 0 {
			r.fail(diag.ErrBadExponent, x.Right.Span(), "exponent must be a non-negative integer literal")
		}
		if !l.Type().Numeric() {
			r.fail(diag.ErrInvalidOperator, x.Span(), "operator ^ is not defined for %s", l.Type())
		}
		return &Binary{exprBase: loc, Op: x.Op, L: l, R: &IntLit{exprBase: exprBase{Loc: lit.Span()}, Value: lit.Value}, T: l.Type()}
	}
	rr := r.expr(x.Right)
	if !l.Type().Numeric() || !rr.Type().Numeric() {
		r.fail(diag.ErrInvalidOperator, x.Span(), "operator %s is not defined for %s and %s", x.Op, l.Type(), rr.Type())
	}
	l, rr = r.unify(l, rr)
	return &Binary{exprBase: loc, Op: x.Op, L: l, R: rr, T: l.Type()}
}

// unify promotes the int side of a mixed int/float pair.
func (r *resolver) unify(l, rr Expr) (Expr, Expr) {
	switch {
	case l.Type() == Int && rr.Type() == Float:
		return promoted(l), rr
	case l.Type() == Float && rr.Type() == Int:
		return l, promoted(rr)
	}
	return l, rr
}

func (r *resolver) call(x *ast.Call) Expr {
	loc := exprBase{Loc: x.Span()}
	var (
		name string
		recv Expr
	)
	switch c := x.Callee.(type) {
	case *ast.Identifier:
		name = c.Name
	case *ast.PropertyAccess:
		name = c.Name
		recv = r.receiver(c.Receiver)
		if recv == nil {
			r.fail(diag.ErrPropertyReceiver, c.Receiver.Span(), "cannot call %q on a %s value", c.Name, r.expr(c.Receiver).Type())
		}
	default:
		r.fail(diag.ErrPropertyReceiver, x.Callee.Span(), "expression is not callable")
	}

	if recv == nil {
		switch name {
		case BuiltinPrint:
			return r.print(x)
		case BuiltinCmd:
			return r.cmd(x)
		}
	}

	f, ok := r.funcs[name]
	if !ok {
		names := append(slices.Sorted(maps.Keys(r.funcs)), BuiltinPrint, BuiltinCmd)
		r.failSuggest(diag.ErrUndefinedName, x.Callee.Span(), name, names, "undefined function %q", name)
	}

	switch f.Exec {
	case ast.ExecWorld:
		if recv != nil && recv.Type() != World {
			r.fail(diag.ErrPropertyReceiver, x.Callee.Span(), "world function %q cannot be called on an entity", name)
		}
		recv = nil
	case ast.ExecEntity:
		if recv == nil {
			if r.fn == nil || r.fn.Exec != ast.ExecEntity {
				r.fail(diag.ErrPropertyReceiver, x.Callee.Span(), "entity function %q needs an entity receiver", name)
			}
			recv = &ThisRef{exprBase: loc}
		}
		if recv.Type() != Entity {
			r.fail(diag.ErrPropertyReceiver, x.Callee.Span(), "entity function %q cannot be called on the world", name)
		}
	}

	return &Call{exprBase: loc, Fn: f, Args: r.bindArgs(f, x), Receiver: recv}
}

// bindArgs matches positional and named arguments to parameters and expands
// defaults for the rest.
func (r *resolver) bindArgs(f *Function, x *ast.Call) []Expr {
	bound := make([]Expr, len(f.Params))
	named := false
	for i, a := range x.Args {
		idx := i
		if a.Name != "" {
			named = true
			idx = slices.IndexFunc(f.Params, func(p *Variable) bool { return p.Name == a.Name })
			if idx < 0 {
				r.failSuggest(diag.ErrArgumentCount, a.Span(), a.Name, paramNames(f), "function %q has no parameter %q", f.Name, a.Name)
			}
		} else if named {
			r.fail(diag.ErrArgumentCount, a.Span(), "positional argument after a named argument")
		}
		if idx >= len(f.Params) {
			r.fail(diag.ErrArgumentCount, a.Span(), "function %q takes %d argument(s), got %d", f.Name, len(f.Params), len(x.Args))
		}
		if bound[idx] != nil {
			r.fail(diag.ErrArgumentCount, a.Span(), "parameter %q is given more than once", f.Params[idx].Name)
		}
		bound[idx] = r.argument(f, f.Params[idx], r.expr(a.Value))
	}
	for i, p := range f.Params {
		if bound[i] != nil {
			continue
		}
		if f.Defaults[i] == nil {
			r.fail(diag.ErrArgumentCount, x.Span(), "missing argument %q in call to %q", p.Name, f.Name)
		}
		if r.expanding[f] {
			r.fail(diag.ErrArgumentCount, x.Span(), "default value of %q depends on itself", p.Name)
		}
		r.expanding[f] = true
		bound[i] = r.argument(f, p, r.defaultValue(f.Defaults[i]))
		delete(r.expanding, f)
	}
	return bound
}

func (r *resolver) argument(f *Function, p *Variable, e Expr) Expr {
	return r.convert(e, p.Type, e.Span(), fmt.Sprintf("argument %q of %q", p.Name, f.Name))
}

func paramNames(f *Function) []string {
	out := make([]string, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Name
	}
	return out
}

func (r *resolver) print(x *ast.Call) Expr {
	p := &Print{exprBase: exprBase{Loc: x.Span()}}
	for _, a := range x.Args {
		if a.Name != "" {
			r.fail(diag.ErrArgumentCount, a.Span(), "print takes no named arguments")
		}
		e := r.expr(a.Value)
		switch e.Type() {
		case Int, Float, Bool, Str, Entity:
		default:
			r.fail(diag.ErrTypeMismatch, a.Span(), "cannot print a %s value", e.Type())
		}
		p.Args = append(p.Args, e)
	}
	return p
}

func (r *resolver) cmd(x *ast.Call) Expr {
	if len(x.Args) != 1 || x.Args[0].Name != "" {
		r.fail(diag.ErrArgumentCount, x.Span(), "cmd takes exactly one string literal")
	}
	lit, ok := x.Args[0].Value.(*ast.LiteralString)
	if !ok {
		r.fail(diag.ErrTypeMismatch, x.Args[0].Span(), "cmd expects a string literal")
	}
	return &Cmd{exprBase: exprBase{Loc: x.Span()}, Text: lit.Value}
}
