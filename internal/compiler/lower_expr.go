package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/ir"
	"github.com/roach88/packc/internal/sema"
)

// expr lowers e and returns the atom holding its value. Pseudo variables
// returned here belong to the caller, which may reuse them as
// accumulators.
func (l *lowerer) expr(b *block, e sema.Expr) ir.Atom {
	switch x := e.(type) {
	case *sema.IntLit:
		return l.mod.Int(x.Value)
	case *sema.FloatLit:
		return l.mod.Float(x.Value)
	case *sema.BoolLit:
		if x.Value {
			return l.mod.Int(1)
		}
		return l.mod.Int(0)
	case *sema.StrLit:
		return l.mod.Str(x.Value)
	case *sema.NullLit:
		return ir.Null
	case *sema.VarRef:
		return l.variable(x.Var)
	case *sema.PropRef:
		return l.mod.Property(l.receiver(b, x.Receiver), x.Name)
	case *sema.Binary:
		return l.binary(b, x)
	case *sema.Compare:
		return l.compare(b, x)
	case *sema.Logic:
		return l.logic(b, x)
	case *sema.Not:
		src := l.expr(b, x.X)
		t := b.temp()
		b.emit(&ir.Not{Dst: t, Src: src})
		return t
	case *sema.Neg:
		acc := l.accumulator(b, l.expr(b, x.X))
		b.emit(&ir.Arith{Op: ir.Mul, Dst: acc, Src: l.mod.Int(-1)})
		return acc
	case *sema.Coalesce:
		lhs := l.stable(b, l.expr(b, x.L), sema.ContainsCall(x.R))
		rhs := l.expr(b, x.R)
		t := b.temp()
		b.emit(&ir.NullCoalesce{Dst: t, L: lhs, R: rhs})
		return t
	case *sema.Promote:
		acc := l.accumulator(b, l.expr(b, x.X))
		b.emit(&ir.Arith{Op: ir.Mul, Dst: acc, Src: l.mod.Int(ir.FixedScale)})
		return acc
	case *sema.Call:
		return l.call(b, x, true)
	case *sema.ThisRef, *sema.WorldRef, *sema.SelectorRef:
		return l.receiver(b, x)
	}
	diag.Unreachable(e)
	return nil
}

// receiver lowers an entity or world expression to the atom that selects
// it.
func (l *lowerer) receiver(b *block, e sema.Expr) ir.Atom {
	switch x := e.(type) {
	case *sema.ThisRef:
		return b.fc.fn.Executor
	case *sema.WorldRef:
		return ir.World{}
	case *sema.SelectorRef:
		return ir.Selector{Text: x.Text}
	case *sema.VarRef:
		v := l.variable(x.Var)
		diag.Assert(v.Kind == ir.VarEntity, "receiver %s is not an entity", v)
		return v
	}
	diag.Unreachable(e)
	return nil
}

// accumulator returns a pseudo holding a, copying a unless it already is
// a fresh pseudo.
func (l *lowerer) accumulator(b *block, a ir.Atom) *ir.Variable {
	if v, ok := a.(*ir.Variable); ok && v.Kind == ir.VarPseudo {
		return v
	}
	t := b.temp()
	b.emit(&ir.Assign{Dst: t, Src: a})
	return t
}

// stable pins a to its current value when a later operand calls a
// function that could change it.
func (l *lowerer) stable(b *block, a ir.Atom, laterCall bool) ir.Atom {
	if !laterCall {
		return a
	}
	switch v := a.(type) {
	case *ir.Constant:
		return a
	case *ir.Variable:
		if v.Kind == ir.VarPseudo {
			return a
		}
	}
	return l.accumulator(b, a)
}

func arithOp(op ast.ArithOp) ir.ArithOp {
	switch op {
	case ast.OpAdd:
		return ir.Add
	case ast.OpSub:
		return ir.Sub
	case ast.OpMul:
		return ir.Mul
	case ast.OpDiv:
		return ir.Div
	case ast.OpMod:
		return ir.Mod
	}
	diag.Unreachable(op)
	return ""
}

func (l *lowerer) binary(b *block, x *sema.Binary) ir.Atom {
	if x.Op == ast.OpPow {
		return l.power(b, x)
	}
	acc := l.accumulator(b, l.expr(b, x.L))
	rhs := l.expr(b, x.R)
	switch {
	case x.T == sema.Float && x.Op == ast.OpMul:
		b.emit(&ir.Arith{Op: ir.Mul, Dst: acc, Src: rhs}, &ir.Arith{Op: ir.Div, Dst: acc, Src: l.mod.Int(ir.FixedScale)})
	case x.T == sema.Float && x.Op == ast.OpDiv:
		b.emit(&ir.Arith{Op: ir.Mul, Dst: acc, Src: l.mod.Int(ir.FixedScale)}, &ir.Arith{Op: ir.Div, Dst: acc, Src: rhs})
	default:
		b.emit(&ir.Arith{Op: arithOp(x.Op), Dst: acc, Src: rhs})
	}
	return acc
}

// power unrolls x^n into n multiplications of an accumulator seeded at one.
func (l *lowerer) power(b *block, x *sema.Binary) ir.Atom {
	n := x.R.(*sema.IntLit).Value
	base := l.expr(b, x.L)
	acc := b.temp()
	if x.T == sema.Float {
		b.emit(&ir.Assign{Dst: acc, Src: l.mod.Float(1)})
	} else {
		b.emit(&ir.Assign{Dst: acc, Src: l.mod.Int(1)})
	}
	for range n {
		b.emit(&ir.Arith{Op: ir.Mul, Dst: acc, Src: base})
		if x.T == sema.Float {
			b.emit(&ir.Arith{Op: ir.Div, Dst: acc, Src: l.mod.Int(ir.FixedScale)})
		}
	}
	return acc
}

// compare maps every comparison onto ==, >= and >, swapping operands for
// the less-than forms and negating for !=.
func (l *lowerer) compare(b *block, x *sema.Compare) ir.Atom {
	lhs := l.stable(b, l.expr(b, x.L), sema.ContainsCall(x.R))
	rhs := l.expr(b, x.R)
	t := b.temp()
	switch x.Op {
	case ast.OpEq:
		b.emit(&ir.Compare{Op: ir.Eq, Dst: t, L: lhs, R: rhs})
	case ast.OpNe:
		b.emit(&ir.Compare{Op: ir.Eq, Dst: t, L: lhs, R: rhs}, &ir.Not{Dst: t, Src: t})
	case ast.OpGt:
		b.emit(&ir.Compare{Op: ir.Gt, Dst: t, L: lhs, R: rhs})
	case ast.OpGe:
		b.emit(&ir.Compare{Op: ir.Ge, Dst: t, L: lhs, R: rhs})
	case ast.OpLt:
		b.emit(&ir.Compare{Op: ir.Gt, Dst: t, L: rhs, R: lhs})
	case ast.OpLe:
		b.emit(&ir.Compare{Op: ir.Ge, Dst: t, L: rhs, R: lhs})
	default:
		diag.Unreachable(x.Op)
	}
	return t
}

// logic evaluates both operands eagerly unless the right one calls a
// function; then it only runs in a fragment when the left one did not
// decide the result.
func (l *lowerer) logic(b *block, x *sema.Logic) ir.Atom {
	if !sema.ContainsCall(x.R) {
		lhs := l.expr(b, x.L)
		rhs := l.expr(b, x.R)
		t := b.temp()
		if x.Op == ast.OpAnd {
			b.emit(&ir.And{Dst: t, L: lhs, R: rhs})
		} else {
			b.emit(&ir.Or{Dst: t, L: lhs, R: rhs})
		}
		return t
	}

	fn := b.fc.fn
	t := l.condition(b, x.L)
	name, want := "and", true
	if x.Op == ast.OpOr {
		name, want = "or", false
	}
	fr := fn.NewFragment(name + strconv.Itoa(fn.Label()))
	b.emit(&ir.CondInvoke{Guards: []ir.Guard{{Var: t, Want: want}}, Fragment: fr})
	cb := b.child(fr)
	cb.emit(&ir.Assign{Dst: t, Src: l.expr(cb, x.R)})
	return t
}

// call passes arguments into the callee frame, invokes it and, when
// wanted, copies the result back into a temporary.
func (l *lowerer) call(b *block, x *sema.Call, want bool) ir.Atom {
	callee := l.function(x.Fn)
	args := make([]ir.Atom, len(x.Args))
	for i, a := range x.Args {
		later := false
		for _, rest := range x.Args[i+1:] {
			later = later || sema.ContainsCall(rest)
		}
		args[i] = l.stable(b, l.expr(b, a), later)
	}
	for i, p := range callee.Params {
		// a shifted command reads and writes p in the callee's frame
		if args[i] == ir.Atom(p) {
			args[i] = l.accumulator(b, p)
		}
	}
	for i, p := range callee.Params {
		b.emit(&ir.StackShift{Var: p, Delta: 1}, &ir.Assign{Dst: p, Src: args[i]})
	}

	var exec ir.Atom
	switch r := x.Receiver.(type) {
	case nil, *sema.ThisRef:
	default:
		exec = l.receiver(b, r)
	}
	b.emit(&ir.Invoke{Callee: callee, Executor: exec})

	if !want || x.Fn.Return == sema.Void {
		return nil
	}
	t := b.temp()
	b.emit(&ir.StackShift{Var: callee.Return, Delta: 1}, &ir.Assign{Dst: t, Src: callee.Return})
	return t
}

// print renders its arguments separated by spaces. Floats are shown as
// their integer part followed by three decimal digits.
//
// Score division floors, so a runtime float is printed from its absolute
// value and the sign is picked by which of the guarded print fragments
// runs: one per sign combination of the runtime float arguments.
func (l *lowerer) print(b *block, x *sema.Print) {
	var parts []ir.TellPart
	var signs []*ir.Variable
	slots := make(map[int]int) // index in parts -> index in signs
	for i, a := range x.Args {
		if i > 0 {
			parts = append(parts, ir.TellText(" "))
		}
		if a.Type() == sema.Entity {
			parts = append(parts, ir.TellTarget{Atom: l.receiver(b, a)})
			continue
		}
		later := false
		for _, rest := range x.Args[i+1:] {
			later = later || sema.ContainsCall(rest)
		}
		v := l.stable(b, l.expr(b, a), later)
		if c, ok := v.(*ir.Constant); ok && (c.Kind == ir.ConstString || c.Kind == ir.ConstNull) {
			if c.Kind == ir.ConstNull {
				parts = append(parts, ir.TellText("null"))
			} else {
				parts = append(parts, ir.TellText(c.Str))
			}
			continue
		}
		if a.Type() == sema.Float {
			digits, neg := l.fixedDigits(b, v)
			if neg != nil {
				slots[len(parts)] = len(signs)
				parts = append(parts, nil)
				signs = append(signs, neg)
			}
			parts = append(parts, digits...)
			continue
		}
		parts = append(parts, ir.TellScore{Atom: v})
	}
	if len(signs) == 0 {
		b.emit(&ir.Tellraw{Parts: parts})
		return
	}

	fn := b.fc.fn
	k := fn.Label()
	for mask := 0; mask < 1<<len(signs); mask++ {
		guards := make([]ir.Guard, len(signs))
		for i, s := range signs {
			guards[i] = ir.Guard{Var: s, Want: mask&(1<<i) != 0}
		}
		line := make([]ir.TellPart, 0, len(parts))
		for j, p := range parts {
			i, ok := slots[j]
			switch {
			case !ok:
				line = append(line, p)
			case mask&(1<<i) != 0:
				line = append(line, ir.TellText("-"))
			}
		}
		fr := fn.NewFragment(fmt.Sprintf("print%d_%d", k, mask))
		fr.Emit(&ir.Tellraw{Parts: line})
		b.emit(&ir.CondInvoke{Guards: guards, Fragment: fr})
	}
}

// fixedDigits splits a fixed-point value into whole and decimal digits.
// For a runtime value it also returns the flag set when the value is
// negative; the digits are then those of the absolute value.
func (l *lowerer) fixedDigits(b *block, v ir.Atom) ([]ir.TellPart, *ir.Variable) {
	if c, ok := v.(*ir.Constant); ok {
		return []ir.TellPart{ir.TellText(strconv.FormatFloat(float64(c.Int)/ir.FixedScale, 'f', 3, 64))}, nil
	}
	ten, hundred, scale := l.mod.Int(10), l.mod.Int(100), l.mod.Int(ir.FixedScale)
	neg, abs := b.temp(), b.temp()
	b.emit(
		&ir.Compare{Op: ir.Gt, Dst: neg, L: l.mod.Int(0), R: v},
		// abs = v * (1 - 2*neg)
		&ir.Assign{Dst: abs, Src: neg}, &ir.Arith{Op: ir.Mul, Dst: abs, Src: l.mod.Int(-2)},
		&ir.Arith{Op: ir.Add, Dst: abs, Src: l.mod.Int(1)}, &ir.Arith{Op: ir.Mul, Dst: abs, Src: v},
	)
	whole, frac := b.temp(), b.temp()
	b.emit(
		&ir.Assign{Dst: whole, Src: abs}, &ir.Arith{Op: ir.Div, Dst: whole, Src: scale},
		&ir.Assign{Dst: frac, Src: abs}, &ir.Arith{Op: ir.Mod, Dst: frac, Src: scale},
	)
	d1, d2, d3 := b.temp(), b.temp(), b.temp()
	b.emit(
		&ir.Assign{Dst: d1, Src: frac}, &ir.Arith{Op: ir.Div, Dst: d1, Src: hundred},
		&ir.Assign{Dst: d2, Src: frac}, &ir.Arith{Op: ir.Div, Dst: d2, Src: ten}, &ir.Arith{Op: ir.Mod, Dst: d2, Src: ten},
		&ir.Assign{Dst: d3, Src: frac}, &ir.Arith{Op: ir.Mod, Dst: d3, Src: ten},
	)
	parts := []ir.TellPart{ir.TellScore{Atom: whole}, ir.TellText("."), ir.TellScore{Atom: d1}, ir.TellScore{Atom: d2}, ir.TellScore{Atom: d3}}
	return parts, neg
}
