package compiler

import (
	"fmt"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/ir"
	"github.com/roach88/packc/internal/sema"
)

// stmts lowers a statement list into b. Statements after a return are
// dropped. When a statement may have returned from a nested fragment the
// remainder moves into a continuation fragment guarded by the returned
// flag.
func (l *lowerer) stmts(b *block, list []sema.Stmt) {
	for i, s := range list {
		b.next = b.base
		l.stmt(b, s)
		if _, ok := s.(*sema.Return); ok {
			return
		}
		if b.fc.retFlag != nil && i < len(list)-1 && mayReturn(s) {
			fn := b.fc.fn
			cont := fn.NewFragment(fmt.Sprintf("cont%d", fn.Label()))
			b.emit(&ir.CondInvoke{Guards: []ir.Guard{{Var: b.fc.retFlag, Want: false}}, Fragment: cont})
			l.stmts(&block{fc: b.fc, fr: cont, base: b.base, next: b.base}, list[i+1:])
			return
		}
	}
}

func (l *lowerer) stmt(b *block, s sema.Stmt) {
	switch x := s.(type) {
	case *sema.ExprStmt:
		l.exprStmt(b, x.X)
	case *sema.VarDecl:
		l.store(b, l.variable(x.Var), x.Value)
	case *sema.Assign:
		switch t := x.Target.(type) {
		case *sema.VarRef:
			l.store(b, l.variable(t.Var), x.Value)
		case *sema.PropRef:
			l.storeProperty(b, t, x.Value)
		default:
			diag.Unreachable(t)
		}
	case *sema.If:
		l.ifChain(b, x)
	case *sema.While:
		l.while(b, x)
	case *sema.For:
		l.forLoop(b, x)
	case *sema.Return:
		l.ret(b, x)
	case *sema.Comment:
		b.emit(&ir.Comment{Level: ir.CommentUser, Text: x.Text})
	default:
		diag.Unreachable(s)
	}
}

func (l *lowerer) exprStmt(b *block, e sema.Expr) {
	switch x := e.(type) {
	case *sema.Call:
		l.call(b, x, false)
	case *sema.Print:
		l.print(b, x)
	case *sema.Cmd:
		b.emit(&ir.Raw{Parts: []ir.RawPart{ir.Text(x.Text)}})
	default:
		// Pure expressions only matter for the calls they contain.
		if sema.ContainsCall(e) {
			l.expr(b, e)
		}
	}
}

// store writes value (nil means null) into v.
func (l *lowerer) store(b *block, v *ir.Variable, value sema.Expr) {
	if v.Kind == ir.VarEntity {
		l.storeEntity(b, v, value)
		return
	}
	if value == nil {
		b.emit(&ir.Assign{Dst: v, Src: ir.Null})
		return
	}
	if l.inPlace(b, v, value) {
		return
	}
	if src := l.expr(b, value); src != ir.Atom(v) {
		b.emit(&ir.Assign{Dst: v, Src: src})
	}
}

// inPlace lowers v = v op c to a single in-place operation.
func (l *lowerer) inPlace(b *block, v *ir.Variable, value sema.Expr) bool {
	bin, ok := value.(*sema.Binary)
	if !ok || sema.ContainsCall(bin.R) {
		return false
	}
	ref, ok := bin.L.(*sema.VarRef)
	if !ok || l.variable(ref.Var) != v {
		return false
	}
	var op ir.ArithOp
	switch bin.Op {
	case ast.OpAdd:
		op = ir.Add
	case ast.OpSub:
		op = ir.Sub
	case ast.OpMod:
		op = ir.Mod
	case ast.OpMul:
		op = ir.Mul
	case ast.OpDiv:
		op = ir.Div
	default:
		return false
	}
	if bin.T == sema.Float && (op == ir.Mul || op == ir.Div) {
		return false
	}
	b.emit(&ir.Arith{Op: op, Dst: v, Src: l.expr(b, bin.R)})
	return true
}

// storeEntity retags the entities the value selects.
func (l *lowerer) storeEntity(b *block, v *ir.Variable, value sema.Expr) {
	if v.Owner == b.fc.fn && v.Owner.IsUser() {
		v.Owner.Main.RecordTag(v)
	}
	var src ir.Atom
	if value != nil {
		if _, null := value.(*sema.NullLit); !null {
			src = l.receiver(b, value)
		}
	}
	if src == ir.Atom(v) {
		return
	}
	b.emit(clearTag(v))
	if src == nil {
		return
	}
	b.emit(&ir.Raw{Parts: []ir.RawPart{ir.Text("tag "), ir.Target{Atom: src}, ir.Text(" add "), ir.TagName{Var: v}}})
}

func (l *lowerer) storeProperty(b *block, p *sema.PropRef, value sema.Expr) {
	recv := l.receiver(b, p.Receiver)
	src := l.expr(b, value)
	b.emit(&ir.Assign{Dst: l.mod.Property(recv, p.Name), Src: src})
}

// condition evaluates a condition into a temporary the branch bodies
// cannot overwrite.
func (l *lowerer) condition(b *block, e sema.Expr) *ir.Variable {
	a := l.expr(b, e)
	if v, ok := a.(*ir.Variable); ok && v.Kind == ir.VarPseudo {
		return v
	}
	t := b.temp()
	b.emit(&ir.Assign{Dst: t, Src: a})
	return t
}

// ifChain lowers if/elif/else. Each arm is a fragment; elif conditions are
// evaluated in their own fragment only once every earlier arm failed.
func (l *lowerer) ifChain(b *block, s *sema.If) {
	fn := b.fc.fn
	k := fn.Label()
	cur := b
	for i, br := range s.Branches {
		name := fmt.Sprintf("if%d", k)
		if i > 0 {
			name = fmt.Sprintf("elif%d_%d", k, i)
		}
		t := l.condition(cur, br.Cond)
		arm := fn.NewFragment(name)
		cur.emit(&ir.CondInvoke{Guards: []ir.Guard{{Var: t, Want: true}}, Fragment: arm})
		l.stmts(cur.child(arm), br.Body)

		last := i == len(s.Branches)-1
		if last && !s.HasElse {
			return
		}
		nextName := fmt.Sprintf("else%d", k)
		if !last {
			nextName = fmt.Sprintf("next%d_%d", k, i+1)
		}
		next := fn.NewFragment(nextName)
		cur.emit(&ir.CondInvoke{Guards: []ir.Guard{{Var: t, Want: false}}, Fragment: next})
		cur = cur.child(next)
	}
	l.stmts(cur, s.Else)
}

// loopGuards are the guards of a loop's self-invocation.
func loopGuards(b *block, t *ir.Variable) []ir.Guard {
	g := []ir.Guard{{Var: t, Want: true}}
	if b.fc.retFlag != nil {
		g = append(g, ir.Guard{Var: b.fc.retFlag, Want: false})
	}
	return g
}

// while lowers a loop as a check fragment that runs the body and then
// invokes itself while the condition holds.
func (l *lowerer) while(b *block, s *sema.While) {
	fn := b.fc.fn
	k := fn.Label()
	check := fn.NewFragment(fmt.Sprintf("while%d_check", k))
	body := fn.NewFragment(fmt.Sprintf("while%d_body", k))
	b.emit(&ir.CondInvoke{Fragment: check})

	cb := b.child(check)
	t := l.condition(cb, s.Cond)
	cb.emit(&ir.CondInvoke{Guards: []ir.Guard{{Var: t, Want: true}}, Fragment: body})
	cb.emit(&ir.CondInvoke{Guards: loopGuards(b, t), Fragment: check})
	l.stmts(cb.child(body), s.Body)
}

// forLoop iterates over [From, To). The bound is evaluated once into a
// hidden slot; the increment closes the body.
func (l *lowerer) forLoop(b *block, s *sema.For) {
	fn := b.fc.fn
	k := fn.Label()
	v := l.variable(s.Var)
	end := fn.Hidden(fmt.Sprintf("#end%d", k))
	b.emit(&ir.Assign{Dst: v, Src: l.expr(b, s.From)})
	b.emit(&ir.Assign{Dst: end, Src: l.expr(b, s.To)})

	check := fn.NewFragment(fmt.Sprintf("for%d_check", k))
	body := fn.NewFragment(fmt.Sprintf("for%d_body", k))
	b.emit(&ir.CondInvoke{Fragment: check})

	cb := b.child(check)
	t := cb.temp()
	cb.emit(&ir.Compare{Op: ir.Gt, Dst: t, L: end, R: v})
	cb.emit(&ir.CondInvoke{Guards: []ir.Guard{{Var: t, Want: true}}, Fragment: body})
	cb.emit(&ir.CondInvoke{Guards: loopGuards(b, t), Fragment: check})

	ref := &sema.VarRef{Var: s.Var}
	step := &sema.Assign{Target: ref, Value: &sema.Binary{Op: ast.OpAdd, L: ref, R: &sema.IntLit{Value: 1}, T: sema.Int}}
	l.stmts(cb.child(body), append(s.Body[:len(s.Body):len(s.Body)], step))
}

func (l *lowerer) ret(b *block, s *sema.Return) {
	fn := b.fc.fn
	if s.Value != nil {
		b.emit(&ir.Assign{Dst: fn.Return, Src: l.expr(b, s.Value)})
	}
	if b.fc.retFlag != nil {
		b.emit(&ir.Assign{Dst: b.fc.retFlag, Src: l.mod.Int(1)})
	}
}
