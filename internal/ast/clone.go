package ast

import "github.com/roach88/packc/internal/diag"

// Clone deep-copies a subtree. The copy shares no storage with n; spans are
// copied by value.
func Clone[T Node](n T) T {
	if IsNil(n) {
		return n
	}
	return cloneNode(n).(T)
}

func cloneAll[T Node](ns []T) []T {
	if ns == nil {
		return nil
	}
	out := make([]T, len(ns))
	for i, n := range ns {
		out[i] = Clone(n)
	}
	return out
}

// cloneAny clones an interface-typed operand, keeping nil as nil.
func cloneAny(n Node) Node {
	if IsNil(n) {
		return nil
	}
	return cloneNode(n)
}

func cloneNode(n Node) Node {
	switch x := n.(type) {
	case *Root:
		return &Root{Base: x.Base, Body: Clone(x.Body)}
	case *Scope:
		return &Scope{Base: x.Base, Stmts: cloneAll(x.Stmts)}
	case *Stmnt:
		return &Stmnt{Base: x.Base, Inner: cloneAny(x.Inner)}
	case *CodeBlock:
		return &CodeBlock{Base: x.Base, Body: Clone(x.Body)}
	case *FunctionDecl:
		return &FunctionDecl{
			Base:       x.Base,
			Name:       x.Name,
			Exec:       x.Exec,
			Return:     Clone(x.Return),
			Decorators: cloneAll(x.Decorators),
			Params:     cloneAll(x.Params),
			Body:       Clone(x.Body),
		}
	case *ParamDecl:
		return &ParamDecl{Base: x.Base, Name: x.Name, Type: Clone(x.Type), Default: cloneAny(x.Default)}
	case *Decorator:
		c := *x
		return &c
	case *TypeNode:
		c := *x
		return &c
	case *VariableDecl:
		return &VariableDecl{Base: x.Base, Name: x.Name, Type: Clone(x.Type), Value: cloneAny(x.Value)}
	case *Assignment:
		return &Assignment{Base: x.Base, Target: cloneAny(x.Target), Value: cloneAny(x.Value)}
	case *UserComment:
		c := *x
		return &c
	case *ReturnLn:
		return &ReturnLn{Base: x.Base, Value: cloneAny(x.Value)}
	case *IfStruct:
		return &IfStruct{
			Base:  x.Base,
			Cond:  cloneAny(x.Cond),
			Body:  Clone(x.Body),
			Elifs: cloneAll(x.Elifs),
			Else:  Clone(x.Else),
		}
	case *ElifStruct:
		return &ElifStruct{Base: x.Base, Cond: cloneAny(x.Cond), Body: Clone(x.Body)}
	case *ElseStruct:
		return &ElseStruct{Base: x.Base, Body: Clone(x.Body)}
	case *WhileLoop:
		return &WhileLoop{Base: x.Base, Cond: cloneAny(x.Cond), Body: Clone(x.Body)}
	case *ForLoop:
		return &ForLoop{Base: x.Base, Var: x.Var, From: cloneAny(x.From), To: cloneAny(x.To), Body: Clone(x.Body)}
	case *Include:
		c := *x
		return &c
	case *LiteralInt:
		c := *x
		return &c
	case *LiteralFloat:
		c := *x
		return &c
	case *LiteralString:
		c := *x
		return &c
	case *LiteralBool:
		c := *x
		return &c
	case *LiteralNull:
		c := *x
		return &c
	case *LiteralWorld:
		c := *x
		return &c
	case *LiteralThis:
		c := *x
		return &c
	case *Identifier:
		c := *x
		return &c
	case *Selector:
		c := *x
		return &c
	case *Arithmetic:
		return &Arithmetic{Base: x.Base, Op: x.Op, Left: cloneAny(x.Left), Right: cloneAny(x.Right)}
	case *Comparison:
		return &Comparison{Base: x.Base, Op: x.Op, Left: cloneAny(x.Left), Right: cloneAny(x.Right)}
	case *Logical:
		return &Logical{Base: x.Base, Op: x.Op, Left: cloneAny(x.Left), Right: cloneAny(x.Right)}
	case *Not:
		return &Not{Base: x.Base, Operand: cloneAny(x.Operand)}
	case *Negate:
		return &Negate{Base: x.Base, Operand: cloneAny(x.Operand)}
	case *Call:
		return &Call{Base: x.Base, Callee: cloneAny(x.Callee), Args: cloneAll(x.Args)}
	case *CallArg:
		return &CallArg{Base: x.Base, Name: x.Name, Value: cloneAny(x.Value)}
	case *PropertyAccess:
		return &PropertyAccess{Base: x.Base, Receiver: cloneAny(x.Receiver), Name: x.Name}
	case *NullCoalesce:
		return &NullCoalesce{Base: x.Base, Left: cloneAny(x.Left), Right: cloneAny(x.Right)}
	}
	diag.Unreachable(n)
	return nil
}
