package ast

import "reflect"

// IsNil reports whether n is nil or a typed nil pointer.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Equal compares two trees structurally: variant, then variant fields, then
// children pairwise. Spans are not compared.
func Equal(a, b Node) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !fieldsEqual(a, b) {
		return false
	}
	ca, cb := a.Children(), b.Children()
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !Equal(ca[i], cb[i]) {
			return false
		}
	}
	return true
}

// fieldsEqual compares the non-child fields of two nodes of the same variant.
func fieldsEqual(a, b Node) bool {
	switch x := a.(type) {
	case *Root, *Scope, *Stmnt, *CodeBlock, *ElifStruct, *ElseStruct,
		*WhileLoop, *Assignment, *ReturnLn, *LiteralNull, *LiteralWorld,
		*LiteralThis, *Not, *Negate, *Call, *NullCoalesce:
		return true
	case *FunctionDecl:
		y := b.(*FunctionDecl)
		return x.Name == y.Name && x.Exec == y.Exec
	case *ParamDecl:
		return x.Name == b.(*ParamDecl).Name
	case *Decorator:
		return x.Name == b.(*Decorator).Name
	case *TypeNode:
		return x.Name == b.(*TypeNode).Name
	case *VariableDecl:
		return x.Name == b.(*VariableDecl).Name
	case *UserComment:
		return x.Text == b.(*UserComment).Text
	case *IfStruct:
		return true
	case *ForLoop:
		return x.Var == b.(*ForLoop).Var
	case *Include:
		y := b.(*Include)
		return x.Resource == y.Resource && x.Dest == y.Dest
	case *LiteralInt:
		return x.Value == b.(*LiteralInt).Value
	case *LiteralFloat:
		return x.Value == b.(*LiteralFloat).Value
	case *LiteralString:
		return x.Value == b.(*LiteralString).Value
	case *LiteralBool:
		return x.Value == b.(*LiteralBool).Value
	case *Identifier:
		return x.Name == b.(*Identifier).Name
	case *Selector:
		return x.Text == b.(*Selector).Text
	case *Arithmetic:
		return x.Op == b.(*Arithmetic).Op
	case *Comparison:
		return x.Op == b.(*Comparison).Op
	case *Logical:
		return x.Op == b.(*Logical).Op
	case *CallArg:
		return x.Name == b.(*CallArg).Name
	case *PropertyAccess:
		return x.Name == b.(*PropertyAccess).Name
	}
	return false
}
