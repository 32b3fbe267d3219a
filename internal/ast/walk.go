package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if IsNil(n) || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Contains reports whether any node under n (n included) satisfies pred.
func Contains(n Node, pred func(Node) bool) bool {
	found := false
	Walk(n, func(m Node) bool {
		if found {
			return false
		}
		if pred(m) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Dump renders a compact single-line form of the tree, e.g.
// Root(Scope(Stmnt(LiteralInt(42)))).
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n)
	return b.String()
}

func dump(b *strings.Builder, n Node) {
	if IsNil(n) {
		b.WriteString("nil")
		return
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
	b.WriteString(name)
	b.WriteByte('(')

	var parts []string
	if attr := attrOf(n); attr != "" {
		parts = append(parts, attr)
	}
	for _, c := range n.Children() {
		var cb strings.Builder
		dump(&cb, c)
		parts = append(parts, cb.String())
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte(')')
}

func attrOf(n Node) string {
	switch x := n.(type) {
	case *FunctionDecl:
		if x.Exec == ExecEntity {
			return "entity " + x.Name
		}
		return x.Name
	case *ParamDecl:
		return x.Name
	case *Decorator:
		return "@" + x.Name
	case *TypeNode:
		return x.Name
	case *VariableDecl:
		return x.Name
	case *UserComment:
		return strconv.Quote(x.Text)
	case *ForLoop:
		return x.Var
	case *Include:
		return strconv.Quote(x.Resource) + " -> " + strconv.Quote(x.Dest)
	case *LiteralInt:
		return strconv.FormatInt(x.Value, 10)
	case *LiteralFloat:
		return strconv.FormatFloat(x.Value, 'g', -1, 64)
	case *LiteralString:
		return strconv.Quote(x.Value)
	case *LiteralBool:
		return strconv.FormatBool(x.Value)
	case *Identifier:
		return x.Name
	case *Selector:
		return x.Text
	case *Arithmetic:
		return string(x.Op)
	case *Comparison:
		return string(x.Op)
	case *Logical:
		return string(x.Op)
	case *CallArg:
		return x.Name
	case *PropertyAccess:
		return x.Name
	}
	return ""
}
