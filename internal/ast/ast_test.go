package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packc/internal/span"
)

func at(line, col int) Base { return Base{Loc: span.Point(line, col)} }

func sampleTree() *Root {
	cond := &Comparison{Base: at(3, 8), Op: OpGt, Left: &Identifier{Base: at(3, 8), Name: "n"}, Right: &LiteralInt{Base: at(3, 12), Value: 0}}
	call := &Call{
		Base:   at(4, 16),
		Callee: &Identifier{Base: at(4, 16), Name: "fact"},
		Args: []*CallArg{{
			Base:  at(4, 21),
			Value: &Arithmetic{Base: at(4, 21), Op: OpSub, Left: &Identifier{Name: "n"}, Right: &LiteralInt{Value: 1}},
		}},
	}
	fn := &FunctionDecl{
		Base:   at(1, 1),
		Name:   "fact",
		Return: &TypeNode{Name: "int"},
		Params: []*ParamDecl{{Name: "n", Type: &TypeNode{Name: "int"}}},
		Body: &CodeBlock{Body: &Scope{Stmts: []*Stmnt{
			{Inner: &IfStruct{
				Cond: cond,
				Body: &CodeBlock{Body: &Scope{Stmts: []*Stmnt{
					{Inner: &ReturnLn{Value: &Arithmetic{Op: OpMul, Left: &Identifier{Name: "n"}, Right: call}}},
				}}},
			}},
			{Inner: &ReturnLn{Value: &LiteralInt{Value: 1}}},
		}}},
	}
	return &Root{Body: &Scope{Stmts: []*Stmnt{{Inner: fn}}}}
}

func TestDumpLiteral(t *testing.T) {
	root := &Root{Body: &Scope{Stmts: []*Stmnt{{Inner: &LiteralInt{Value: 42}}}}}
	assert.Equal(t, "Root(Scope(Stmnt(LiteralInt(42))))", Dump(root))
}

func TestDumpAttributes(t *testing.T) {
	decl := &VariableDecl{
		Name:  "foo",
		Type:  &TypeNode{Name: "int"},
		Value: &Arithmetic{Op: OpAdd, Left: &LiteralInt{Value: 3}, Right: &LiteralInt{Value: 4}},
	}
	assert.Equal(t, "VariableDecl(foo, TypeNode(int), Arithmetic(+, LiteralInt(3), LiteralInt(4)))", Dump(decl))
	assert.Equal(t, "nil", Dump(nil))
}

func TestCloneIsDeepAndEqual(t *testing.T) {
	orig := sampleTree()
	cp := Clone(orig)

	require.NotSame(t, orig, cp)
	require.True(t, Equal(orig, cp))
	assert.Equal(t, Dump(orig), Dump(cp))

	// Spans survive cloning unchanged.
	origFn := orig.Body.Stmts[0].Inner.(*FunctionDecl)
	cpFn := cp.Body.Stmts[0].Inner.(*FunctionDecl)
	assert.Equal(t, origFn.Span(), cpFn.Span())
	assert.NotSame(t, origFn.Params[0], cpFn.Params[0])
}

func TestCloneMutationDoesNotLeak(t *testing.T) {
	orig := sampleTree()
	before := Dump(orig)
	cp := Clone(orig)

	fn := cp.Body.Stmts[0].Inner.(*FunctionDecl)
	fn.Name = "other"
	fn.Params[0].Type.Name = "float"
	ifs := fn.Body.Body.Stmts[0].Inner.(*IfStruct)
	ifs.Cond.(*Comparison).Right.(*LiteralInt).Value = 99
	fn.Body.Body.Stmts = append(fn.Body.Body.Stmts, &Stmnt{Inner: &LiteralNull{}})

	assert.Equal(t, before, Dump(orig))
	assert.False(t, Equal(orig, cp))
}

func TestEqualIgnoresSpans(t *testing.T) {
	a := &LiteralInt{Base: at(1, 1), Value: 7}
	b := &LiteralInt{Base: at(9, 4), Value: 7}
	assert.True(t, Equal(a, b))
}

func TestEqualDistinguishes(t *testing.T) {
	tests := []struct {
		name string
		a, b Node
	}{
		{"variant", &LiteralInt{Value: 1}, &LiteralFloat{Value: 1}},
		{"field", &Identifier{Name: "a"}, &Identifier{Name: "b"}},
		{"operator", &Arithmetic{Op: OpAdd, Left: &LiteralInt{}, Right: &LiteralInt{}}, &Arithmetic{Op: OpSub, Left: &LiteralInt{}, Right: &LiteralInt{}}},
		{"child", &Not{Operand: &LiteralBool{Value: true}}, &Not{Operand: &LiteralBool{Value: false}}},
		{"optional child", &ReturnLn{}, &ReturnLn{Value: &LiteralInt{}}},
		{"nil", &LiteralNull{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Equal(tt.a, tt.b))
			assert.False(t, Equal(tt.b, tt.a))
		})
	}
}

func TestWalkPreOrder(t *testing.T) {
	var names []string
	Walk(sampleTree(), func(n Node) bool {
		if id, ok := n.(*Identifier); ok {
			names = append(names, id.Name)
		}
		return true
	})
	assert.Equal(t, []string{"n", "n", "fact", "n"}, names)
}

func TestContains(t *testing.T) {
	isCall := func(n Node) bool { _, ok := n.(*Call); return ok }
	assert.True(t, Contains(sampleTree(), isCall))
	assert.False(t, Contains(&Arithmetic{Op: OpAdd, Left: &LiteralInt{}, Right: &Identifier{Name: "x"}}, isCall))
}

func TestChildrenSkipsAbsentOperands(t *testing.T) {
	decl := &VariableDecl{Name: "x", Type: &TypeNode{Name: "int"}}
	assert.Len(t, decl.Children(), 1)
	fn := &FunctionDecl{Name: "f", Body: &CodeBlock{Body: &Scope{}}}
	assert.Len(t, fn.Children(), 1)
}
