package sema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/parser"
)

func resolve(t *testing.T, src string) (*Program, error) {
	t.Helper()
	root, err := parser.Parse(src)
	require.NoError(t, err)
	return Resolve(root)
}

func mustResolve(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := resolve(t, src)
	require.NoError(t, err)
	return prog
}

func TestResolveGlobals(t *testing.T) {
	prog := mustResolve(t, "var foo: int = 3 + 4\nfoo = foo * 2")
	require.Len(t, prog.Globals, 1)
	foo := prog.Globals[0]
	assert.Equal(t, VarGlobal, foo.Kind)
	assert.Nil(t, foo.Owner)
	require.Len(t, prog.Body, 2)

	decl := prog.Body[0].(*VarDecl)
	assert.Same(t, foo, decl.Var)
	sum := decl.Value.(*Binary)
	assert.Equal(t, ast.OpAdd, sum.Op)
	assert.Equal(t, Int, sum.Type())

	assign := prog.Body[1].(*Assign)
	assert.Same(t, foo, assign.Target.(*VarRef).Var)
}

func TestResolveFunctionsForwardReference(t *testing.T) {
	prog := mustResolve(t, `
def a() -> int { return b(2) }
def b(x: int, y: int = 10) -> int { return x + y }
`)
	require.Len(t, prog.Functions, 2)
	a, b := prog.Functions[0], prog.Functions[1]
	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 1, b.Index)

	ret := a.Body[0].(*Return)
	call := ret.Value.(*Call)
	assert.Same(t, b, call.Fn)
	require.Len(t, call.Args, 2)
	assert.Equal(t, int64(2), call.Args[0].(*IntLit).Value)
	assert.Equal(t, int64(10), call.Args[1].(*IntLit).Value, "default expanded")
	assert.Nil(t, call.Receiver)
}

func TestResolveDefaultsAreIndependentCopies(t *testing.T) {
	prog := mustResolve(t, `
def f(x: int = 1 + 2) {}
f()
f()
`)
	c1 := prog.Body[0].(*ExprStmt).X.(*Call)
	c2 := prog.Body[1].(*ExprStmt).X.(*Call)
	assert.NotSame(t, c1.Args[0], c2.Args[0])
	assert.NotNil(t, prog.Functions[0].Defaults[0])
}

func TestResolveNamedArguments(t *testing.T) {
	prog := mustResolve(t, `
def f(a: int = 1, b: int = 2) {}
f(b=5)
`)
	call := prog.Body[0].(*ExprStmt).X.(*Call)
	assert.Equal(t, int64(1), call.Args[0].(*IntLit).Value)
	assert.Equal(t, int64(5), call.Args[1].(*IntLit).Value)
}

func TestResolvePromotion(t *testing.T) {
	prog := mustResolve(t, `
var i: int = 2
var f: float = i * 1.5
var g: float = 3
`)
	mul := prog.Body[1].(*VarDecl).Value.(*Binary)
	assert.Equal(t, Float, mul.T)
	_, ok := mul.L.(*Promote)
	assert.True(t, ok, "int operand promoted")

	lit, ok := prog.Body[2].(*VarDecl).Value.(*FloatLit)
	require.True(t, ok, "int literal converted in place")
	assert.Equal(t, 3.0, lit.Value)
}

func TestResolveEntityContext(t *testing.T) {
	prog := mustResolve(t, `
def entity jump(h: int = 1) { this.height = h }
def entity twice() { jump(); jump() }
var e: entity = @e[type=pig,limit=1]
e.jump(h=3)
@a.jump()
`)
	jump := prog.Functions[0]
	assign := jump.Body[0].(*Assign)
	prop := assign.Target.(*PropRef)
	assert.Equal(t, "height", prop.Name)
	_, isThis := prop.Receiver.(*ThisRef)
	assert.True(t, isThis)

	inner := prog.Functions[1].Body[0].(*ExprStmt).X.(*Call)
	_, isThis = inner.Receiver.(*ThisRef)
	assert.True(t, isThis, "implicit receiver inside an entity function")

	onVar := prog.Body[1].(*ExprStmt).X.(*Call)
	assert.Equal(t, Entity, onVar.Receiver.Type())
	onSel := prog.Body[2].(*ExprStmt).X.(*Call)
	assert.Equal(t, "@a", onSel.Receiver.(*SelectorRef).Text)
}

func TestResolveDecorators(t *testing.T) {
	prog := mustResolve(t, `
@tick
def step() {}
@load
@tick
def boot() {}
`)
	require.Len(t, prog.Tick, 2)
	assert.Equal(t, "step", prog.Tick[0].Name)
	require.Len(t, prog.Load, 1)
	assert.Equal(t, "boot", prog.Load[0].Name)
}

func TestResolveForLoopDeclaresCounter(t *testing.T) {
	prog := mustResolve(t, "def f() { for i in 0..3 { print(i) } }")
	f := prog.Functions[0]
	require.Len(t, f.Locals, 1)
	assert.Equal(t, "i", f.Locals[0].Name)
	assert.Equal(t, VarLocal, f.Locals[0].Kind)
	assert.Same(t, f, f.Locals[0].Owner)
}

func TestResolveIncludes(t *testing.T) {
	prog := mustResolve(t, `include "loot" -> "tables"`)
	require.Len(t, prog.Includes, 1)
	assert.Equal(t, "loot", prog.Includes[0].Resource)
	assert.Equal(t, "tables", prog.Includes[0].Dest)
	assert.Empty(t, prog.Body)
}

func TestContainsCall(t *testing.T) {
	prog := mustResolve(t, `
def f() -> bool { return true }
var a: bool = true and f()
var b: bool = true and not false
`)
	assert.True(t, ContainsCall(prog.Body[0].(*VarDecl).Value))
	assert.False(t, ContainsCall(prog.Body[1].(*VarDecl).Value))
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		code        string
		line        int
		contains    string
		suggestions []string
	}{
		{"return at module level", "return 5", diag.ErrReturnOutside, 1, "Return statement outside of function", nil},
		{"undefined variable", "var count: int = 1\nprint(coutn)", diag.ErrUndefinedName, 2, `undefined name "coutn"`, nil},
		{"undefined suggests", "var counter: int = 1\nprint(countr)", diag.ErrUndefinedName, 2, `"countr"`, []string{"counter"}},
		{"undefined function", "def hello() {}\nhelo()", diag.ErrUndefinedName, 2, `undefined function "helo"`, []string{"hello"}},
		{"type mismatch", "var x: int = true", diag.ErrTypeMismatch, 1, "cannot use bool as int", nil},
		{"str variable", `var s: str = "a"`, diag.ErrTypeMismatch, 1, "type str", nil},
		{"condition type", "if 1 { }", diag.ErrTypeMismatch, 1, "condition must be bool", nil},
		{"too many args", "def f(a: int) {}\nf(1, 2)", diag.ErrArgumentCount, 2, "takes 1 argument", nil},
		{"missing arg", "def f(a: int) {}\nf()", diag.ErrArgumentCount, 2, `missing argument "a"`, nil},
		{"unknown named arg", "def f(amount: int) {}\nf(amout=1)", diag.ErrArgumentCount, 2, `no parameter "amout"`, []string{"amount"}},
		{"duplicate variable", "var x: int\nvar x: int", diag.ErrDuplicate, 2, "already declared", nil},
		{"duplicate function", "def f() {}\ndef f() {}", diag.ErrDuplicate, 2, "already declared", nil},
		{"duplicate parameter", "def f(a: int, a: int) {}", diag.ErrDuplicate, 1, "duplicate parameter", nil},
		{"bad operator", "var b: bool = true + 1", diag.ErrInvalidOperator, 1, "operator + is not defined", nil},
		{"unknown decorator", "@tickk\ndef f() {}", diag.ErrUnknownDecorator, 1, "@tickk", []string{"tick"}},
		{"decorated params", "@tick\ndef f(a: int) {}", diag.ErrDecoratedParams, 1, "without parameters", nil},
		{"nested function", "def f() { def g() {} }", diag.ErrNotModuleLevel, 1, "module level", nil},
		{"nested include", `def f() { include "x" }`, diag.ErrNotModuleLevel, 1, "module level", nil},
		{"variable exponent", "var x: int = 2\nvar y: int = 3 ^ x", diag.ErrBadExponent, 2, "exponent", nil},
		{"negative exponent", "var y: int = 3 ^ -1", diag.ErrBadExponent, 1, "exponent", nil},
		{"missing return value", "def f() -> int { return }", diag.ErrReturnValue, 1, "must return a int", nil},
		{"void return value", "def f() { return 1 }", diag.ErrReturnValue, 1, "returns void", nil},
		{"void used as value", "def f() {}\nvar x: int = f()", diag.ErrTypeMismatch, 2, "cannot use void as int", nil},
		{"property of int", "var x: int\nx.y = 1", diag.ErrPropertyReceiver, 2, `property "y"`, nil},
		{"entity call without receiver", "def entity f() {}\nf()", diag.ErrPropertyReceiver, 2, "needs an entity receiver", nil},
		{"world call on entity", "def f() {}\n@s.f()", diag.ErrPropertyReceiver, 2, "world function", nil},
		{"cmd needs literal", "var x: int\ncmd(x)", diag.ErrTypeMismatch, 2, "string literal", nil},
		{"self-referential default", "def f(a: int = f()) -> int { return a }", diag.ErrArgumentCount, 1, "depends on itself", nil},
		{"entity parameter", "def f(e: entity) {}", diag.ErrTypeMismatch, 1, "entity values cannot be passed", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(t, tt.src)
			require.Error(t, err)
			var ce *diag.ConversionError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.code, ce.Code, ce.Error())
			assert.Equal(t, tt.line, ce.Span.Start.Line)
			assert.Contains(t, ce.Message, tt.contains)
			assert.Equal(t, tt.suggestions, ce.Suggestions)
		})
	}
}

func TestReturnOutsideFunctionSpan(t *testing.T) {
	_, err := resolve(t, "var a: int = 1\nreturn 5")
	var ce *diag.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Span.Start.Line)
	assert.Equal(t, 1, ce.Span.Start.Col)
	assert.Equal(t, 8, ce.Span.End.Col)
	for _, word := range []string{"Return", "outside", "function"} {
		assert.Contains(t, ce.Error(), word)
	}
}
