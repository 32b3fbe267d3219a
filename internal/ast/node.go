// Package ast defines the syntax tree produced by the parser.
//
// The node set is closed: Node is sealed by an unexported method, so every
// consumer can switch exhaustively over the concrete types below. Each node
// exclusively owns its children; Clone produces an independent copy and Equal
// compares structure while ignoring source spans.
package ast

import "github.com/roach88/packc/internal/span"

// Node is implemented by every syntax tree variant.
type Node interface {
	Span() span.Span
	Children() []Node
	node()
}

// Base carries the source span shared by all nodes.
type Base struct {
	Loc span.Span
}

func (b *Base) Span() span.Span { return b.Loc }
func (*Base) node()             {}

// ExecType is the implicit receiver a function runs as.
type ExecType int

const (
	ExecWorld ExecType = iota
	ExecEntity
)

func (e ExecType) String() string {
	if e == ExecEntity {
		return "entity"
	}
	return "world"
}

// ArithOp is an arithmetic operator.
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
	OpMod ArithOp = "%"
	OpPow ArithOp = "^"
)

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// LogicOp is a boolean connective.
type LogicOp string

const (
	OpAnd LogicOp = "and"
	OpOr  LogicOp = "or"
)

// ---------------------------------------------------------------------------
// Structure

// Root is the whole program.
type Root struct {
	Base
	Body *Scope
}

// Scope is an ordered list of statements.
type Scope struct {
	Base
	Stmts []*Stmnt
}

// Stmnt wraps one statement-level node.
type Stmnt struct {
	Base
	Inner Node
}

// CodeBlock is a braced body.
type CodeBlock struct {
	Base
	Body *Scope
}

// FunctionDecl declares a function at module level.
type FunctionDecl struct {
	Base
	Name       string
	Exec       ExecType
	Return     *TypeNode // nil for void
	Decorators []*Decorator
	Params     []*ParamDecl
	Body       *CodeBlock
}

// ParamDecl is one function parameter.
type ParamDecl struct {
	Base
	Name    string
	Type    *TypeNode
	Default Node // nil when required
}

// Decorator is an @name annotation on a function.
type Decorator struct {
	Base
	Name string
}

// TypeNode names a type.
type TypeNode struct {
	Base
	Name string
}

// VariableDecl is `var name: type [= value]`.
type VariableDecl struct {
	Base
	Name  string
	Type  *TypeNode
	Value Node // nil when absent
}

// Assignment is `target = value`.
type Assignment struct {
	Base
	Target Node
	Value  Node
}

// UserComment is a `#` comment kept in the generated output.
type UserComment struct {
	Base
	Text string
}

// ReturnLn is `return [value]`.
type ReturnLn struct {
	Base
	Value Node // nil for a bare return
}

// IfStruct is an if/elif/else chain.
type IfStruct struct {
	Base
	Cond  Node
	Body  *CodeBlock
	Elifs []*ElifStruct
	Else  *ElseStruct
}

// ElifStruct is one elif arm.
type ElifStruct struct {
	Base
	Cond Node
	Body *CodeBlock
}

// ElseStruct is the final else arm.
type ElseStruct struct {
	Base
	Body *CodeBlock
}

// WhileLoop is `while cond { ... }`.
type WhileLoop struct {
	Base
	Cond Node
	Body *CodeBlock
}

// ForLoop is `for name in from..to { ... }`; the upper bound is exclusive.
type ForLoop struct {
	Base
	Var  string
	From Node
	To   Node
	Body *CodeBlock
}

// Include splices an external file or folder into the output.
type Include struct {
	Base
	Resource string
	Dest     string
}

// ---------------------------------------------------------------------------
// Expressions

type LiteralInt struct {
	Base
	Value int64
}

type LiteralFloat struct {
	Base
	Value float64
}

type LiteralString struct {
	Base
	Value string
}

type LiteralBool struct {
	Base
	Value bool
}

type LiteralNull struct{ Base }

type LiteralWorld struct{ Base }

type LiteralThis struct{ Base }

type Identifier struct {
	Base
	Name string
}

// Selector is a target entity selector such as `@e[type=pig]`.
type Selector struct {
	Base
	Text string
}

type Arithmetic struct {
	Base
	Op          ArithOp
	Left, Right Node
}

type Comparison struct {
	Base
	Op          CompareOp
	Left, Right Node
}

type Logical struct {
	Base
	Op          LogicOp
	Left, Right Node
}

type Not struct {
	Base
	Operand Node
}

type Negate struct {
	Base
	Operand Node
}

// Call invokes a function; Callee is an Identifier or a PropertyAccess whose
// receiver becomes the executor.
type Call struct {
	Base
	Callee Node
	Args   []*CallArg
}

// CallArg is one argument, optionally named (`f(b=2)`).
type CallArg struct {
	Base
	Name  string
	Value Node
}

type PropertyAccess struct {
	Base
	Receiver Node
	Name     string
}

type NullCoalesce struct {
	Base
	Left, Right Node
}

// ---------------------------------------------------------------------------
// Children

func (n *Root) Children() []Node { return nodes(n.Body) }

func (n *Scope) Children() []Node {
	out := make([]Node, 0, len(n.Stmts))
	for _, s := range n.Stmts {
		out = append(out, s)
	}
	return out
}

func (n *Stmnt) Children() []Node     { return nodes(n.Inner) }
func (n *CodeBlock) Children() []Node { return nodes(n.Body) }

func (n *FunctionDecl) Children() []Node {
	var out []Node
	for _, d := range n.Decorators {
		out = append(out, d)
	}
	for _, p := range n.Params {
		out = append(out, p)
	}
	if n.Return != nil {
		out = append(out, n.Return)
	}
	return append(out, nodes(n.Body)...)
}

func (n *ParamDecl) Children() []Node {
	out := nodes(n.Type)
	return append(out, nodes(n.Default)...)
}

func (n *Decorator) Children() []Node { return nil }
func (n *TypeNode) Children() []Node  { return nil }

func (n *VariableDecl) Children() []Node {
	out := nodes(n.Type)
	return append(out, nodes(n.Value)...)
}

func (n *Assignment) Children() []Node  { return nodes(n.Target, n.Value) }
func (n *UserComment) Children() []Node { return nil }
func (n *ReturnLn) Children() []Node    { return nodes(n.Value) }

func (n *IfStruct) Children() []Node {
	out := nodes(n.Cond, n.Body)
	for _, e := range n.Elifs {
		out = append(out, e)
	}
	return append(out, nodes(n.Else)...)
}

func (n *ElifStruct) Children() []Node { return nodes(n.Cond, n.Body) }
func (n *ElseStruct) Children() []Node { return nodes(n.Body) }
func (n *WhileLoop) Children() []Node  { return nodes(n.Cond, n.Body) }
func (n *ForLoop) Children() []Node    { return nodes(n.From, n.To, n.Body) }
func (n *Include) Children() []Node    { return nil }

func (n *LiteralInt) Children() []Node    { return nil }
func (n *LiteralFloat) Children() []Node  { return nil }
func (n *LiteralString) Children() []Node { return nil }
func (n *LiteralBool) Children() []Node   { return nil }
func (n *LiteralNull) Children() []Node   { return nil }
func (n *LiteralWorld) Children() []Node  { return nil }
func (n *LiteralThis) Children() []Node   { return nil }
func (n *Identifier) Children() []Node    { return nil }
func (n *Selector) Children() []Node      { return nil }

func (n *Arithmetic) Children() []Node   { return nodes(n.Left, n.Right) }
func (n *Comparison) Children() []Node   { return nodes(n.Left, n.Right) }
func (n *Logical) Children() []Node      { return nodes(n.Left, n.Right) }
func (n *Not) Children() []Node          { return nodes(n.Operand) }
func (n *Negate) Children() []Node       { return nodes(n.Operand) }
func (n *NullCoalesce) Children() []Node { return nodes(n.Left, n.Right) }
func (n *PropertyAccess) Children() []Node {
	return nodes(n.Receiver)
}

func (n *Call) Children() []Node {
	out := nodes(n.Callee)
	for _, a := range n.Args {
		out = append(out, a)
	}
	return out
}

func (n *CallArg) Children() []Node { return nodes(n.Value) }

// nodes collects the non-nil operands. Typed nil pointers stored in a Node
// interface are dropped as well.
func nodes(ns ...Node) []Node {
	var out []Node
	for _, n := range ns {
		if !IsNil(n) {
			out = append(out, n)
		}
	}
	return out
}
