package sema

import (
	"github.com/roach88/packc/internal/ast"
	"github.com/roach88/packc/internal/span"
)

// Program is the resolved form of a whole source file.
type Program struct {
	Functions []*Function // declaration order
	Globals   []*Variable // module variables, owned by the module load function
	Body      []Stmt      // module-level executable statements
	Includes  []*Include
	Tick      []*Function // @tick functions, declaration order
	Load      []*Function // @load functions, declaration order
}

// VarKind says where a variable was declared.
type VarKind int

const (
	VarGlobal VarKind = iota
	VarLocal
	VarParam
)

// Variable is one declared storage cell.
type Variable struct {
	Name  string
	Type  Type
	Kind  VarKind
	Owner *Function // nil for module variables
	Decl  span.Span
}

// Function is one declared function.
type Function struct {
	Name       string
	Index      int // declaration order
	Exec       ast.ExecType
	Return     Type
	Params     []*Variable
	Defaults   []ast.Node // parallel to Params; nil when required
	Locals     []*Variable
	Decorators []string
	Body       []Stmt
	Decl       *ast.FunctionDecl
}

// Include splices a resource into the output tree.
type Include struct {
	Resource string
	Dest     string
	Span     span.Span
}

// ---------------------------------------------------------------------------
// Statements

// Stmt is a resolved statement.
type Stmt interface {
	Span() span.Span
	stmt()
}

type stmtBase struct{ Loc span.Span }

func (s *stmtBase) Span() span.Span { return s.Loc }
func (*stmtBase) stmt()             {}

type ExprStmt struct {
	stmtBase
	X Expr
}

// VarDecl declares Var; a nil Value stores null.
type VarDecl struct {
	stmtBase
	Var   *Variable
	Value Expr
}

type Assign struct {
	stmtBase
	Target Expr // *VarRef or *PropRef
	Value  Expr
}

// Branch is one guarded arm of an If.
type Branch struct {
	Cond Expr
	Body []Stmt
}

// If holds the if arm followed by every elif arm.
type If struct {
	stmtBase
	Branches []Branch
	Else     []Stmt
	HasElse  bool
}

type While struct {
	stmtBase
	Cond Expr
	Body []Stmt
}

// For iterates Var over [From, To).
type For struct {
	stmtBase
	Var      *Variable
	From, To Expr
	Body     []Stmt
}

type Return struct {
	stmtBase
	Value Expr // nil for a bare return
}

type Comment struct {
	stmtBase
	Text string
}

// ---------------------------------------------------------------------------
// Expressions

// Expr is a resolved, typed expression.
type Expr interface {
	Type() Type
	Span() span.Span
	expr()
}

type exprBase struct{ Loc span.Span }

func (e *exprBase) Span() span.Span { return e.Loc }
func (*exprBase) expr()             {}

type IntLit struct {
	exprBase
	Value int64
}

type FloatLit struct {
	exprBase
	Value float64
}

type BoolLit struct {
	exprBase
	Value bool
}

type StrLit struct {
	exprBase
	Value string
}

type NullLit struct{ exprBase }

type VarRef struct {
	exprBase
	Var *Variable
}

// ThisRef is the executing entity of an entity function.
type ThisRef struct{ exprBase }

// WorldRef is the implicit global receiver.
type WorldRef struct{ exprBase }

type SelectorRef struct {
	exprBase
	Text string
}

// PropRef is a per-receiver score property. Properties hold ints.
type PropRef struct {
	exprBase
	Receiver Expr // *ThisRef, *WorldRef, *SelectorRef or an entity *VarRef
	Name     string
}

// Binary is arithmetic on operands of the result type T.
type Binary struct {
	exprBase
	Op   ast.ArithOp
	L, R Expr
	T    Type
}

// Compare compares two operands of the same numeric or bool type.
type Compare struct {
	exprBase
	Op   ast.CompareOp
	L, R Expr
}

type Logic struct {
	exprBase
	Op   ast.LogicOp
	L, R Expr
}

type Not struct {
	exprBase
	X Expr
}

type Neg struct {
	exprBase
	X Expr
}

// Coalesce yields L unless it is null, else R.
type Coalesce struct {
	exprBase
	L, R Expr
	T    Type
}

// Promote converts an int operand to fixed-point float.
type Promote struct {
	exprBase
	X Expr
}

// Call invokes a user function. Args are positional with defaults already
// expanded. A nil Receiver means the world; a *ThisRef means the current
// executor.
type Call struct {
	exprBase
	Fn       *Function
	Args     []Expr
	Receiver Expr
}

// Print shows its arguments to every player.
type Print struct {
	exprBase
	Args []Expr
}

// Cmd injects a raw command.
type Cmd struct {
	exprBase
	Text string
}

func (*IntLit) Type() Type      { return Int }
func (*FloatLit) Type() Type    { return Float }
func (*BoolLit) Type() Type     { return Bool }
func (*StrLit) Type() Type      { return Str }
func (*NullLit) Type() Type     { return Null }
func (e *VarRef) Type() Type    { return e.Var.Type }
func (*ThisRef) Type() Type     { return Entity }
func (*WorldRef) Type() Type    { return World }
func (*SelectorRef) Type() Type { return Entity }
func (*PropRef) Type() Type     { return Int }
func (e *Binary) Type() Type    { return e.T }
func (*Compare) Type() Type     { return Bool }
func (*Logic) Type() Type       { return Bool }
func (*Not) Type() Type         { return Bool }
func (e *Neg) Type() Type       { return e.X.Type() }
func (e *Coalesce) Type() Type  { return e.T }
func (*Promote) Type() Type     { return Float }
func (e *Call) Type() Type      { return e.Fn.Return }
func (*Print) Type() Type       { return Void }
func (*Cmd) Type() Type         { return Void }

// ContainsCall reports whether evaluating e invokes a user function.
func ContainsCall(e Expr) bool {
	switch x := e.(type) {
	case *Call:
		return true
	case *Binary:
		return ContainsCall(x.L) || ContainsCall(x.R)
	case *Compare:
		return ContainsCall(x.L) || ContainsCall(x.R)
	case *Logic:
		return ContainsCall(x.L) || ContainsCall(x.R)
	case *Coalesce:
		return ContainsCall(x.L) || ContainsCall(x.R)
	case *Not:
		return ContainsCall(x.X)
	case *Neg:
		return ContainsCall(x.X)
	case *Promote:
		return ContainsCall(x.X)
	case *Print:
		for _, a := range x.Args {
			if ContainsCall(a) {
				return true
			}
		}
	}
	return false
}
