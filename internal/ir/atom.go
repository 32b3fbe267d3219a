package ir

import (
	"fmt"
	"strconv"
)

// Atom is a sealed operand of a command.
type Atom interface {
	atom()
	String() string
}

// VarKind classifies a variable by how it is stored.
type VarKind int

const (
	VarPublic   VarKind = iota // user-declared variable
	VarParam                   // function parameter
	VarExecutor                // the entity running the function
	VarReturn                  // return value slot
	VarPseudo                  // numbered temporary
	VarHidden                  // named compiler-internal slot (flags, loop bounds)
	VarEntity                  // entity reference, stored as a tag
)

func (k VarKind) String() string {
	switch k {
	case VarPublic:
		return "public"
	case VarParam:
		return "param"
	case VarExecutor:
		return "executor"
	case VarReturn:
		return "return"
	case VarPseudo:
		return "pseudo"
	case VarHidden:
		return "hidden"
	case VarEntity:
		return "entity"
	}
	return "VarKind(" + strconv.Itoa(int(k)) + ")"
}

// Variable is a storage cell owned by exactly one function.
type Variable struct {
	Name  string
	Kind  VarKind
	Owner *Function
	Index int    // pseudo number; -1 otherwise
	Float bool   // holds a fixed-point value
	Tag   string // entity variables: the issued tag name
}

func (*Variable) atom() {}

func (v *Variable) String() string {
	switch v.Kind {
	case VarPseudo:
		return "#" + strconv.Itoa(v.Index)
	case VarExecutor:
		return "@s"
	case VarReturn:
		return "#ret"
	case VarEntity:
		return "&" + v.Name
	}
	return v.Name
}

// ConstKind is the type of an interned constant.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstNull
)

// Constant is an interned literal. Float constants hold their fixed-point
// value (x1000) in Int.
type Constant struct {
	Kind ConstKind
	Int  int64
	Str  string
}

func (*Constant) atom() {}

func (c *Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return fmt.Sprintf("%d/1000", c.Int)
	case ConstString:
		return strconv.Quote(c.Str)
	}
	return "null"
}

// Null is the shared null constant. It occupies no slot.
var Null = &Constant{Kind: ConstNull}

// World is the implicit global receiver.
type World struct{}

func (World) atom()          {}
func (World) String() string { return "world" }

// Selector is a literal target selector.
type Selector struct {
	Text string
}

func (Selector) atom()            {}
func (s Selector) String() string { return s.Text }

// Property is a score attached to a receiver: World, a Selector, the
// executor variable or an entity variable.
type Property struct {
	Receiver Atom
	Name     string
}

func (Property) atom()            {}
func (p Property) String() string { return p.Receiver.String() + "." + p.Name }
