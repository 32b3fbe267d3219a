package sema

// Type is a resolved value type.
type Type int

const (
	Void Type = iota
	Int
	Float
	Bool
	Str
	Null
	Entity
	World
)

var typeNames = map[string]Type{
	"void":   Void,
	"int":    Int,
	"float":  Float,
	"bool":   Bool,
	"str":    Str,
	"entity": Entity,
}

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Str:
		return "str"
	case Null:
		return "null"
	case Entity:
		return "entity"
	case World:
		return "world"
	}
	return "?"
}

// Numeric reports whether t takes part in arithmetic.
func (t Type) Numeric() bool { return t == Int || t == Float }

// Storable reports whether a variable may hold a value of type t.
func (t Type) Storable() bool { return t == Int || t == Float || t == Bool || t == Entity }

// assignable reports whether a value of type src may be stored into dst,
// and whether the value must first be promoted from int to float.
func assignable(dst, src Type) (ok, promote bool) {
	switch {
	case dst == src:
		return true, false
	case src == Null:
		return dst.Storable(), false
	case dst == Float && src == Int:
		return true, true
	}
	return false, false
}
