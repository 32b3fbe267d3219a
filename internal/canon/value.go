package canon

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed JSON value. Only String, Int, Bool, Array and Object
// implement it.
type Value interface {
	canonValue()
}

// String is a JSON string.
type String string

func (String) canonValue() {}

// Int is a JSON integer. There is no float variant.
type Int int64

func (Int) canonValue() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) canonValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) canonValue() {}

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonValue() {}

// Pair is one key/value entry for Obj.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for a Pair.
func P(key string, v Value) Pair { return Pair{Key: key, Value: v} }

// Obj builds an Object from pairs. Later duplicates win.
func Obj(pairs ...Pair) Object {
	o := make(Object, len(pairs))
	for _, p := range pairs {
		o[p.Key] = p.Value
	}
	return o
}

// Strings builds an Array of strings.
func Strings(ss ...string) Array {
	out := make(Array, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units). Go's
// native string order compares UTF-8 bytes, which differs for characters
// outside the BMP.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
