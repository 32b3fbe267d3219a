package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/packc/internal/diag"
)

// Function is one IR function: a main fragment plus extra fragments for
// branch arms, loop checks and loop bodies.
type Function struct {
	Name  string
	ID    string // stable identifier used in paths and holders
	Index int    // registration order; -1 for synthetic functions
	Kind  FuncKind
	Exec  ExecType

	Main  *Fragment
	Extra []*Fragment

	Params   []*Variable
	Executor *Variable
	Return   *Variable
	Publics  []*Variable
	hidden   []*Variable
	pseudos  []*Variable

	fragNames map[string]bool
	labels    int
}

func newFunction(name, id string, index int, kind FuncKind, exec ExecType) *Function {
	f := &Function{Name: name, ID: id, Index: index, Kind: kind, Exec: exec, fragNames: map[string]bool{"main": true}}
	f.Main = &Fragment{Name: "main", Owner: f}
	f.Executor = &Variable{Name: "this", Kind: VarExecutor, Owner: f, Index: -1}
	f.Return = &Variable{Name: "#ret", Kind: VarReturn, Owner: f, Index: -1}
	return f
}

// IsUser reports whether f comes from a source declaration.
func (f *Function) IsUser() bool { return f.Kind == FuncUser }

// NewFragment adds an extra fragment. Names are unique per function.
func (f *Function) NewFragment(name string) *Fragment {
	diag.Assert(!f.fragNames[name], "fragment %q already exists in %s", name, f.ID)
	f.fragNames[name] = true
	fr := &Fragment{Name: name, Owner: f}
	f.Extra = append(f.Extra, fr)
	return fr
}

// Fragments returns the main fragment followed by the extra ones.
func (f *Function) Fragments() []*Fragment { return append([]*Fragment{f.Main}, f.Extra...) }

// Label returns the next fragment label number.
func (f *Function) Label() int {
	n := f.labels
	f.labels++
	return n
}

// AddParam declares a parameter.
func (f *Function) AddParam(name string, float bool) *Variable {
	v := &Variable{Name: name, Kind: VarParam, Owner: f, Index: -1, Float: float}
	f.Params = append(f.Params, v)
	return v
}

// AddPublic declares a user variable. Entity variables carry their tag.
func (f *Function) AddPublic(name string, float bool) *Variable {
	v := &Variable{Name: name, Kind: VarPublic, Owner: f, Index: -1, Float: float}
	f.Publics = append(f.Publics, v)
	return v
}

// AddEntity declares an entity variable stored as tag.
func (f *Function) AddEntity(name, tag string) *Variable {
	v := &Variable{Name: name, Kind: VarEntity, Owner: f, Index: -1, Tag: tag}
	f.Publics = append(f.Publics, v)
	return v
}

// Hidden returns the named compiler-internal slot, creating it on first use.
func (f *Function) Hidden(name string) *Variable {
	for _, v := range f.hidden {
		if v.Name == name {
			return v
		}
	}
	v := &Variable{Name: name, Kind: VarHidden, Owner: f, Index: -1}
	f.hidden = append(f.hidden, v)
	return v
}

// Pseudo returns temporary i, creating it on first use.
func (f *Function) Pseudo(i int) *Variable {
	for len(f.pseudos) <= i {
		f.pseudos = append(f.pseudos, &Variable{
			Name:  "#" + strconv.Itoa(len(f.pseudos)),
			Kind:  VarPseudo,
			Owner: f,
			Index: len(f.pseudos),
		})
	}
	return f.pseudos[i]
}

// Variables returns every variable of f in a stable order: parameters,
// executor, return, publics, hidden slots, then pseudos by number.
func (f *Function) Variables() []*Variable {
	out := make([]*Variable, 0, len(f.Params)+len(f.Publics)+len(f.hidden)+len(f.pseudos)+2)
	out = append(out, f.Params...)
	out = append(out, f.Executor, f.Return)
	out = append(out, f.Publics...)
	out = append(out, f.hidden...)
	return append(out, f.pseudos...)
}

func (f *Function) dump(b *strings.Builder) {
	kind := "user"
	if f.Kind == FuncSynthetic {
		kind = "synthetic"
	}
	exec := "world"
	if f.Exec == ExecEntity {
		exec = "entity"
	}
	fmt.Fprintf(b, "function %s (%s, %s)\n", f.ID, kind, exec)
	for _, fr := range f.Fragments() {
		fmt.Fprintf(b, "  %s:\n", fr.Name)
		for _, c := range fr.Commands {
			fmt.Fprintf(b, "    %s\n", c)
		}
		for _, t := range fr.Tags {
			fmt.Fprintf(b, "    cleanup %s\n", t)
		}
	}
}

// Fragment is a named straight-line command sequence; each one renders to
// its own file.
type Fragment struct {
	Name     string
	Owner    *Function
	Commands []Command
	Tags     []*Variable // entity tags to clear when the fragment ends
}

// Emit appends commands.
func (fr *Fragment) Emit(cmds ...Command) { fr.Commands = append(fr.Commands, cmds...) }

// RecordTag schedules cleanup of an entity tag at the end of the fragment.
func (fr *Fragment) RecordTag(v *Variable) {
	for _, t := range fr.Tags {
		if t == v {
			return
		}
	}
	fr.Tags = append(fr.Tags, v)
}
