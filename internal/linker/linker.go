// Package linker assigns every IR function a file path per recursion depth
// and every IR variable a storage location.
//
// The table is built once, after lowering, in two passes: functions and
// their depths first, then variables in function registration order. It is
// read-only afterwards.
package linker

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/packc/internal/diag"
	"github.com/roach88/packc/internal/ir"
)

// LocKind is the storage class of a location.
type LocKind int

const (
	LocGlobal    LocKind = iota // score on the <ns>.g objective
	LocConst                    // score on the <ns>.c objective
	LocFrame                    // score on the per-depth <ns>.f<d> objective
	LocSelf                     // the executing entity
	LocTag                      // entity tag suffixed per depth
	LocGlobalTag                // entity tag shared by every depth
)

func (k LocKind) String() string {
	switch k {
	case LocGlobal:
		return "global"
	case LocConst:
		return "const"
	case LocFrame:
		return "frame"
	case LocSelf:
		return "self"
	case LocTag:
		return "tag"
	case LocGlobalTag:
		return "global_tag"
	}
	return "LocKind(" + strconv.Itoa(int(k)) + ")"
}

// Location is where a value lives. Holder is the score holder name, or the
// tag name for tag kinds.
type Location struct {
	Holder string
	Kind   LocKind
}

// SyntheticDepth is the depth synthetic functions render at; their calls
// land on depth 0.
const SyntheticDepth = -1

type fnKey struct {
	fn    *ir.Function
	depth int
}

// Linker is the immutable link table of one module.
type Linker struct {
	ns    string
	limit int
	mod   *ir.Module

	folders map[fnKey]string // resource location of the function folder
	mains   map[fnKey]string // resource location of the main file
	vars    map[*ir.Variable]Location
	consts  map[*ir.Constant]Location

	varOrder []*ir.Variable
	sealed   bool
}

// Link builds the table for mod with depths 0..limit.
func Link(mod *ir.Module, limit int) *Linker {
	diag.Assert(limit > 0, "recursion limit must be positive, got %d", limit)
	l := &Linker{
		ns:      mod.Namespace,
		limit:   limit,
		mod:     mod,
		folders: make(map[fnKey]string),
		mains:   make(map[fnKey]string),
		vars:    make(map[*ir.Variable]Location),
		consts:  make(map[*ir.Constant]Location),
	}

	// (1) synthetic roots
	for _, fn := range mod.Synthetic() {
		l.registerFunction(fn, SyntheticDepth, "sys/"+fn.ID)
	}
	// (2) every user function at every depth
	for _, fn := range mod.Functions() {
		for d := 0; d <= limit; d++ {
			l.registerFunction(fn, d, fmt.Sprintf("%s/s%d", fn.ID, d))
		}
	}
	// (3) well-known entry points
	for _, fn := range mod.Synthetic() {
		l.mains[fnKey{fn, SyntheticDepth}] = l.ns + ":" + fn.ID
	}
	// (4) storage
	for _, fn := range mod.All() {
		for _, v := range fn.Variables() {
			l.registerVariable(v)
		}
	}
	for _, c := range mod.ScoreConstants() {
		l.consts[c] = Location{Holder: constHolder(c), Kind: LocConst}
	}

	l.sealed = true
	return l
}

func (l *Linker) registerFunction(fn *ir.Function, depth int, folder string) {
	k := fnKey{fn, depth}
	_, dup := l.folders[k]
	diag.Assert(!dup, "function %s registered twice at depth %d", fn.ID, depth)
	l.folders[k] = l.ns + ":" + folder
	l.mains[k] = l.ns + ":" + folder + "/main"
}

func (l *Linker) registerVariable(v *ir.Variable) {
	diag.Assert(!l.sealed, "linker is sealed")
	holder := "$" + v.Owner.ID + "." + v.Name
	var loc Location
	switch {
	case v.Kind == ir.VarExecutor:
		loc = Location{Holder: "@s", Kind: LocSelf}
	case v.Kind == ir.VarEntity && v.Owner.IsUser():
		loc = Location{Holder: v.Tag, Kind: LocTag}
	case v.Kind == ir.VarEntity:
		loc = Location{Holder: v.Tag, Kind: LocGlobalTag}
	case v.Owner.IsUser():
		loc = Location{Holder: holder, Kind: LocFrame}
	default:
		loc = Location{Holder: holder, Kind: LocGlobal}
	}
	l.vars[v] = loc
	l.varOrder = append(l.varOrder, v)
}

func constHolder(c *ir.Constant) string {
	if c.Kind == ir.ConstFloat {
		return "#f" + strconv.FormatInt(c.Int, 10)
	}
	return "#c" + strconv.FormatInt(c.Int, 10)
}

// Namespace returns the namespace of the linked module.
func (l *Linker) Namespace() string { return l.ns }

// Limit returns the recursion limit.
func (l *Linker) Limit() int { return l.limit }

// Module returns the linked module.
func (l *Linker) Module() *ir.Module { return l.mod }

func (l *Linker) key(fn *ir.Function, depth int) fnKey {
	if !fn.IsUser() {
		depth = SyntheticDepth
	}
	return fnKey{fn, depth}
}

// Main returns the resource location of fn's main file at depth.
// Synthetic functions ignore depth.
func (l *Linker) Main(fn *ir.Function, depth int) string {
	p, ok := l.mains[l.key(fn, depth)]
	diag.Assert(ok, "no path for %s at depth %d", fn.ID, depth)
	return p
}

// Fragment returns the resource location of fr at depth.
func (l *Linker) Fragment(fr *ir.Fragment, depth int) string {
	if fr == fr.Owner.Main {
		return l.Main(fr.Owner, depth)
	}
	p, ok := l.folders[l.key(fr.Owner, depth)]
	diag.Assert(ok, "no folder for %s at depth %d", fr.Owner.ID, depth)
	return p + "/" + fr.Name
}

// ErrorSink returns the function that raises the error flag.
func (l *Linker) ErrorSink() string { return l.ns + ":sys/error" }

// Variable returns the storage location of v.
func (l *Linker) Variable(v *ir.Variable) Location {
	loc, ok := l.vars[v]
	diag.Assert(ok, "variable %s of %s was never linked", v, v.Owner.ID)
	return loc
}

// Constant returns the slot of a score constant.
func (l *Linker) Constant(c *ir.Constant) Location {
	loc, ok := l.consts[c]
	diag.Assert(ok, "constant %s was never linked", c)
	return loc
}

// Objective names.

func (l *Linker) GlobalObjective() string { return l.ns + ".g" }
func (l *Linker) ConstObjective() string  { return l.ns + ".c" }

func (l *Linker) FrameObjective(depth int) string {
	diag.Assert(depth >= 0 && depth <= l.limit, "frame depth %d out of range", depth)
	return l.ns + ".f" + strconv.Itoa(depth)
}

func (l *Linker) PropertyObjective(name string) string { return l.ns + ".p." + name }

// Objectives lists every objective the pack declares, in declaration
// order.
func (l *Linker) Objectives() []string {
	out := []string{l.GlobalObjective(), l.ConstObjective()}
	for d := 0; d <= l.limit; d++ {
		out = append(out, l.FrameObjective(d))
	}
	for _, p := range l.mod.Properties() {
		out = append(out, l.PropertyObjective(p))
	}
	return out
}

// TagAt renders the tag of an entity location at depth.
func TagAt(loc Location, depth int) string {
	switch loc.Kind {
	case LocTag:
		return loc.Holder + ".d" + strconv.Itoa(depth)
	case LocGlobalTag:
		return loc.Holder
	}
	diag.Internalf("location %s is not a tag", loc.Kind)
	return ""
}

// Entry is one row of the function table.
type Entry struct {
	Function string
	Depth    int
	Path     string
}

// Functions lists every (function, depth) → main path, synthetic functions
// first.
func (l *Linker) Functions() []Entry {
	var out []Entry
	for _, fn := range l.mod.Synthetic() {
		out = append(out, Entry{Function: fn.ID, Depth: SyntheticDepth, Path: l.Main(fn, SyntheticDepth)})
	}
	for _, fn := range l.mod.Functions() {
		for d := 0; d <= l.limit; d++ {
			out = append(out, Entry{Function: fn.ID, Depth: d, Path: l.Main(fn, d)})
		}
	}
	return out
}

// VarEntry is one row of the storage table.
type VarEntry struct {
	Function string
	Name     string
	Kind     string
	Location Location
}

// Variables lists every linked variable in registration order.
func (l *Linker) Variables() []VarEntry {
	out := make([]VarEntry, 0, len(l.varOrder))
	for _, v := range l.varOrder {
		out = append(out, VarEntry{Function: v.Owner.ID, Name: v.Name, Kind: v.Kind.String(), Location: l.vars[v]})
	}
	return out
}

// Constants lists the score constants ordered by kind, then value.
func (l *Linker) Constants() []*ir.Constant {
	out := slices.Clone(l.mod.ScoreConstants())
	slices.SortStableFunc(out, func(a, b *ir.Constant) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Int, b.Int))
	})
	return out
}
