package ir

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/packc/internal/diag"
)

// FuncKind separates user functions from the always-present synthetic ones.
type FuncKind int

const (
	FuncUser FuncKind = iota
	FuncSynthetic
)

// ExecType is the implicit receiver a function runs as.
type ExecType int

const (
	ExecWorld ExecType = iota
	ExecEntity
)

// Synthetic function names.
const (
	SynthImport = "import"
	SynthSetup  = "setup"
	SynthLoad   = "load"
	SynthTick   = "tick"
)

// FixedScale is the fixed-point factor of float values.
const FixedScale = 1000

type constKey struct {
	kind ConstKind
	i    int64
	s    string
}

// Module owns every IR function of one compilation.
type Module struct {
	Namespace string

	// Synthetic functions: namespace import, module setup, module
	// initial/load and per-tick.
	Import, Setup, Load, Tick *Function

	// ErrorFlag is set once a runtime error occurred; invocations are
	// skipped while it is set.
	ErrorFlag *Variable
	// DebugFlag marks a tick or load in progress (debug builds only).
	DebugFlag *Variable

	TickFuncs []*Function
	LoadFuncs []*Function

	users    []*Function
	registry map[any]*Function

	constants []*Constant
	constIdx  map[constKey]*Constant

	props []string
}

// NewModule creates a module with its four synthetic functions.
func NewModule(namespace string) *Module {
	m := &Module{
		Namespace: namespace,
		registry:  make(map[any]*Function),
		constIdx:  make(map[constKey]*Constant),
	}
	m.Import = newFunction(SynthImport, SynthImport, -1, FuncSynthetic, ExecWorld)
	m.Setup = newFunction(SynthSetup, SynthSetup, -1, FuncSynthetic, ExecWorld)
	m.Load = newFunction(SynthLoad, SynthLoad, -1, FuncSynthetic, ExecWorld)
	m.Tick = newFunction(SynthTick, SynthTick, -1, FuncSynthetic, ExecWorld)
	m.ErrorFlag = m.Setup.Hidden("error")
	m.DebugFlag = m.Load.Hidden("busy")
	return m
}

var unsafeID = regexp.MustCompile(`[^a-z0-9_]+`)

// sanitize lowercases name and replaces characters the target forbids in
// paths and score holders.
func sanitize(name string) string {
	s := unsafeID.ReplaceAllString(strings.ToLower(name), "_")
	if s == "" || s == "_" {
		return "fn"
	}
	return s
}

// Register creates the IR function for a source declaration. key is the
// caller's handle for the declaration; registering it twice is a defect.
func (m *Module) Register(key any, name string, exec ExecType) *Function {
	_, dup := m.registry[key]
	diag.Assert(!dup, "function %q registered twice", name)
	idx := len(m.users)
	f := newFunction(name, sanitize(name)+"_"+strconv.Itoa(idx), idx, FuncUser, exec)
	m.registry[key] = f
	m.users = append(m.users, f)
	return f
}

// Lookup returns the IR function registered for key.
func (m *Module) Lookup(key any) *Function {
	f, ok := m.registry[key]
	diag.Assert(ok, "no IR function registered for %v", key)
	return f
}

// Functions returns user functions in registration order.
func (m *Module) Functions() []*Function { return m.users }

// Synthetic returns the four synthetic functions in linking order.
func (m *Module) Synthetic() []*Function {
	return []*Function{m.Import, m.Setup, m.Load, m.Tick}
}

// All returns synthetic functions followed by user functions.
func (m *Module) All() []*Function { return append(m.Synthetic(), m.users...) }

func (m *Module) intern(k constKey) *Constant {
	if c, ok := m.constIdx[k]; ok {
		return c
	}
	c := &Constant{Kind: k.kind, Int: k.i, Str: k.s}
	m.constIdx[k] = c
	m.constants = append(m.constants, c)
	return c
}

// Int returns the interned integer constant v.
func (m *Module) Int(v int64) *Constant { return m.intern(constKey{kind: ConstInt, i: v}) }

// Float returns the interned fixed-point constant for v, which must fit a
// 32-bit score once scaled.
func (m *Module) Float(v float64) *Constant {
	i := int64(math.Round(v * FixedScale))
	diag.Assert(i >= math.MinInt32 && i <= math.MaxInt32, "float constant %v overflows a score", v)
	return m.intern(constKey{kind: ConstFloat, i: i})
}

// Str returns the interned string constant s.
func (m *Module) Str(s string) *Constant { return m.intern(constKey{kind: ConstString, s: s}) }

// Constants returns interned constants in creation order.
func (m *Module) Constants() []*Constant { return m.constants }

// ScoreConstants returns the constants that need a score slot.
func (m *Module) ScoreConstants() []*Constant {
	var out []*Constant
	for _, c := range m.constants {
		if c.Kind == ConstInt || c.Kind == ConstFloat {
			out = append(out, c)
		}
	}
	return out
}

// Property returns the atom for a receiver property and records the
// property name.
func (m *Module) Property(recv Atom, name string) Property {
	if i, found := slices.BinarySearch(m.props, name); !found {
		m.props = slices.Insert(m.props, i, name)
	}
	return Property{Receiver: recv, Name: name}
}

// Properties returns every property name used, sorted.
func (m *Module) Properties() []string { return m.props }

// Dump renders the module in a readable listing.
func (m *Module) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Namespace)
	if len(m.constants) > 0 {
		b.WriteString("constants")
		for _, c := range m.constants {
			b.WriteString(" " + c.String())
		}
		b.WriteString("\n")
	}
	for _, f := range m.All() {
		f.dump(&b)
	}
	return b.String()
}
